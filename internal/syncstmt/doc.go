// Package syncstmt implements the sync statement (spec.md §3/§4.2,
// component C3): the immutable `{request, waitFor, block, interrupt,
// breakUpon}` record a b-thread publishes at each bsync call, plus the
// host-facing Ctx interface a b-thread body runs against.
//
// Ctx and Statement are defined in the same package because they are
// mutually referential: Ctx.Bsync takes a Statement, and a Statement's
// break-upon handler receives a BreakCtx. Splitting them across packages
// would force an import cycle; the teacher keeps similarly entangled types
// (engine.Event / engine.eventQueue) in one file for the same reason.
package syncstmt

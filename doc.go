// Package bp is the public facade over this module's internal Behavioral
// Programming engine packages (ir, eventset, syncstmt, bthread, engine,
// runner). It mirrors the teacher's pattern of a thin public surface over
// internal/ packages — there, internal/cli and internal/engine are each
// driven through small constructor functions; here the constructor surface
// *is* the product, so it lives at the module root instead of inside
// internal/.
//
// A typical program:
//
//	prog := bp.NewProgram(bp.WithSeed(1))
//	prog.RegisterBThread("greeter", func(ctx bp.Ctx) {
//		ctx.Bsync(bp.New(bp.Request(bp.NewEvent("hello"))))
//	})
//	result := prog.Run(context.Background(), nil)
package bp

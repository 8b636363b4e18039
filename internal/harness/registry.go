package harness

import (
	"fmt"

	"github.com/corewing/bp"
	"github.com/corewing/bp/internal/ir"
)

// BodyFactory builds a bp.BodyFunc from a role's params. reg is passed
// through so a role like "spawn" can recursively build the body it
// dynamically registers.
type BodyFactory func(reg *Registry, params map[string]any) (bp.BodyFunc, error)

// Registry maps scenario role names to the bodies they run. The built-in
// roles below are enough to express every scenario in spec.md §8; callers
// embedding the harness in a larger test suite can register additional
// roles with Register before calling Run.
type Registry struct {
	factories map[string]BodyFactory
}

// NewRegistry builds a Registry preloaded with the built-in roles.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]BodyFactory{}}
	r.Register("request", requestRole)
	r.Register("wait-block-alternate", waitBlockAlternateRole)
	r.Register("gate", gateRole)
	r.Register("spawn", spawnRole)
	r.Register("break-upon", breakUponRole)
	r.Register("record-time", recordTimeRole)
	return r
}

// Register adds or overrides a role.
func (r *Registry) Register(role string, factory BodyFactory) {
	r.factories[role] = factory
}

// Build constructs the body for bt's role, propagating the registry so
// roles that dynamically register further b-threads can resolve theirs.
func (r *Registry) Build(bt ir.BThreadSpec) (bp.BodyFunc, error) {
	factory, ok := r.factories[bt.Role]
	if !ok {
		return nil, fmt.Errorf("unknown scenario role %q", bt.Role)
	}
	return factory(r, bt.Params)
}

func paramString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required param %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	return s, nil
}

func paramInt(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("param %q must be an int, got %T", key, v)
	}
}

func paramMap(params map[string]any, key string) map[string]any {
	v, _ := params[key].(map[string]any)
	return v
}

// requestRole repeatedly requests one event, "times" times (default 1).
func requestRole(_ *Registry, params map[string]any) (bp.BodyFunc, error) {
	eventName, err := paramString(params, "event")
	if err != nil {
		return nil, err
	}
	times, err := paramInt(params, "times", 1)
	if err != nil {
		return nil, err
	}
	event := bp.NewEvent(eventName)
	return func(ctx bp.Ctx) {
		for i := 0; i < times; i++ {
			if _, err := ctx.Bsync(bp.New(bp.Request(event))); err != nil {
				return
			}
		}
	}, nil
}

// waitBlockAlternateRole alternates waiting for "a" while blocking "b",
// then waiting for "b" while blocking "a", "rounds" times, optionally
// requesting "final_request" once done.
func waitBlockAlternateRole(_ *Registry, params map[string]any) (bp.BodyFunc, error) {
	aName, err := paramString(params, "a")
	if err != nil {
		return nil, err
	}
	bName, err := paramString(params, "b")
	if err != nil {
		return nil, err
	}
	rounds, err := paramInt(params, "rounds", 1)
	if err != nil {
		return nil, err
	}
	finalRequest, _ := params["final_request"].(string)

	a, b := bp.NewEvent(aName), bp.NewEvent(bName)
	return func(ctx bp.Ctx) {
		for i := 0; i < rounds; i++ {
			if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(a)), bp.Block(bp.Singleton(b)))); err != nil {
				return
			}
			if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(b)), bp.Block(bp.Singleton(a)))); err != nil {
				return
			}
		}
		if finalRequest != "" {
			ctx.Bsync(bp.New(bp.Request(bp.NewEvent(finalRequest))))
		}
	}, nil
}

// gateRole waits for one event then requests another — the external-event
// gate scenario's gatekeeper.
func gateRole(_ *Registry, params map[string]any) (bp.BodyFunc, error) {
	waitFor, err := paramString(params, "wait_for")
	if err != nil {
		return nil, err
	}
	thenRequest, err := paramString(params, "then_request")
	if err != nil {
		return nil, err
	}
	gate, opened := bp.NewEvent(waitFor), bp.NewEvent(thenRequest)
	return func(ctx bp.Ctx) {
		if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(gate)))); err != nil {
			return
		}
		ctx.Bsync(bp.New(bp.Request(opened)))
	}, nil
}

// spawnRole requests one event, then dynamically registers a further
// b-thread built from "spawn_role"/"spawn_params" — the dynamic
// registration scenario's spawner.
func spawnRole(reg *Registry, params map[string]any) (bp.BodyFunc, error) {
	requestName, err := paramString(params, "request")
	if err != nil {
		return nil, err
	}
	spawnRoleName, err := paramString(params, "spawn_role")
	if err != nil {
		return nil, err
	}
	spawnName, _ := params["spawn_name"].(string)
	spawnBody, err := reg.Build(ir.BThreadSpec{Role: spawnRoleName, Params: paramMap(params, "spawn_params")})
	if err != nil {
		return nil, err
	}

	event := bp.NewEvent(requestName)
	return func(ctx bp.Ctx) {
		if _, err := ctx.Bsync(bp.New(bp.Request(event))); err != nil {
			return
		}
		ctx.RegisterBThread(spawnName, spawnBody)
	}, nil
}

// breakUponRole waits for one event while interruptible by another; the
// break-upon handler records which event interrupted it under
// "global_key" in the program's global scope.
func breakUponRole(_ *Registry, params map[string]any) (bp.BodyFunc, error) {
	waitFor, err := paramString(params, "wait_for")
	if err != nil {
		return nil, err
	}
	interrupt, err := paramString(params, "interrupt")
	if err != nil {
		return nil, err
	}
	globalKey, err := paramString(params, "global_key")
	if err != nil {
		return nil, err
	}
	wait, cancel := bp.NewEvent(waitFor), bp.NewEvent(interrupt)
	return func(ctx bp.Ctx) {
		ctx.Bsync(bp.New(
			bp.WaitFor(bp.Singleton(wait)),
			bp.Interrupt(bp.Singleton(cancel)),
			bp.WithBreakUpon(func(bctx bp.BreakCtx, selected bp.Event) {
				bctx.SetGlobal(globalKey, selected.Name)
			}),
		))
	}, nil
}

// recordTimeRole records the program clock's current time under
// "global_key" — the Ctx.GetTime/SetGlobal round-trip scenario.
func recordTimeRole(_ *Registry, params map[string]any) (bp.BodyFunc, error) {
	globalKey, err := paramString(params, "global_key")
	if err != nil {
		return nil, err
	}
	return func(ctx bp.Ctx) {
		ctx.SetGlobal(globalKey, ctx.GetTime())
	}, nil
}

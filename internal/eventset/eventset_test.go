package eventset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewing/bp/internal/ir"
)

func contains(t *testing.T, s Set, name string) bool {
	t.Helper()
	in, err := s.Contains(ir.NewEvent(name))
	require.NoError(t, err)
	return in
}

func TestAllAndNone(t *testing.T) {
	assert.True(t, contains(t, All, "anything"))
	assert.False(t, contains(t, None, "anything"))
}

func TestSingleton(t *testing.T) {
	s := Singleton(ir.NewEvent("hot"))
	assert.True(t, contains(t, s, "hot"))
	assert.False(t, contains(t, s, "cold"))
}

func TestEnumerated(t *testing.T) {
	s := Enumerated(ir.NewEvent("hot"), ir.NewEvent("cold"))
	assert.True(t, contains(t, s, "hot"))
	assert.True(t, contains(t, s, "cold"))
	assert.False(t, contains(t, s, "allDone"))
}

func TestAllExcept(t *testing.T) {
	s := AllExcept(Singleton(ir.NewEvent("hot")))
	assert.False(t, contains(t, s, "hot"))
	assert.True(t, contains(t, s, "cold"))
}

func TestComplementIsAllExcept(t *testing.T) {
	inner := Enumerated(ir.NewEvent("a"))
	assert.Equal(t, contains(t, Complement(inner), "a"), contains(t, AllExcept(inner), "a"))
}

func TestUnion(t *testing.T) {
	s := Union(Singleton(ir.NewEvent("hot")), Singleton(ir.NewEvent("cold")))
	assert.True(t, contains(t, s, "hot"))
	assert.True(t, contains(t, s, "cold"))
	assert.False(t, contains(t, s, "ext1"))
}

func TestIntersection(t *testing.T) {
	s := Intersection(
		Enumerated(ir.NewEvent("hot"), ir.NewEvent("cold")),
		Enumerated(ir.NewEvent("cold")),
	)
	assert.False(t, contains(t, s, "hot"))
	assert.True(t, contains(t, s, "cold"))
}

func TestIntersectionOfNoSetsIsAll(t *testing.T) {
	s := Intersection()
	assert.True(t, contains(t, s, "anything"))
}

func TestHostPredicateSuccess(t *testing.T) {
	s := HostPredicate("isWarm", func(e ir.Event) (bool, error) {
		return e.Name == "hot" || e.Name == "cold", nil
	})
	assert.True(t, contains(t, s, "hot"))
	assert.False(t, contains(t, s, "allDone"))
}

func TestHostPredicateFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	s := HostPredicate("flaky", func(e ir.Event) (bool, error) {
		return false, boom
	})

	in, err := s.Contains(ir.NewEvent("x"))
	require.Error(t, err)
	assert.False(t, in, "membership must be treated as false on predicate failure")

	var hpe *HostPredicateError
	require.True(t, errors.As(err, &hpe))
	assert.Equal(t, "flaky", hpe.Name)
	assert.ErrorIs(t, err, boom)
}

func TestFingerprintStableAndDistinguishing(t *testing.T) {
	a := Union(Singleton(ir.NewEvent("hot")), Singleton(ir.NewEvent("cold")))
	b := Union(Singleton(ir.NewEvent("cold")), Singleton(ir.NewEvent("hot")))
	c := Union(Singleton(ir.NewEvent("hot")), Singleton(ir.NewEvent("allDone")))

	assert.Equal(t, Fingerprint(a), Fingerprint(b), "member order must not affect fingerprint")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestFingerprintHostPredicateByName(t *testing.T) {
	p1 := HostPredicate("isWarm", func(ir.Event) (bool, error) { return true, nil })
	p2 := HostPredicate("isWarm", func(ir.Event) (bool, error) { return false, nil })
	p3 := HostPredicate("isCold", func(ir.Event) (bool, error) { return true, nil })

	assert.Equal(t, Fingerprint(p1), Fingerprint(p2), "same name fingerprints identically")
	assert.NotEqual(t, Fingerprint(p1), Fingerprint(p3))
}

func TestUnionShortCircuitsOnFailureOnlyIfReached(t *testing.T) {
	boom := errors.New("boom")
	failing := HostPredicate("flaky", func(ir.Event) (bool, error) { return false, boom })
	s := Union(Singleton(ir.NewEvent("hot")), failing)

	// hot matches the first member; union returns true without invoking
	// the failing predicate.
	in, err := s.Contains(ir.NewEvent("hot"))
	require.NoError(t, err)
	assert.True(t, in)

	// cold doesn't match the first member, so the failing predicate runs
	// and its error surfaces.
	_, err = s.Contains(ir.NewEvent("cold"))
	require.Error(t, err)
}

package syncstmt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewing/bp/internal/eventset"
	"github.com/corewing/bp/internal/ir"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	assert.Empty(t, s.Request)
	assert.Equal(t, eventset.None, s.WaitFor)
	assert.Equal(t, eventset.None, s.Block)
	assert.Equal(t, eventset.None, s.Interrupt)
	assert.Nil(t, s.BreakUpon)
}

func TestNewComposesOptions(t *testing.T) {
	hot := ir.NewEvent("hot")
	s := New(
		Request(hot),
		WaitFor(eventset.Singleton(ir.NewEvent("cold"))),
		Block(eventset.Singleton(ir.NewEvent("stop"))),
		Interrupt(eventset.Singleton(ir.NewEvent("abort"))),
		WithBreakUpon(func(ctx BreakCtx, selected ir.Event) {}),
	)

	require.Len(t, s.Request, 1)
	assert.True(t, s.Request[0].Equal(hot))

	in, err := s.WaitFor.Contains(ir.NewEvent("cold"))
	require.NoError(t, err)
	assert.True(t, in)

	in, err = s.Block.Contains(ir.NewEvent("stop"))
	require.NoError(t, err)
	assert.True(t, in)

	in, err = s.Interrupt.Contains(ir.NewEvent("abort"))
	require.NoError(t, err)
	assert.True(t, in)

	assert.NotNil(t, s.BreakUpon)
}

func TestValidateSucceedsWhenNoConflict(t *testing.T) {
	s := New(
		Request(ir.NewEvent("hot")),
		Block(eventset.Singleton(ir.NewEvent("cold"))),
	)
	assert.NoError(t, s.Validate())
}

func TestValidateRejectsRequestAlsoBlocked(t *testing.T) {
	hot := ir.NewEvent("hot")
	s := New(
		Request(hot),
		Block(eventset.Singleton(hot)),
	)

	err := s.Validate()
	require.Error(t, err)

	var rbe *RequestBlockedError
	require.True(t, errors.As(err, &rbe))
	assert.True(t, rbe.Event.Equal(hot))
}

func TestValidatePropagatesHostPredicateFailure(t *testing.T) {
	boom := errors.New("boom")
	s := New(
		Request(ir.NewEvent("hot")),
		Block(eventset.HostPredicate("flaky", func(ir.Event) (bool, error) {
			return false, boom
		})),
	)

	err := s.Validate()
	require.Error(t, err)

	var hpe *eventset.HostPredicateError
	require.True(t, errors.As(err, &hpe))
	assert.ErrorIs(t, err, boom)
}

func TestResumableMatchesRequestOrWaitFor(t *testing.T) {
	hot := ir.NewEvent("hot")
	s := New(
		Request(hot),
		WaitFor(eventset.Singleton(ir.NewEvent("cold"))),
	)

	ok, err := s.Resumable(hot)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Resumable(ir.NewEvent("cold"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Resumable(ir.NewEvent("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashDeterministicAndSensitiveToRequest(t *testing.T) {
	s1 := New(Request(ir.NewEvent("hot")))
	s2 := New(Request(ir.NewEvent("hot")))
	s3 := New(Request(ir.NewEvent("cold")))

	h1, err := s1.Hash()
	require.NoError(t, err)
	h2, err := s2.Hash()
	require.NoError(t, err)
	h3, err := s3.Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

package async

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

var (
	signer = util.Uint160{1}
	origin = util.Uint160{2}
	callee = util.Uint160{3}
)

func TestSchedulerSingle(t *testing.T) {
	s := NewScheduler()

	ids := s.Schedule(signer, origin, &Call{Receiver: origin, Method: "callback"},
		Call{Receiver: callee, Method: "get"})
	require.Len(t, ids, 1)
	require.Equal(t, 1, s.Len())
	require.Equal(t, 1, s.Awaiting())

	task, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, ids[0], task.ID)
	require.Equal(t, "get", task.Call.Method)
	require.Equal(t, origin, task.Origin)
	require.Equal(t, signer, task.Signer)
	require.Nil(t, task.Results)

	_, ok = s.Next()
	require.False(t, ok)

	require.NoError(t, s.Resolve(task.ID, Success([]byte("42"))))

	cb, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, "callback", cb.Call.Method)
	require.Equal(t, origin, cb.Origin)
	require.Equal(t, []Result{Success([]byte("42"))}, cb.Results)

	t.Run("at most once", func(t *testing.T) {
		require.ErrorIs(t, s.Resolve(task.ID, Failure()), ErrAlreadyResolved)
		require.Equal(t, 0, s.Len(), "callback must not be queued twice")
	})

	t.Run("unknown", func(t *testing.T) {
		require.ErrorIs(t, s.Resolve(uuid.New(), Failure()), ErrUnknownRequest)
	})

	require.NoError(t, s.Resolve(cb.ID, Success(nil)))
	require.Zero(t, s.Awaiting())
}

func TestSchedulerJoin(t *testing.T) {
	s := NewScheduler()

	s.Schedule(signer, origin, &Call{Receiver: origin, Method: "both"},
		Call{Receiver: callee, Method: "first"},
		Call{Receiver: callee, Method: "second"})

	first, _ := s.Next()
	second, _ := s.Next()

	require.NoError(t, s.Resolve(second.ID, Failure()))
	require.Zero(t, s.Len(), "callback waits for all calls")

	require.NoError(t, s.Resolve(first.ID, Success([]byte("1"))))

	cb, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, []Result{Success([]byte("1")), Failure()}, cb.Results)
}

func TestSchedulerFireAndForget(t *testing.T) {
	s := NewScheduler()

	ids := s.Schedule(signer, origin, nil, Call{Receiver: callee, Method: "notify"})
	task, _ := s.Next()
	require.Equal(t, ids[0], task.ID)
	require.NoError(t, s.Resolve(task.ID, Failure()))
	require.Zero(t, s.Len())
	require.Zero(t, s.Awaiting())
}

func TestSchedulerForgetsResolved(t *testing.T) {
	s := newScheduler(2)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ids = append(ids, s.Schedule(signer, origin, nil, Call{Receiver: callee, Method: "notify"})...)
	}
	for _, id := range ids {
		require.NoError(t, s.Resolve(id, Success(nil)))
	}
	require.Equal(t, 2, s.resolved.Len())

	require.ErrorIs(t, s.Resolve(ids[0], Failure()), ErrUnknownRequest)
	require.ErrorIs(t, s.Resolve(ids[2], Failure()), ErrAlreadyResolved)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "not ready", NotReady.String())
	require.Equal(t, "successful", Successful.String())
	require.Equal(t, "failed", Failed.String())
	require.Equal(t, "unknown", Status(42).String())
}

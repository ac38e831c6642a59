package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitSettlesOnTerminalState(t *testing.T) {
	store := NewStore()

	go func() {
		store.Dispatch(FlowStarted{Flow: FlowRefreshToken})
		store.Dispatch(RefreshSucceeded{})
	}()

	got, err := Await(context.Background(), store, nil, func(s State) (Status, bool, error) {
		st := s.Statuses[FlowRefreshToken]
		if st == StatusSuccess || st == StatusFailed {
			return st, true, nil
		}
		return 0, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got)
}

func TestAwaitSeesTerminalReachedDuringStart(t *testing.T) {
	store := NewStore()

	// start settles the flow synchronously; the subscription taken before
	// start must still observe it.
	start := func() {
		store.Dispatch(FlowStarted{Flow: FlowCheckSession})
		store.Dispatch(CheckSessionFinished{User: &User{ID: "u1"}})
	}

	u, err := Await(context.Background(), store, start, func(s State) (*User, bool, error) {
		if s.Statuses[FlowCheckSession] == StatusSuccess {
			return s.User, true, nil
		}
		return nil, false, nil
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
}

func TestAwaitRespectsContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Await(ctx, store, nil, func(s State) (struct{}, bool, error) {
		return struct{}{}, false, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitFlowSuccessAndFailure(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := NewStore()
		err := AwaitFlow(context.Background(), store, FlowForgotPassword, func() {
			store.Dispatch(FlowStarted{Flow: FlowForgotPassword})
			store.Dispatch(ForgotPasswordSucceeded{})
		})
		require.NoError(t, err)
	})

	t.Run("failure carries the user-facing message", func(t *testing.T) {
		store := NewStore()
		err := AwaitFlow(context.Background(), store, FlowForgotPassword, func() {
			store.Dispatch(FlowStarted{Flow: FlowForgotPassword})
			store.Dispatch(FlowFailed{Flow: FlowForgotPassword, Message: msgUnknownEmail})
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), msgUnknownEmail)
	})

	t.Run("failure without a message falls back to the generic one", func(t *testing.T) {
		store := NewStore()
		err := AwaitFlow(context.Background(), store, FlowRefreshToken, func() {
			store.Dispatch(FlowStarted{Flow: FlowRefreshToken})
			store.Dispatch(FlowFailed{Flow: FlowRefreshToken})
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), msgTryAgainLater)
	})
}

func TestAwaitRestartAfterTerminalBlocksUntilNewTerminal(t *testing.T) {
	store := NewStore()
	store.Dispatch(FlowStarted{Flow: FlowRefreshToken})
	store.Dispatch(FlowFailed{Flow: FlowRefreshToken, Message: "boom"})

	// A new run re-dispatches the start event, so the stale failure is not
	// mistaken for this run's outcome.
	err := AwaitFlow(context.Background(), store, FlowRefreshToken, func() {
		store.Dispatch(FlowStarted{Flow: FlowRefreshToken})
		go func() {
			time.Sleep(10 * time.Millisecond)
			store.Dispatch(RefreshSucceeded{})
		}()
	})
	require.NoError(t, err)
}

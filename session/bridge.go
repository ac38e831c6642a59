package session

import (
	"context"
	"fmt"
)

// Await runs start and blocks until terminal reports a settled result on
// some state snapshot, or ctx is done. The subscription is taken before
// start runs, so a flow that settles immediately is still observed; each
// wakeup re-reads a fresh snapshot, so coalesced notifications cannot drop
// the terminal transition.
func Await[T any](ctx context.Context, store *Store, start func(), terminal func(State) (T, bool, error)) (T, error) {
	var zero T

	ch, unsubscribe := store.Subscribe()
	defer unsubscribe()

	if start != nil {
		start()
	}

	for {
		if v, ok, err := terminal(store.State()); ok {
			return v, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ch:
		}
	}
}

// AwaitFlow settles when the given flow leaves StatusStart: nil on success,
// the flow's user-facing error message as an error on failure. The flow
// must be one the reducer tracks per-flow status for.
func AwaitFlow(ctx context.Context, store *Store, flow Flow, start func()) error {
	_, err := Await(ctx, store, start, func(s State) (struct{}, bool, error) {
		switch s.Statuses[flow] {
		case StatusSuccess:
			return struct{}{}, true, nil
		case StatusFailed:
			msg := s.Errors[flow]
			if msg == "" {
				msg = msgTryAgainLater
			}
			return struct{}{}, true, fmt.Errorf("%s: %s", flow, msg)
		default:
			return struct{}{}, false, nil
		}
	})
	return err
}

package realtime

import (
	"context"
	"errors"
	"iter"
	"time"
)

const (
	minResyncBackoff = 100 * time.Millisecond
	maxResyncBackoff = 5 * time.Second
)

// Update is one step of a watched stream: a full snapshot taken right after
// (re)subscribing, or a single change event that followed it.
type Update[S any] struct {
	Resync   bool
	Snapshot S
	Event    ChangeEvent
}

// Watch returns a lazy sequence over f. Every iteration subscribes first and
// then snapshots, so nothing written after the snapshot is missed. When the
// subscription is lost the error is yielded and, if the consumer keeps
// ranging, Watch subscribes again and yields a fresh snapshot rather than
// replaying what was missed. The sequence ends when ctx is done, the broker
// closes or the consumer stops.
func Watch[S any](ctx context.Context, b Broker, f Filter, snapshot func(context.Context) (S, error)) iter.Seq2[Update[S], error] {
	return func(yield func(Update[S], error) bool) {
		backoff := minResyncBackoff
		for ctx.Err() == nil {
			err := watchOnce(ctx, b, f, snapshot, yield)
			switch {
			case errors.Is(err, errConsumerStopped), ctx.Err() != nil, err == nil:
				return
			case errors.Is(err, ErrClosed):
				yield(Update[S]{}, err)
				return
			}
			if !yield(Update[S]{}, err) {
				return
			}
			if errors.Is(err, ErrLagged) {
				// the broker is healthy; resync right away
				backoff = minResyncBackoff
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxResyncBackoff)
		}
	}
}

var errConsumerStopped = errors.New("consumer stopped")

func watchOnce[S any](ctx context.Context, b Broker, f Filter, snapshot func(context.Context) (S, error), yield func(Update[S], error) bool) error {
	sub, err := b.Subscribe(ctx, f)
	if err != nil {
		return err
	}
	defer sub.Close()

	snap, err := snapshot(ctx)
	if err != nil {
		return err
	}
	if !yield(Update[S]{Resync: true, Snapshot: snap}, nil) {
		return errConsumerStopped
	}
	for ev := range sub.Events() {
		if !yield(Update[S]{Event: ev}, nil) {
			return errConsumerStopped
		}
	}
	return sub.Err()
}

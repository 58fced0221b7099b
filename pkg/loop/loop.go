package loop

import (
	"context"
	"fmt"
	"time"
)

type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop with interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}

	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// continue loop, sleeping interval before the next cycle.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// break loop, with error when err is not nil.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task is one cycle of a loop.
//
// It receives the value the previous cycle returned and decides with
// Next whether the loop goes on.
type Task[T any] func(context.Context, T) (T, Next)

// Start runs task in loop until the task Breaks or ctx is done.
//
// The task is called as task(ctx, init) at first; each later cycle
// receives the value the previous cycle returned. The last value is
// always returned, together with the Break error (nil on Break(nil))
// or ctx.Err() when the context ended the loop.
func Start[T any](ctx context.Context, init T, task Task[T]) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		v, n := task(ctx, value)

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutting down takes priority over the timer
			if !timer.Stop() {
				<-timer.C // drain. see: time.Timer.Stop's document
			}
			return value, ctx.Err()

		case <-timer.C:
			continue
		}
	}
}

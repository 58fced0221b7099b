package recurring

import (
	"context"

	"github.com/SMI/metacat/pkg/loop"
)

// Task is one full pass of a batch task.
type Task func(context.Context) error

// a loop task which executes rt ('rt(ctx)') and p.Next() with the result.
func (rt Task) Applied(p Policy) loop.Task[struct{}] {
	return func(ctx context.Context, _ struct{}) (struct{}, loop.Next) {
		return struct{}{}, p.Next(rt(ctx))
	}
}

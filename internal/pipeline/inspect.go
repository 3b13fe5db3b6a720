package pipeline

import (
	"context"
	"sync"

	"github.com/psantana5/segtime/internal/profile"
)

// InspectFunc observes an entity's complete contents
type InspectFunc func(entity string, contents []byte)

// InspectAsyncFunc observes an entity's complete contents and must call done
// once it has finished with them.
type InspectAsyncFunc func(entity string, contents []byte, done func(error))

// Inspect passes contents through unchanged and calls fn once they are complete
func Inspect(fn InspectFunc) Stage {
	return StageFunc(func(_ context.Context, entity string, in []byte) ([]byte, error) {
		fn(entity, in)
		return in, nil
	})
}

// InspectAsync is Inspect for callbacks that acknowledge through done.
// The stage completes when done is called or ctx ends.
func InspectAsync(fn InspectAsyncFunc) Stage {
	return StageFunc(func(ctx context.Context, entity string, in []byte) ([]byte, error) {
		result := make(chan error, 1)
		var once sync.Once
		fn(entity, in, func(err error) {
			once.Do(func() { result <- err })
		})

		select {
		case err := <-result:
			if err != nil {
				return nil, err
			}
			return in, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Mark records h for each entity reaching this point
func Mark(h profile.Handle) Stage {
	return Inspect(func(entity string, _ []byte) {
		h.Record(entity)
	})
}

// MarkAsync records h through the acknowledging contract
func MarkAsync(h profile.Handle) Stage {
	return InspectAsync(func(entity string, _ []byte, done func(error)) {
		h.RecordAsync(entity, func() { done(nil) })
	})
}

// Profiled opens a segment named key on cat when an entity reaches s.
// The segment runs until the entity's next marker.
func Profiled(cat *profile.Category, key string, s Stage) Stage {
	return Chain(Mark(cat.Start(key)), s)
}

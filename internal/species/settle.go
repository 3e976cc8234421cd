package species

import (
	"context"
	"fmt"
	"sync"
)

// outcome is the settled result of one task.
type outcome[T any] struct {
	value T
	err   error
}

// settleAll runs n tasks concurrently and waits for all of them. A failing or
// panicking task only affects its own slot; results keep the task order.
func settleAll[T any](ctx context.Context, n int, task func(ctx context.Context, i int) (T, error)) []outcome[T] {
	results := make([]outcome[T], n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = outcome[T]{err: fmt.Errorf("task panicked: %v", r)}
				}
			}()

			v, err := task(ctx, i)
			results[i] = outcome[T]{value: v, err: err}
		}(i)
	}
	wg.Wait()

	return results
}

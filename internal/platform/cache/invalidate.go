package cache

import (
	"context"
	"sync"
)

// Invalidator runs registered callbacks after a write so views cached from
// the written data can be dropped. The zero value is ready to use.
type Invalidator struct {
	mu    sync.RWMutex
	hooks []func(ctx context.Context)
}

// OnChange registers fn. It runs synchronously on the writer's context.
func (i *Invalidator) OnChange(fn func(ctx context.Context)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.hooks = append(i.hooks, fn)
}

// Changed runs every registered callback.
func (i *Invalidator) Changed(ctx context.Context) {
	i.mu.RLock()
	hooks := i.hooks
	i.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

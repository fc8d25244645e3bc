package pets

import (
	"context"
	"sync"
)

// RepositoryContext sostiene el backend elegido y le reenvía cada llamada.
// Permite cambiar de backend en caliente (Swap) sin tocar a los callers.
type RepositoryContext struct {
	mu       sync.RWMutex
	strategy Repository
}

var _ Repository = (*RepositoryContext)(nil)

func NewRepositoryContext(strategy Repository) *RepositoryContext {
	return &RepositoryContext{strategy: strategy}
}

// Swap reemplaza el backend y devuelve el anterior.
func (c *RepositoryContext) Swap(next Repository) Repository {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.strategy
	c.strategy = next
	return prev
}

func (c *RepositoryContext) current() Repository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy
}

func (c *RepositoryContext) SourceName() string {
	if s := c.current(); s != nil && s.SourceName() != "" {
		return s.SourceName()
	}
	return "Context"
}

func (c *RepositoryContext) FindAll(ctx context.Context) ([]Pet, error) {
	return c.current().FindAll(ctx)
}

func (c *RepositoryContext) FindByID(ctx context.Context, id string) (Pet, bool, error) {
	return c.current().FindByID(ctx, id)
}

func (c *RepositoryContext) Save(ctx context.Context, p Pet) (Pet, error) {
	return c.current().Save(ctx, p)
}

func (c *RepositoryContext) Update(ctx context.Context, id string, p Pet) error {
	return c.current().Update(ctx, id, p)
}

func (c *RepositoryContext) Delete(ctx context.Context, id string) error {
	return c.current().Delete(ctx, id)
}

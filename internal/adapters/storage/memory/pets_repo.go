package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pet-registry/internal/domain/pets"
)

// PetsRepo es un backend en proceso. Se usa cuando el router no recibe
// repositorio (modo dev) y como backend de reemplazo en tests.
type PetsRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
	now  func() time.Time
	name string
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetRepo() *PetsRepo {
	return NewNamedPetRepo("Memory")
}

// NewNamedPetRepo permite distinguir instancias en diagnósticos/tests.
func NewNamedPetRepo(name string) *PetsRepo {
	return &PetsRepo{
		byID: make(map[string]pets.Pet),
		now:  time.Now,
		name: name,
	}
}

func (r *PetsRepo) SourceName() string { return r.name }

func (r *PetsRepo) FindAll(ctx context.Context) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}

	// Orden estable por dateAdded asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateAdded.Equal(out[j].DateAdded) {
			return out[i].ID < out[j].ID
		}
		return out[i].DateAdded.Before(out[j].DateAdded)
	})

	return out, nil
}

func (r *PetsRepo) FindByID(ctx context.Context, id string) (pets.Pet, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[pets.NormalizeID(id)]
	return p, ok, nil
}

func (r *PetsRepo) Save(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p = pets.PrepareNew(p, r.now())
	if _, exists := r.byID[p.ID]; exists {
		return pets.Pet{}, fmt.Errorf("%w: %s", pets.ErrDuplicateID, p.ID)
	}
	r.byID[p.ID] = p
	return p, nil
}

func (r *PetsRepo) Update(ctx context.Context, id string, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id = pets.NormalizeID(id)
	current, exists := r.byID[id]
	if !exists {
		return nil
	}
	r.byID[id] = pets.ApplyUpdate(current, p, r.now())
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, pets.NormalizeID(id))
	return nil
}

package composite

import (
	"context"
	"errors"
	"time"

	"pet-registry/internal/domain/pets"
	"pet-registry/internal/platform/logger"
)

// PetsRepo orquesta dos backends: primary (archivo, "caliente") y fallback
// (base documental, "fría"). No es dueño de datos.
//
// Lecturas: primary primero; fallback sólo si primary no tiene nada.
// Escrituras: a los dos, primary primero, siempre, sin rollback. Si uno falla
// y el otro no, las copias quedan divergentes; no se detecta ni se corrige.
type PetsRepo struct {
	primary  pets.Repository
	fallback pets.Repository
	log      logger.Logger
	now      func() time.Time
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(primary, fallback pets.Repository, log logger.Logger) *PetsRepo {
	if log == nil {
		log = logger.Nop()
	}
	return &PetsRepo{
		primary:  primary,
		fallback: fallback,
		log:      log.With(map[string]any{"repo": "composite"}),
		now:      time.Now,
	}
}

func (r *PetsRepo) SourceName() string { return "Composite" }

// FindAll no mezcla: si primary tiene al menos un registro, esa es la respuesta.
func (r *PetsRepo) FindAll(ctx context.Context) ([]pets.Pet, error) {
	items, err := r.primary.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	return r.fallback.FindAll(ctx)
}

func (r *PetsRepo) FindByID(ctx context.Context, id string) (pets.Pet, bool, error) {
	p, ok, err := r.primary.FindByID(ctx, id)
	if err != nil {
		return pets.Pet{}, false, err
	}
	if ok {
		return p, true, nil
	}
	return r.fallback.FindByID(ctx, id)
}

// Save asigna id/dateAdded una sola vez para que ambas copias coincidan.
func (r *PetsRepo) Save(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	p = pets.PrepareNew(p, r.now())

	_, errPrimary := r.primary.Save(ctx, p)
	_, errFallback := r.fallback.Save(ctx, p)

	if err := r.joinWriteErrors("save", p.ID, errPrimary, errFallback); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) Update(ctx context.Context, id string, p pets.Pet) error {
	p = pets.StampUpdated(p, r.now())

	errPrimary := r.primary.Update(ctx, id, p)
	errFallback := r.fallback.Update(ctx, id, p)

	return r.joinWriteErrors("update", id, errPrimary, errFallback)
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	errPrimary := r.primary.Delete(ctx, id)
	errFallback := r.fallback.Delete(ctx, id)

	return r.joinWriteErrors("delete", id, errPrimary, errFallback)
}

func (r *PetsRepo) joinWriteErrors(op, id string, errPrimary, errFallback error) error {
	if errPrimary != nil {
		r.log.Error("write failed", map[string]any{"op": op, "id": id, "backend": r.primary.SourceName(), "error": errPrimary.Error()})
	}
	if errFallback != nil {
		r.log.Error("write failed", map[string]any{"op": op, "id": id, "backend": r.fallback.SourceName(), "error": errFallback.Error()})
	}
	return errors.Join(errPrimary, errFallback)
}

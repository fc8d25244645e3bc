package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/spf13/afero"
)

// DefaultPath es donde vive el archivo si no se configura DATA_PATH.
const DefaultPath = "data/pets.json"

var (
	ErrMalformed = errors.New("malformed pets file")
)

// PetsRepo guarda todas las mascotas en un único archivo JSON (array).
// Cada operación lee el set completo, lo modifica en memoria y reescribe el
// archivo entero. El mutex serializa las escrituras dentro del proceso; entre
// procesos distintos no hay lock y la última escritura gana.
type PetsRepo struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu sync.Mutex
}

var _ pets.Repository = (*PetsRepo)(nil)

// NewPetsRepo usa fs (nil => disco real) y path (vacío => DefaultPath).
func NewPetsRepo(fs afero.Fs, path string) *PetsRepo {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = DefaultPath
	}
	return &PetsRepo{
		fs:   fs,
		path: path,
		now:  time.Now,
	}
}

func (r *PetsRepo) SourceName() string { return "JSON" }

func (r *PetsRepo) FindAll(ctx context.Context) ([]pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

func (r *PetsRepo) FindByID(ctx context.Context, id string) (pets.Pet, bool, error) {
	items, err := r.FindAll(ctx)
	if err != nil {
		return pets.Pet{}, false, err
	}
	for _, p := range items {
		if pets.SameID(p.ID, id) {
			return p, true, nil
		}
	}
	return pets.Pet{}, false, nil
}

func (r *PetsRepo) Save(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.readAll()
	if err != nil {
		return pets.Pet{}, err
	}

	p = pets.PrepareNew(p, r.now())
	for _, it := range items {
		if pets.SameID(it.ID, p.ID) {
			return pets.Pet{}, fmt.Errorf("%w: %s", pets.ErrDuplicateID, p.ID)
		}
	}
	items = append(items, p)

	if err := r.writeAll(items); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

// Update reemplaza en su lugar. Si el id no existe no hace nada (ni escribe el
// archivo): el chequeo de existencia es responsabilidad del caller.
func (r *PetsRepo) Update(ctx context.Context, id string, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.readAll()
	if err != nil {
		return err
	}

	for i := range items {
		if pets.SameID(items[i].ID, id) {
			items[i] = pets.ApplyUpdate(items[i], p, r.now())
			return r.writeAll(items)
		}
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.readAll()
	if err != nil {
		return err
	}

	kept := make([]pets.Pet, 0, len(items))
	for _, p := range items {
		if !pets.SameID(p.ID, id) {
			kept = append(kept, p)
		}
	}
	// nada que borrar: no se toca el archivo
	if len(kept) == len(items) {
		return nil
	}
	return r.writeAll(kept)
}

// readAll: archivo inexistente o vacío => set vacío; contenido inválido => error.
func (r *PetsRepo) readAll() ([]pets.Pet, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []pets.Pet{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []pets.Pet{}, nil
	}

	var items []pets.Pet
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, r.path, err)
	}
	if items == nil {
		items = []pets.Pet{}
	}
	return items, nil
}

func (r *PetsRepo) writeAll(items []pets.Pet) error {
	if items == nil {
		items = []pets.Pet{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pets: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." && dir != "" {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(r.fs, r.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

package pets

import (
	"context"
	"errors"
)

// ErrDuplicateID lo devuelve Save cuando el id ya está guardado en el backend.
var ErrDuplicateID = errors.New("pet id already exists")

// Repository es el contrato que cumplen todos los backends (archivo, postgres,
// composite, memoria) y el RepositoryContext.
// Ningún método de lectura falla por "no encontrado": FindByID devuelve ok=false.
type Repository interface {
	SourceName() string

	FindAll(ctx context.Context) ([]Pet, error)
	FindByID(ctx context.Context, id string) (Pet, bool, error)
	// Save respeta un id provisto; si ya existe devuelve ErrDuplicateID.
	Save(ctx context.Context, p Pet) (Pet, error)
	Update(ctx context.Context, id string, p Pet) error
	Delete(ctx context.Context, id string) error
}

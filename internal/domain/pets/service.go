package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-registry/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"source": repo.SourceName()}),
		now:  time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Pet, error) {
	s.log.Info("fetching all pets", nil)

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("error retrieving all pets", map[string]any{"error": err.Error()})
		return nil, err
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (Pet, error) {
	id = NormalizeID(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}

	p, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("error retrieving pet", map[string]any{"id": id, "error": err.Error()})
		return Pet{}, err
	}
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

// Create valida e inserta. id y dateAdded los asigna el backend; lo que venga
// del caller en esos campos se descarta.
func (s *Service) Create(ctx context.Context, in Pet) (Pet, error) {
	in = normalize(in)
	in.ID = ""
	in.DateAdded = time.Time{}
	in.DateUpdated = nil

	if err := Validate(in); err != nil {
		return Pet{}, err
	}

	s.log.Info("creating pet", map[string]any{"name": in.Name, "species": in.Species})

	saved, err := s.repo.Save(ctx, in)
	if err != nil {
		s.log.Error("error creating pet", map[string]any{"error": err.Error()})
		return Pet{}, err
	}

	// Releer para devolver lo que quedó persistido.
	p, ok, err := s.repo.FindByID(ctx, saved.ID)
	if err != nil {
		return Pet{}, err
	}
	if !ok {
		s.log.Warn("created pet not readable back", map[string]any{"id": saved.ID})
		return saved, nil
	}
	return p, nil
}

// Update reemplaza el registro completo. El backend ignora el update si el id no
// existe, así que la existencia se chequea acá y se devuelve ErrNotFound.
func (s *Service) Update(ctx context.Context, id string, in Pet) (Pet, error) {
	id = NormalizeID(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}

	in = normalize(in)
	if err := Validate(in); err != nil {
		return Pet{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	s.log.Info("updating pet", map[string]any{"id": id})

	in.DateUpdated = nil
	next := ApplyUpdate(current, in, s.now())
	if err := s.repo.Update(ctx, id, next); err != nil {
		s.log.Error("error updating pet", map[string]any{"id": id, "error": err.Error()})
		return Pet{}, err
	}

	p, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if !ok {
		return next, nil
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = NormalizeID(id)
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	s.log.Info("deleting pet", map[string]any{"id": id})

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("error deleting pet", map[string]any{"id": id, "error": err.Error()})
		return err
	}
	return nil
}

func normalize(p Pet) Pet {
	p.Name = strings.TrimSpace(p.Name)
	p.Species = strings.TrimSpace(p.Species)
	if p.PhotoURL != nil {
		u := strings.TrimSpace(*p.PhotoURL)
		if u == "" {
			p.PhotoURL = nil
		} else {
			p.PhotoURL = &u
		}
	}
	return p
}

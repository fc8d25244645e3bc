package pets

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinBirthYear es el año de nacimiento más antiguo aceptado.
const MinBirthYear = 1950

// Pet es el único registro persistido. Cada backend guarda su propia copia.
type Pet struct {
	ID string `json:"id"`

	Name      string  `json:"name" validate:"required"`
	Species   string  `json:"species" validate:"required"`
	BirthYear int     `json:"birthYear" validate:"birthyear"`
	Available bool    `json:"available"`
	PhotoURL  *string `json:"photoUrl,omitempty" validate:"omitempty,url"`

	// DateAdded se asigna una sola vez, en Save.
	DateAdded time.Time `json:"dateAdded"`
	// DateUpdated queda nil hasta el primer Update.
	DateUpdated *time.Time `json:"dateUpdated,omitempty"`
}

// NormalizeID deja los ids comparables entre backends.
// UUID válido => forma canónica; cualquier otra cosa => trim + lower.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return strings.ToLower(id)
}

// SameID compara dos ids ya normalizados o no.
func SameID(a, b string) bool {
	return NormalizeID(a) == NormalizeID(b)
}

// PrepareNew completa los campos que asigna la capa de persistencia al crear:
// id (si falta) y dateAdded (si está en cero). dateUpdated siempre queda vacío.
// Es idempotente: el composite lo llama antes del dual-write para que ambos
// backends reciban el mismo id.
func PrepareNew(p Pet, now time.Time) Pet {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	} else {
		p.ID = NormalizeID(p.ID)
	}
	if p.DateAdded.IsZero() {
		p.DateAdded = now.UTC()
	}
	p.DateUpdated = nil
	return p
}

// ApplyUpdate arma el registro de reemplazo: conserva id y dateAdded del actual
// y marca dateUpdated (el que traiga incoming, o now).
func ApplyUpdate(current, incoming Pet, now time.Time) Pet {
	out := incoming
	out.ID = current.ID
	out.DateAdded = current.DateAdded
	out.DateUpdated = StampUpdated(incoming, now).DateUpdated
	return out
}

// StampUpdated setea dateUpdated si todavía no viene seteado.
func StampUpdated(p Pet, now time.Time) Pet {
	if p.DateUpdated == nil {
		t := now.UTC()
		p.DateUpdated = &t
	}
	return p
}

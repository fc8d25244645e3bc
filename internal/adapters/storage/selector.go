package storage

import (
	"errors"
	"fmt"
	"strings"

	"pet-registry/internal/adapters/storage/composite"
	"pet-registry/internal/adapters/storage/jsonfile"
	"pet-registry/internal/adapters/storage/postgres"
	"pet-registry/internal/domain/pets"
	"pet-registry/internal/platform/logger"

	"github.com/spf13/afero"
)

// Topology es qué backend(s) quedan activos.
type Topology string

const (
	FileOnly      Topology = "file-only"
	NetworkedOnly Topology = "networked-only"
	Composite     Topology = "composite"
)

var (
	ErrUnknownTopology = errors.New("unknown repository type")
	ErrMissingEndpoint = errors.New("database endpoint required for networked-only topology")
)

// ParseTopology acepta los nombres nuevos y los históricos (json, db, db_json).
// Vacío => file-only.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file-only", "json":
		return FileOnly, nil
	case "networked-only", "db":
		return NetworkedOnly, nil
	case "composite", "db_json":
		return Composite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTopology, s)
	}
}

// RequiresDatabase: la base es el único backend, sin archivo de respaldo.
func (t Topology) RequiresDatabase() bool { return t == NetworkedOnly }

// UsesDatabase: hay un backend de red en la topología.
func (t Topology) UsesDatabase() bool { return t == NetworkedOnly || t == Composite }

type Options struct {
	// Backend de archivo
	Fs       afero.Fs // nil => disco
	DataPath string   // vacío => jsonfile.DefaultPath

	// Backend de red. Conn es del caller (lo cierra él).
	Conn *postgres.Conn
	DSN  string

	Logger logger.Logger
}

// NewRepository es el único punto que decide la topología.
func NewRepository(t Topology, opts Options) (pets.Repository, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	switch t {
	case FileOnly:
		return jsonfile.NewPetsRepo(opts.Fs, opts.DataPath), nil

	case NetworkedOnly:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, ErrMissingEndpoint
		}
		if opts.Conn == nil {
			return nil, errors.New("networked-only topology requires a connection manager")
		}
		return postgres.NewPetsRepo(opts.Conn, log), nil

	case Composite:
		if opts.Conn == nil {
			return nil, errors.New("composite topology requires a connection manager")
		}
		return composite.NewPetsRepo(
			jsonfile.NewPetsRepo(opts.Fs, opts.DataPath),
			postgres.NewPetsRepo(opts.Conn, log),
			log,
		), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopology, string(t))
	}
}

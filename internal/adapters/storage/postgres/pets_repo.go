package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-registry/internal/domain/pets"
	"pet-registry/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgconn"
)

// PetsRepo guarda cada mascota como documento JSONB en la tabla de la colección.
// Si Conn no puede dar una conexión, todas las operaciones degradan: FindAll
// devuelve vacío, FindByID ausente y las escrituras no hacen nada. Sin error.
type PetsRepo struct {
	conn *Conn
	log  logger.Logger
	now  func() time.Time
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(conn *Conn, log logger.Logger) *PetsRepo {
	if log == nil {
		log = logger.Nop()
	}
	return &PetsRepo{
		conn: conn,
		log:  log.With(map[string]any{"repo": "postgres"}),
		now:  time.Now,
	}
}

func (r *PetsRepo) SourceName() string { return "Postgres" }

// withCollection resuelve db + tabla. ok=false => sin conexión, degradar.
func (r *PetsRepo) withCollection(ctx context.Context) (*sql.DB, string, bool) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		r.log.Warn("unable to connect to database; operations will be limited", map[string]any{"error": err.Error()})
		return nil, "", false
	}
	table, err := tableName(r.conn.Collection())
	if err != nil {
		r.log.Error("invalid collection", map[string]any{"error": err.Error()})
		return nil, "", false
	}
	return db, table, true
}

func (r *PetsRepo) FindAll(ctx context.Context) ([]pets.Pet, error) {
	db, table, ok := r.withCollection(ctx)
	if !ok {
		return []pets.Pet{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, doc
		FROM `+table+`
		ORDER BY (doc->>'dateAdded')::timestamptz ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		p, err := decodeDoc(id, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *PetsRepo) FindByID(ctx context.Context, id string) (pets.Pet, bool, error) {
	id = pets.NormalizeID(id)
	if id == "" {
		return pets.Pet{}, false, nil
	}

	db, table, ok := r.withCollection(ctx)
	if !ok {
		return pets.Pet{}, false, nil
	}

	var doc []byte
	err := db.QueryRowContext(ctx, `SELECT doc FROM `+table+` WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, false, nil
		}
		return pets.Pet{}, false, err
	}

	p, err := decodeDoc(id, doc)
	if err != nil {
		return pets.Pet{}, false, err
	}
	return p, true, nil
}

func (r *PetsRepo) Save(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	p = pets.PrepareNew(p, r.now())

	db, table, ok := r.withCollection(ctx)
	if !ok {
		return p, nil
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return pets.Pet{}, fmt.Errorf("encode pet: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO `+table+` (id, doc) VALUES ($1, $2::jsonb)`, p.ID, string(doc))
	if err != nil {
		if isUniqueViolation(err) {
			return pets.Pet{}, fmt.Errorf("%w: %s", pets.ErrDuplicateID, p.ID)
		}
		return pets.Pet{}, err
	}
	return p, nil
}

// Update mezcla el documento nuevo sobre el guardado, sin id ni dateAdded
// (inmutables). Si el id no existe no afecta filas y no es error.
func (r *PetsRepo) Update(ctx context.Context, id string, p pets.Pet) error {
	id = pets.NormalizeID(id)

	db, table, ok := r.withCollection(ctx)
	if !ok {
		return nil
	}

	patch, err := updateDoc(pets.StampUpdated(p, r.now()))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE `+table+` SET doc = doc || $2::jsonb WHERE id = $1`, id, string(patch))
	return err
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	id = pets.NormalizeID(id)

	db, table, ok := r.withCollection(ctx)
	if !ok {
		return nil
	}

	_, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	return err
}

func decodeDoc(id string, doc []byte) (pets.Pet, error) {
	var p pets.Pet
	if err := json.Unmarshal(doc, &p); err != nil {
		return pets.Pet{}, fmt.Errorf("decode pet %s: %w", id, err)
	}
	// la fila manda sobre el campo del documento
	p.ID = id
	return p, nil
}

// updateDoc arma el $set: todo el documento menos id y dateAdded. photoUrl va
// siempre (null incluido) para que el merge pueda limpiarla.
func updateDoc(p pets.Pet) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode pet: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode pet: %w", err)
	}
	delete(m, "id")
	delete(m, "dateAdded")
	if p.PhotoURL == nil {
		m["photoUrl"] = nil
	}

	return json.Marshal(m)
}

// SQLSTATE de unique_violation
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

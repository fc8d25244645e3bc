package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableConn() *Conn {
	return NewConn(ConnOptions{Dial: func(ctx context.Context) (*sql.DB, error) {
		return nil, errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	}})
}

func TestPetsRepo_DegradesWithoutConnection(t *testing.T) {
	ctx := context.Background()
	r := NewPetsRepo(unreachableConn(), nil)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)

	_, ok, err := r.FindByID(ctx, "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00")
	require.NoError(t, err)
	assert.False(t, ok)

	saved, err := r.Save(ctx, pets.Pet{Name: "Rex", Species: "Dog", BirthYear: 2020})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	require.NoError(t, r.Update(ctx, saved.ID, saved))
	require.NoError(t, r.Delete(ctx, saved.ID))
}

func TestUpdateDoc_StripsImmutableFields(t *testing.T) {
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	p := pets.Pet{
		ID:          "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00",
		Name:        "Rex",
		Species:     "Dog",
		BirthYear:   2020,
		Available:   false,
		DateAdded:   now.Add(-time.Hour),
		DateUpdated: &now,
	}

	b, err := updateDoc(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "dateAdded")
	assert.Contains(t, m, "photoUrl")
	assert.Nil(t, m["photoUrl"])
	assert.Equal(t, false, m["available"])
	assert.Equal(t, "2024-05-02T00:00:00Z", m["dateUpdated"])
}

func TestTableName(t *testing.T) {
	name, err := tableName("pets")
	require.NoError(t, err)
	assert.Equal(t, `"pets"`, name)

	name, err = tableName(`we"ird`)
	require.NoError(t, err)
	assert.Equal(t, `"we""ird"`, name)

	_, err = tableName("  ")
	require.Error(t, err)
}

// Contra un Postgres real: TEST_DB_DSN=postgres://... go test ./...
func TestPetsRepo_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	collection := fmt.Sprintf("pets_test_%d", time.Now().UnixNano())
	conn := NewConn(ConnOptions{DSN: dsn, Collection: collection})
	defer conn.Close()
	require.NoError(t, conn.Require(ctx))

	t.Cleanup(func() {
		db, err := conn.DB(context.Background())
		if err == nil {
			_, _ = db.Exec(`DROP TABLE IF EXISTS ` + collection)
		}
	})

	r := NewPetsRepo(conn, nil)

	saved, err := r.Save(ctx, pets.Pet{Name: "Rex", Species: "Dog", BirthYear: 2020, Available: true})
	require.NoError(t, err)

	_, err = r.Save(ctx, pets.Pet{ID: saved.ID, Name: "Other", Species: "Cat", BirthYear: 2019})
	require.ErrorIs(t, err, pets.ErrDuplicateID)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].DateUpdated)

	changed := all[0]
	changed.Available = false
	changed.ID = "ignored"
	require.NoError(t, r.Update(ctx, saved.ID, changed))

	got, ok, err := r.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.Available)
	assert.Equal(t, saved.ID, got.ID)
	require.NotNil(t, got.DateUpdated)
	assert.True(t, got.DateAdded.Equal(saved.DateAdded))

	require.NoError(t, r.Update(ctx, "missing", changed))
	require.NoError(t, r.Delete(ctx, saved.ID))
	require.NoError(t, r.Delete(ctx, saved.ID))

	all, err = r.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// orden cronológico aunque cambie la cantidad de decimales
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = r.Save(ctx, pets.Pet{Name: "Later", Species: "Dog", BirthYear: 2020, DateAdded: base.Add(500 * time.Millisecond)})
	require.NoError(t, err)
	_, err = r.Save(ctx, pets.Pet{Name: "Earlier", Species: "Dog", BirthYear: 2020, DateAdded: base})
	require.NoError(t, err)

	all, err = r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Earlier", all[0].Name)
	assert.Equal(t, "Later", all[1].Name)
}

package memory

import (
	"context"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPetsRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewPetRepo()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	r.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	a, err := r.Save(ctx, pets.Pet{Name: "Rex", Species: "Dog", BirthYear: 2020})
	require.NoError(t, err)
	b, err := r.Save(ctx, pets.Pet{Name: "Tom", Species: "Cat", BirthYear: 2019})
	require.NoError(t, err)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	require.NoError(t, r.Update(ctx, a.ID, pets.Pet{Name: "Rex II", Species: "Dog", BirthYear: 2020}))
	got, ok, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rex II", got.Name)
	assert.True(t, got.DateAdded.Equal(a.DateAdded))
	require.NotNil(t, got.DateUpdated)

	// update sobre id inexistente: no-op
	require.NoError(t, r.Update(ctx, "missing", pets.Pet{Name: "X"}))
	all, _ = r.FindAll(ctx)
	assert.Len(t, all, 2)

	require.NoError(t, r.Delete(ctx, b.ID))
	require.NoError(t, r.Delete(ctx, b.ID))
	_, ok, _ = r.FindByID(ctx, b.ID)
	assert.False(t, ok)
}

func TestPetsRepo_SaveRejectsStoredID(t *testing.T) {
	ctx := context.Background()
	r := NewPetRepo()

	first, err := r.Save(ctx, pets.Pet{ID: "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00", Name: "Rex"})
	require.NoError(t, err)

	_, err = r.Save(ctx, pets.Pet{ID: first.ID, Name: "Other"})
	require.ErrorIs(t, err, pets.ErrDuplicateID)

	got, ok, err := r.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rex", got.Name)
}

func TestNewNamedPetRepo(t *testing.T) {
	assert.Equal(t, "Memory", NewPetRepo().SourceName())
	assert.Equal(t, "primary", NewNamedPetRepo("primary").SourceName())
}

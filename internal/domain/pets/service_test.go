package pets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	name    string
	byID    map[string]Pet
	updates int
	deletes int
	failAll error
}

func newTestRepo(name string) *testRepo {
	return &testRepo{name: name, byID: map[string]Pet{}}
}

func (r *testRepo) SourceName() string { return r.name }

func (r *testRepo) FindAll(ctx context.Context) ([]Pet, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *testRepo) FindByID(ctx context.Context, id string) (Pet, bool, error) {
	p, ok := r.byID[NormalizeID(id)]
	return p, ok, nil
}

func (r *testRepo) Save(ctx context.Context, p Pet) (Pet, error) {
	p = PrepareNew(p, time.Now())
	r.byID[p.ID] = p
	return p, nil
}

func (r *testRepo) Update(ctx context.Context, id string, p Pet) error {
	r.updates++
	cur, ok := r.byID[id]
	if !ok {
		return nil
	}
	r.byID[id] = ApplyUpdate(cur, p, time.Now())
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.deletes++
	delete(r.byID, id)
	return nil
}

func validPet() Pet {
	return Pet{Name: " Fluffy ", Species: "Cat", BirthYear: 2015, Available: true}
}

func TestService_CreateAssignsIdentityAndTrims(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo("test"), nil)

	in := validPet()
	in.ID = "caller-chosen"
	in.DateAdded = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, "caller-chosen", p.ID)
	assert.Equal(t, "Fluffy", p.Name)
	assert.True(t, p.DateAdded.After(in.DateAdded))
	assert.Nil(t, p.DateUpdated)
}

func TestService_CreateRejectsInvalidPet(t *testing.T) {
	svc := NewService(newTestRepo("test"), nil)

	bad := "not a url"
	_, err := svc.Create(context.Background(), Pet{Name: "  ", BirthYear: 1900, PhotoURL: &bad})
	require.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	props := map[string]string{}
	for _, f := range verr.Fields {
		props[f.Property] = f.Constraint
	}
	assert.Equal(t, "required", props["name"])
	assert.Equal(t, "required", props["species"])
	assert.Equal(t, "gte", props["birthYear"])
	assert.Equal(t, "url", props["photoUrl"])
}

func TestValidate_BirthYearLowerBound(t *testing.T) {
	p := validPet()
	p.BirthYear = MinBirthYear
	require.NoError(t, Validate(p))

	p.BirthYear = MinBirthYear - 1
	err := Validate(p)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "birthYear", verr.Fields[0].Property)
	assert.Equal(t, "gte", verr.Fields[0].Constraint)
	assert.Equal(t, "birthYear must not be less than 1950", verr.Fields[0].Message)
}

func TestService_GetMissingIsNotFound(t *testing.T) {
	svc := NewService(newTestRepo("test"), nil)

	_, err := svc.Get(context.Background(), "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_UpdateStampsAndPreserves(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo("test"), nil)

	created, err := svc.Create(ctx, validPet())
	require.NoError(t, err)

	in := created
	in.Available = false
	in.DateAdded = time.Time{}

	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.False(t, updated.Available)
	assert.True(t, updated.DateAdded.Equal(created.DateAdded))
	require.NotNil(t, updated.DateUpdated)
}

func TestService_UpdateMissingIsNotFoundAndSkipsRepo(t *testing.T) {
	repo := newTestRepo("test")
	svc := NewService(repo, nil)

	_, err := svc.Update(context.Background(), "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00", validPet())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, repo.updates)
}

func TestService_DeleteMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo("test")
	svc := NewService(repo, nil)

	require.ErrorIs(t, svc.Delete(ctx, "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00"), ErrNotFound)
	assert.Equal(t, 0, repo.deletes)

	created, err := svc.Create(ctx, validPet())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, 1, repo.deletes)
}

func TestService_ListPropagatesErrors(t *testing.T) {
	repo := newTestRepo("test")
	repo.failAll = errors.New("malformed")
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background())
	require.EqualError(t, err, "malformed")
}

func TestRepositoryContext_ForwardsAndSwaps(t *testing.T) {
	ctx := context.Background()
	a := newTestRepo("A")
	b := newTestRepo("B")

	rc := NewRepositoryContext(a)
	assert.Equal(t, "A", rc.SourceName())

	saved, err := rc.Save(ctx, validPet())
	require.NoError(t, err)
	_, ok, _ := a.FindByID(ctx, saved.ID)
	assert.True(t, ok)

	prev := rc.Swap(b)
	assert.Same(t, a, prev)
	assert.Equal(t, "B", rc.SourceName())

	_, ok, err = rc.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := rc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	rc.Swap(newTestRepo(""))
	assert.Equal(t, "Context", rc.SourceName())
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "3f2a4a6e-2f55-4d8a-9a43-5b1c1f1d7c00", NormalizeID(" 3F2A4A6E-2F55-4D8A-9A43-5B1C1F1D7C00 "))
	assert.Equal(t, "abc", NormalizeID(" ABC "))
	assert.True(t, SameID("ABC", "abc"))
}

func TestPrepareNewAndApplyUpdate(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	p := PrepareNew(Pet{Name: "Rex"}, now)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.DateAdded.Equal(now))
	assert.Nil(t, p.DateUpdated)

	again := PrepareNew(p, now.Add(time.Hour))
	assert.Equal(t, p.ID, again.ID)
	assert.True(t, again.DateAdded.Equal(now))

	later := now.Add(2 * time.Hour)
	u := ApplyUpdate(p, Pet{ID: "x", Name: "Max"}, later)
	assert.Equal(t, p.ID, u.ID)
	assert.True(t, u.DateAdded.Equal(now))
	require.NotNil(t, u.DateUpdated)
	assert.True(t, u.DateUpdated.Equal(later))
	assert.Equal(t, "Max", u.Name)
}

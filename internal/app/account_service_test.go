package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacher_timetable/internal/domain/timetable"
	"teacher_timetable/internal/domain/user"
)

func TestRegisterTeacherCreatesGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.accounts.Register(ctx, NewAccount{Name: "Cara", Email: " Cara@School.edu ", Password: "password123", Role: "Teacher", TelegramID: 55})
	require.NoError(t, err)
	assert.Equal(t, "cara@school.edu", u.Email)
	assert.Equal(t, user.RoleTeacher, u.Role)
	assert.NotEqual(t, "password123", string(u.PasswordHash))

	g, err := f.grids.Get(ctx, "cara@school.edu")
	require.NoError(t, err)
	assert.Len(t, g.Week, len(timetable.Days))
}

func TestRegisterAdminHasNoGrid(t *testing.T) {
	f := newFixture(t)
	_, err := f.grids.Get(context.Background(), adminActor.Email)
	assert.ErrorIs(t, err, timetable.ErrGridNotFound)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, NewAccount{Name: "Ann again", Email: "ANN@school.edu", Password: "password123", Role: "teacher"})
	requireKind(t, err, KindDuplicateKey)

	_, err = f.accounts.Register(ctx, NewAccount{Name: "X", Email: "not-an-email", Password: "password123", Role: "teacher"})
	requireKind(t, err, KindValidation)

	_, err = f.accounts.Register(ctx, NewAccount{Name: "X", Email: "x@school.edu", Password: "short", Role: "teacher"})
	requireKind(t, err, KindValidation)

	_, err = f.accounts.Register(ctx, NewAccount{Name: "X", Email: "x@school.edu", Password: "password123", Role: "student"})
	requireKind(t, err, KindValidation)
}

func TestRegisterTeacherWithExistingGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.grids.Create(ctx, timetable.NewGrid("orphan@school.edu")))

	_, err := f.accounts.Register(ctx, NewAccount{Name: "O", Email: "orphan@school.edu", Password: "password123", Role: "teacher"})
	requireKind(t, err, KindDuplicateKey)

	_, err = f.users.GetByEmail(ctx, "orphan@school.edu")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRegisterRejectsLinkedTelegramID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, NewAccount{Name: "Cara", Email: "cara@school.edu", Password: "password123", Role: "teacher", TelegramID: 42})
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, NewAccount{Name: "Dan", Email: "dan@school.edu", Password: "password123", Role: "teacher", TelegramID: 42})
	requireKind(t, err, KindDuplicateKey)
	assert.Contains(t, ReasonOf(err), "telegram")
	assert.NotContains(t, ReasonOf(err), "email")

	_, err = f.users.GetByEmail(ctx, "dan@school.edu")
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = f.grids.Get(ctx, "dan@school.edu")
	assert.ErrorIs(t, err, timetable.ErrGridNotFound)

	linked, err := f.users.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "cara@school.edu", linked.Email)
}

// racingGrids reports no grid on lookup but refuses creation, as when
// another registration wins the race between the two calls.
type racingGrids struct {
	timetable.Repository
}

func (racingGrids) Get(context.Context, string) (*timetable.Grid, error) {
	return nil, timetable.ErrGridNotFound
}

func (racingGrids) Create(context.Context, *timetable.Grid) error {
	return timetable.ErrGridExists
}

func TestRegisterRollsBackAccountWhenGridCreationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grids := racingGrids{Repository: f.grids}
	accounts := NewAccountService(f.users, grids, NewTimetableService(grids, f.policy, quietLogger()), f.policy, quietLogger())

	_, err := accounts.Register(ctx, NewAccount{Name: "Eve", Email: "eve@school.edu", Password: "password123", Role: "teacher", TelegramID: 77})
	requireKind(t, err, KindDuplicateKey)
	assert.True(t, errors.Is(err, timetable.ErrGridExists))

	_, err = f.users.GetByEmail(ctx, "eve@school.edu")
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = f.users.GetByTelegramID(ctx, 77)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.accounts.Authenticate(ctx, " ann@school.edu", "password123")
	require.NoError(t, err)
	assert.Equal(t, teacherActor.Email, u.Email)

	_, err = f.accounts.Authenticate(ctx, "ann@school.edu", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.accounts.Authenticate(ctx, "nobody@school.edu", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListTeachers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teachers, err := f.accounts.ListTeachers(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, teacherActor.Email, teachers[0].Email)

	_, err = f.accounts.ListTeachers(ctx, teacherActor)
	requireKind(t, err, KindForbidden)
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	u, err := f.accounts.Lookup(context.Background(), adminActor.Email)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)

	_, err = f.accounts.Lookup(context.Background(), "nobody@school.edu")
	requireKind(t, err, KindNotFound)
}

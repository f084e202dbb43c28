package memory

import (
	"context"
	"sort"
	"sync"

	"teacher_timetable/internal/domain/timetable"
)

// TimetableRepository keeps grids in a map keyed by teacher email.
// Every read and write goes through Clone so callers never share state.
type TimetableRepository struct {
	mutex sync.RWMutex
	grids map[string]*timetable.Grid
}

func NewTimetableRepository() *TimetableRepository {
	return &TimetableRepository{grids: make(map[string]*timetable.Grid)}
}

func (r *TimetableRepository) Create(_ context.Context, grid *timetable.Grid) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.grids[grid.TeacherEmail]; ok {
		return timetable.ErrGridExists
	}
	stored := grid.Clone()
	stored.Normalize()
	r.grids[grid.TeacherEmail] = stored
	return nil
}

func (r *TimetableRepository) Get(_ context.Context, teacherEmail string) (*timetable.Grid, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	g, ok := r.grids[teacherEmail]
	if !ok {
		return nil, timetable.ErrGridNotFound
	}
	return g.Clone(), nil
}

func (r *TimetableRepository) List(_ context.Context) ([]*timetable.Grid, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*timetable.Grid, 0, len(r.grids))
	for _, g := range r.grids {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherEmail < out[j].TeacherEmail })
	return out, nil
}

// Mutate holds the write lock for the whole read-modify-write.
func (r *TimetableRepository) Mutate(_ context.Context, teacherEmail string, fn func(*timetable.Grid) error) (*timetable.Grid, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, ok := r.grids[teacherEmail]
	if !ok {
		return nil, timetable.ErrGridNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Normalize()
	r.grids[teacherEmail] = working
	return working.Clone(), nil
}

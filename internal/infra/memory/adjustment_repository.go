package memory

import (
	"context"
	"sort"
	"sync"

	"teacher_timetable/internal/domain/adjustment"
)

type AdjustmentRepository struct {
	mutex sync.RWMutex
	db    map[string]*adjustment.Request
}

func NewAdjustmentRepository() *AdjustmentRepository {
	return &AdjustmentRepository{db: make(map[string]*adjustment.Request)}
}

// query returns copies matching keep, oldest first. Caller holds the lock.
func (r *AdjustmentRepository) query(keep func(*adjustment.Request) bool) []*adjustment.Request {
	out := make([]*adjustment.Request, 0, len(r.db))
	for _, req := range r.db {
		if keep(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *AdjustmentRepository) Create(_ context.Context, req *adjustment.Request) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.db[req.ID] = req.Clone()
	return nil
}

func (r *AdjustmentRepository) GetByID(_ context.Context, id string) (*adjustment.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	req, ok := r.db[id]
	if !ok {
		return nil, adjustment.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *AdjustmentRepository) ListAll(_ context.Context) ([]*adjustment.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.query(func(*adjustment.Request) bool { return true }), nil
}

func (r *AdjustmentRepository) ListByStatus(_ context.Context, statuses ...adjustment.Status) ([]*adjustment.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.query(func(req *adjustment.Request) bool {
		for _, s := range statuses {
			if req.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *AdjustmentRepository) ListByTeacher(_ context.Context, teacherEmail string) ([]*adjustment.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.query(func(req *adjustment.Request) bool { return req.TeacherEmail == teacherEmail }), nil
}

func (r *AdjustmentRepository) Update(_ context.Context, id string, fn func(*adjustment.Request) error) (*adjustment.Request, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, ok := r.db[id]
	if !ok {
		return nil, adjustment.ErrNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	r.db[id] = working
	return working.Clone(), nil
}

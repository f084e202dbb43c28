package memory

import (
	"context"
	"sync"

	"teacher_timetable/internal/domain/message"
)

type MessageRepository struct {
	mutex sync.RWMutex
	db    map[string]*message.Message
	order []string // insertion order
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{db: make(map[string]*message.Message)}
}

func (r *MessageRepository) Create(_ context.Context, m *message.Message) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cp := *m
	if _, ok := r.db[m.ID]; !ok {
		r.order = append(r.order, m.ID)
	}
	r.db[m.ID] = &cp
	return nil
}

func (r *MessageRepository) GetByID(_ context.Context, id string) (*message.Message, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	m, ok := r.db[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MessageRepository) ListAll(_ context.Context) ([]*message.Message, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*message.Message, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.db[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, id string) (*message.Message, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	m, ok := r.db[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	m.Read = true
	cp := *m
	return &cp, nil
}

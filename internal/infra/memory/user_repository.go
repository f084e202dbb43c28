package memory

import (
	"context"
	"sort"
	"sync"

	"teacher_timetable/internal/domain/user"
)

type UserRepository struct {
	mutex sync.RWMutex
	db    map[string]*user.User // keyed by email
}

func NewUserRepository() *UserRepository {
	return &UserRepository{db: make(map[string]*user.User)}
}

func copyUser(u *user.User) *user.User {
	cp := *u
	cp.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &cp
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.db[u.Email]; ok {
		return user.ErrEmailTaken
	}
	if u.TelegramID != 0 {
		for _, existing := range r.db {
			if existing.TelegramID == u.TelegramID {
				return user.ErrTelegramIDTaken
			}
		}
	}
	r.db[u.Email] = copyUser(u)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, email string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.db[email]; !ok {
		return user.ErrNotFound
	}
	delete(r.db, email)
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if u, ok := r.db[email]; ok {
		return copyUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) GetByTelegramID(_ context.Context, telegramID int64) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if telegramID != 0 {
		for _, u := range r.db {
			if u.TelegramID == telegramID {
				return copyUser(u), nil
			}
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) ListByRole(_ context.Context, role user.Role) ([]*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*user.User, 0)
	for _, u := range r.db {
		if u.Role == role {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

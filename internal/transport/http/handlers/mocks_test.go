package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

// memUserRepo is an in-memory port.UserRepository used to drive the
// HTTP handlers end to end.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return errors.New("duplicate id")
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copy := user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copy := user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) GetByVerificationChallenge(_ context.Context, email, codeHash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email != email || user.EmailVerificationCode == nil || user.EmailVerificationExpires == nil {
			continue
		}
		if *user.EmailVerificationCode == codeHash && user.EmailVerificationExpires.After(now) {
			copy := user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	return r.mutate(id, func(user *domain.User) {
		user.IsActive = true
		user.IsEmailVerified = true
		user.EmailVerificationCode = nil
		user.EmailVerificationExpires = nil
	})
}

func (r *memUserRepo) SetVerificationChallenge(_ context.Context, id, codeHash string, expires time.Time) error {
	return r.mutate(id, func(user *domain.User) {
		user.EmailVerificationCode = &codeHash
		user.EmailVerificationExpires = &expires
	})
}

func (r *memUserRepo) RecordLogin(_ context.Context, id, refreshTokenHash string, at time.Time) error {
	return r.mutate(id, func(user *domain.User) {
		user.RefreshTokenHash = &refreshTokenHash
		user.LastLogin = &at
	})
}

func (r *memUserRepo) SetRefreshToken(_ context.Context, id, refreshTokenHash string) error {
	return r.mutate(id, func(user *domain.User) {
		user.RefreshTokenHash = &refreshTokenHash
	})
}

func (r *memUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	return r.mutate(id, func(user *domain.User) {
		user.RefreshTokenHash = nil
	})
}

func (r *memUserRepo) Update(_ context.Context, id string, patch port.UserPatch) (*domain.User, error) {
	err := r.mutate(id, func(user *domain.User) {
		if patch.Fullname != nil {
			user.Fullname = *patch.Fullname
		}
		if patch.Phone != nil {
			user.Phone = *patch.Phone
		}
		if patch.Address != nil {
			user.Address = patch.Address
		}
		if patch.AvatarURL != nil {
			user.AvatarURL = *patch.AvatarURL
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(context.Background(), id)
}

func (r *memUserRepo) List(_ context.Context, _ port.UserFilter) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, len(users), nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&user)
	r.users[id] = user
	return nil
}

// captureMailer records verification codes instead of sending mail.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string][]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string][]string)}
}

func (m *captureMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = append(m.codes[to], code)
	return nil
}

func (m *captureMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sent := m.codes[to]; len(sent) > 0 {
		return sent[len(sent)-1]
	}
	return ""
}

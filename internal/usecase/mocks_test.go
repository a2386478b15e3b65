package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

// fakeUserRepo is an in-memory port.UserRepository with the same
// single-row semantics as the PostgreSQL implementation.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return errors.New("duplicate id")
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copy := user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
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

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) GetByVerificationChallenge(_ context.Context, email, codeHash string, now time.Time) (*domain.User, error) {
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

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = true
	user.IsEmailVerified = true
	user.EmailVerificationCode = nil
	user.EmailVerificationExpires = nil
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) SetVerificationChallenge(_ context.Context, id, codeHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerificationCode = &codeHash
	user.EmailVerificationExpires = &expires
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) RecordLogin(_ context.Context, id, refreshTokenHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshTokenHash = &refreshTokenHash
	user.LastLogin = &at
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id, refreshTokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshTokenHash = &refreshTokenHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshTokenHash = nil
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, id string, patch port.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Fullname != nil {
		user.Fullname = *patch.Fullname
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Address != nil {
		addr := *patch.Address
		user.Address = &addr
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	r.users[id] = user
	copy := user
	return &copy, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsEmailVerified != nil && user.IsEmailVerified != *filter.IsEmailVerified {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(user.Fullname), strings.ToLower(filter.Search)) &&
			!strings.Contains(user.Email, strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// fakeMailer records sent codes and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sent  map[string][]string
	fail  error
	calls int
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(map[string][]string)}
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	m.sent[to] = append(m.sent[to], code)
	return nil
}

func (m *fakeMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.sent[to]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

// fakePetRepo is an in-memory port.PetRepository.
type fakePetRepo struct {
	mu   sync.Mutex
	pets map[string]domain.Pet
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{pets: make(map[string]domain.Pet)}
}

func (r *fakePetRepo) Create(_ context.Context, pet domain.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets[pet.ID] = pet
	return nil
}

func (r *fakePetRepo) GetByID(_ context.Context, id string) (*domain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pet, ok := r.pets[id]; ok {
		copy := pet
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakePetRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pets []domain.Pet
	for _, pet := range r.pets {
		if pet.OwnerID == ownerID {
			pets = append(pets, pet)
		}
	}
	return pets, nil
}

// fakeAvatarStorage records uploads and deletions.
type fakeAvatarStorage struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	failUp   error
	baseURL  string
	consumed []byte
}

func newFakeAvatarStorage() *fakeAvatarStorage {
	return &fakeAvatarStorage{baseURL: "https://cdn.test"}
}

func (s *fakeAvatarStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUp != nil {
		return "", s.failUp
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.consumed = data
	s.uploads = append(s.uploads, key)
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func (s *fakeAvatarStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	return nil
}

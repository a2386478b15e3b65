package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

// maxAvatarSize caps avatar uploads at 5 MB.
const maxAvatarSize = 5 << 20

var (
	// ErrNoUpdateData indicates a profile patch carried no changes.
	ErrNoUpdateData = errors.New("no valid update data provided")
	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")
	// ErrCannotDeleteSelf indicates an admin attempted to delete their
	// own account.
	ErrCannotDeleteSelf = errors.New("cannot delete yourself")
	// ErrFileRequired indicates an upload endpoint received no file.
	ErrFileRequired = errors.New("file required")
	// ErrOnlyImages indicates a non-image upload was rejected.
	ErrOnlyImages = errors.New("only image files are allowed")
	// ErrFileTooLarge indicates the upload exceeds the size cap.
	ErrFileTooLarge = errors.New("file size cannot exceed 5MB")
)

// AvatarUpload describes an incoming avatar file.
type AvatarUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// UserService manages profiles and administrative user operations.
type UserService struct {
	users   port.UserRepository
	avatars port.AvatarStorage
	log     *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository, avatars port.AvatarStorage, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, avatars: avatars, log: log}
}

// UpdateProfile applies a partial patch to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch port.UserPatch) (domain.User, error) {
	// Role changes go through UpdateRole, never self-service.
	patch.Role = nil
	if patch.Empty() {
		return domain.User{}, ErrNoUpdateData
	}

	updated, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}

	return updated.Sanitized(), nil
}

// GetUser loads a single user by identifier.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user.Sanitized(), nil
}

// ListMeta describes the pagination envelope returned with listings.
type ListMeta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"total"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListUsers returns a page of users matching the filter. Page and limit
// are clamped to sane bounds.
func (s *UserService) ListUsers(ctx context.Context, filter port.UserFilter) ([]domain.User, ListMeta, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		users[i] = users[i].Sanitized()
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	meta := ListMeta{
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: filter.Page < totalPages,
		HasPrevPage: filter.Page > 1,
	}
	return users, meta, nil
}

// UpdateRole changes a user's role. Restricted to admins at the
// transport layer.
func (s *UserService) UpdateRole(ctx context.Context, userID string, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}

	updated, err := s.users.Update(ctx, userID, port.UserPatch{Role: &role})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update role: %w", err)
	}

	return updated.Sanitized(), nil
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.User, userID string) error {
	if actor.ID == userID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// UpdateAvatar uploads a new avatar image and patches the profile URL.
// The previous object is removed best-effort.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, upload AvatarUpload) (domain.User, error) {
	if upload.Body == nil {
		return domain.User{}, ErrFileRequired
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return domain.User{}, ErrOnlyImages
	}
	if upload.Size <= 0 {
		return domain.User{}, ErrFileRequired
	}
	if upload.Size > maxAvatarSize {
		return domain.User{}, ErrFileTooLarge
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())
	url, err := s.avatars.Upload(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		return domain.User{}, fmt.Errorf("upload avatar: %w", err)
	}

	if user.AvatarURL != "" {
		if oldKey := storageKeyFromURL(user.AvatarURL); oldKey != "" {
			if err := s.avatars.Delete(ctx, oldKey); err != nil {
				s.log.Warn("delete previous avatar failed", zap.String("key", oldKey), zap.Error(err))
			}
		}
	}

	updated, err := s.users.Update(ctx, userID, port.UserPatch{AvatarURL: &url})
	if err != nil {
		return domain.User{}, fmt.Errorf("update avatar url: %w", err)
	}

	return updated.Sanitized(), nil
}

// storageKeyFromURL recovers the object key from a stored avatar URL.
// Keys have the shape avatars/<userID>/<uuid>.
func storageKeyFromURL(url string) string {
	idx := strings.Index(url, "/avatars/")
	if idx < 0 {
		return ""
	}
	return path.Clean(strings.TrimPrefix(url[idx:], "/"))
}

package port

import (
	"context"
	"time"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
)

// UserPatch describes a partial update to a user profile. Nil fields
// are left untouched.
type UserPatch struct {
	Fullname  *string
	Phone     *string
	Address   *domain.Address
	AvatarURL *string
	Role      *domain.Role
}

// Empty reports whether the patch carries no changes.
func (p UserPatch) Empty() bool {
	return p.Fullname == nil && p.Phone == nil && p.Address == nil && p.AvatarURL == nil && p.Role == nil
}

// UserFilter narrows and pages user listings.
type UserFilter struct {
	Role            *domain.Role
	IsActive        *bool
	IsEmailVerified *bool
	Search          string
	Page            int
	Limit           int
	SortBy          string
	SortDesc        bool
}

// UserRepository exposes persistence behavior for users. All operations
// are atomic single-row statements; no multi-row transactions are
// required by the auth core.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// GetByVerificationChallenge matches a user by email, stored code
	// hash, and an unexpired challenge in a single predicate.
	GetByVerificationChallenge(ctx context.Context, email, codeHash string, now time.Time) (*domain.User, error)
	// MarkEmailVerified activates the account and clears the challenge
	// fields in one statement.
	MarkEmailVerified(ctx context.Context, id string) error
	// SetVerificationChallenge replaces any previous challenge,
	// invalidating outstanding codes.
	SetVerificationChallenge(ctx context.Context, id, codeHash string, expires time.Time) error

	// RecordLogin stores the refresh token hash (overwriting any prior
	// value) and stamps the last login time.
	RecordLogin(ctx context.Context, id, refreshTokenHash string, at time.Time) error
	// SetRefreshToken overwrites the stored refresh token hash during
	// rotation.
	SetRefreshToken(ctx context.Context, id, refreshTokenHash string) error
	// ClearRefreshToken removes the stored hash. Clearing an already
	// cleared hash is not an error.
	ClearRefreshToken(ctx context.Context, id string) error

	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	Delete(ctx context.Context, id string) error
}

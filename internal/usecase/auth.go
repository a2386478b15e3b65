package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/logger"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/security"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

const defaultVerificationTTL = 10 * time.Minute

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrEmailPasswordRequired indicates email or password was empty.
	ErrEmailPasswordRequired = errors.New("email and password are required")
	// ErrInvalidEmailPassword indicates the email/password pair does not
	// match; returned identically for unknown emails and wrong passwords.
	ErrInvalidEmailPassword = errors.New("invalid email or password")
	// ErrEmailNotVerified indicates the account has not completed email
	// verification.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrUserNotFound indicates no user matches the given identity.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoVerificationCode indicates no challenge is outstanding.
	ErrNoVerificationCode = errors.New("no verification code")
	// ErrVerificationCodeExpired indicates the challenge exists but its
	// expiry elapsed.
	ErrVerificationCodeExpired = errors.New("verification code expired")
	// ErrInvalidVerificationCode indicates the code does not match the
	// stored challenge.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	// ErrUserAlreadyVerified indicates a resend was requested for an
	// already verified account.
	ErrUserAlreadyVerified = errors.New("user already verified")
	// ErrInvalidRefreshToken indicates the refresh token is malformed,
	// revoked, or superseded by a newer login.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the refresh token expired.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates the access token is malformed or
	// its signature does not verify.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token expired; clients
	// may attempt the refresh flow instead of re-authenticating.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email    string
	Password string
	Fullname string
	Phone    string
	Address  *domain.Address
}

// LoginResult bundles the authenticated user with a freshly issued
// token pair.
type LoginResult struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates registration, verification, and session flows.
type AuthService struct {
	users           port.UserRepository
	signer          *security.TokenSigner
	mailer          port.Mailer
	log             *zap.Logger
	verificationTTL time.Duration
	now             func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users port.UserRepository, signer *security.TokenSigner, mailer port.Mailer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:           users,
		signer:          signer,
		mailer:          mailer,
		log:             log,
		verificationTTL: defaultVerificationTTL,
		now:             time.Now,
	}
}

// WithVerificationTTL overrides the challenge lifetime.
func (s *AuthService) WithVerificationTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.verificationTTL = ttl
	}
	return s
}

// WithClock injects a custom clock, primarily for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates an inactive account and dispatches a verification
// code. Mail delivery is best-effort: a failure is logged and the
// created account stands, with resend-otp as the recovery path.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return domain.User{}, ErrEmailPasswordRequired
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	code, codeHash, err := security.GenerateOTP()
	if err != nil {
		return domain.User{}, err
	}

	now := s.now().UTC()
	expires := now.Add(s.verificationTTL)
	user := domain.User{
		ID:                       uuid.NewString(),
		Email:                    email,
		PasswordHash:             passwordHash,
		Fullname:                 strings.TrimSpace(input.Fullname),
		Phone:                    strings.TrimSpace(input.Phone),
		Address:                  input.Address,
		Role:                     domain.RoleCustomer,
		IsActive:                 false,
		IsEmailVerified:          false,
		EmailVerificationCode:    &codeHash,
		EmailVerificationExpires: &expires,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.sendCode(ctx, email, code)

	return user.Sanitized(), nil
}

// VerifyEmail validates the challenge and activates the account. The
// happy path is a single lookup predicate (email + code hash + not
// expired); the failure cause is classified only after the predicate
// misses. A consumed code can never re-validate.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (domain.User, error) {
	email = normalizeEmail(email)
	codeHash := security.HashToken(strings.TrimSpace(code))
	now := s.now().UTC()

	user, err := s.users.GetByVerificationChallenge(ctx, email, codeHash, now)
	switch {
	case err == nil:
		if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
			return domain.User{}, fmt.Errorf("activate user: %w", err)
		}
		user.IsActive = true
		user.IsEmailVerified = true
		user.EmailVerificationCode = nil
		user.EmailVerificationExpires = nil
		return user.Sanitized(), nil
	case errors.Is(err, repository.ErrNotFound):
		return domain.User{}, s.classifyVerificationFailure(ctx, email, now)
	default:
		return domain.User{}, fmt.Errorf("lookup verification challenge: %w", err)
	}
}

// classifyVerificationFailure explains why the challenge predicate
// missed without leaking which condition failed through the lookup
// itself.
func (s *AuthService) classifyVerificationFailure(ctx context.Context, email string, now time.Time) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.EmailVerificationCode == nil {
		return ErrNoVerificationCode
	}
	if user.EmailVerificationExpires == nil || user.EmailVerificationExpires.Before(now) {
		return ErrVerificationCodeExpired
	}
	return ErrInvalidVerificationCode
}

// ResendOTP replaces any outstanding challenge with a fresh one,
// enforcing at most one live code per user.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.IsEmailVerified {
		return ErrUserAlreadyVerified
	}

	code, codeHash, err := security.GenerateOTP()
	if err != nil {
		return err
	}

	expires := s.now().UTC().Add(s.verificationTTL)
	if err := s.users.SetVerificationChallenge(ctx, user.ID, codeHash, expires); err != nil {
		return fmt.Errorf("store verification challenge: %w", err)
	}

	s.sendCode(ctx, email, code)

	return nil
}

// Login authenticates the credentials and issues a token pair. The
// stored refresh token hash is overwritten, revoking any prior session
// for the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrEmailPasswordRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidEmailPassword
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return LoginResult{}, ErrEmailNotVerified
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, ErrInvalidEmailPassword
	}

	return s.issueTokenPair(ctx, *user, true)
}

// Refresh validates the presented refresh token against the stored
// hash and rotates the pair. A token superseded by a newer login no
// longer matches the stored hash and is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	claims, err := s.signer.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return LoginResult{}, ErrExpiredRefreshToken
		}
		return LoginResult{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidRefreshToken
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return LoginResult{}, ErrEmailNotVerified
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != security.HashToken(refreshToken) {
		return LoginResult{}, ErrInvalidRefreshToken
	}

	return s.issueTokenPair(ctx, *user, false)
}

// Logout clears the stored refresh token hash. Calling it twice is
// harmless; a missing user is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// AuthenticateToken verifies an access token and loads its user,
// rejecting unknown or inactive accounts. It backs the request
// middleware.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.signer.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return domain.User{}, ErrExpiredAccessToken
		}
		return domain.User{}, ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrInvalidAccessToken
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return domain.User{}, ErrInvalidAccessToken
	}

	return user.Sanitized(), nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user domain.User, stampLogin bool) (LoginResult, error) {
	accessToken, err := s.signer.SignAccess(user)
	if err != nil {
		return LoginResult{}, err
	}

	refreshToken, err := s.signer.SignRefresh(user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	refreshHash := security.HashToken(refreshToken)
	now := s.now().UTC()

	if stampLogin {
		if err := s.users.RecordLogin(ctx, user.ID, refreshHash, now); err != nil {
			return LoginResult{}, fmt.Errorf("record login: %w", err)
		}
		user.LastLogin = &now
	} else {
		if err := s.users.SetRefreshToken(ctx, user.ID, refreshHash); err != nil {
			return LoginResult{}, fmt.Errorf("rotate refresh token: %w", err)
		}
	}

	return LoginResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) sendCode(ctx context.Context, email, code string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		s.log.Warn("send verification email failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

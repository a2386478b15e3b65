package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/security"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeMailer) {
	t.Helper()

	repo := newFakeUserRepo()
	mailer := newFakeMailer()

	signer, err := security.NewTokenSigner(security.TokenSignerConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "test",
	})
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	return NewAuthService(repo, signer, mailer, nil), repo, mailer
}

func registerVerified(t *testing.T, svc *AuthService, mailer *fakeMailer, email, password string) string {
	t.Helper()

	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: email, Password: password, Fullname: "Test User"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	code := mailer.lastCode(email)
	if code == "" {
		t.Fatal("no verification code was mailed")
	}
	if _, err := svc.VerifyEmail(ctx, email, code); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return user.ID
}

func TestRegisterCreatesInactiveUserWithChallenge(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "  Jane@Example.COM ",
		Password: "secret1",
		Fullname: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Email != "jane@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.IsActive || user.IsEmailVerified {
		t.Error("new user must be inactive and unverified")
	}
	if user.PasswordHash != "" || user.EmailVerificationCode != nil {
		t.Error("returned user must be sanitized")
	}

	stored, err := repo.GetByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if stored.EmailVerificationCode == nil || stored.EmailVerificationExpires == nil {
		t.Fatal("challenge fields must both be set")
	}

	code := mailer.lastCode("jane@example.com")
	if code == "" {
		t.Fatal("verification code was not mailed")
	}
	if *stored.EmailVerificationCode != security.HashToken(code) {
		t.Error("stored hash does not match mailed code")
	}
	if *stored.EmailVerificationCode == code {
		t.Error("plaintext code must never be stored")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "secret1", Fullname: "Dup"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("second Register = %v, want ErrEmailAlreadyExists", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	mailer.fail = errors.New("smtp down")

	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret1", Fullname: "A"}); err != nil {
		t.Fatalf("Register with failing mailer: %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "a@b.com"); err != nil {
		t.Error("account must stand even when mail delivery fails")
	}
}

func TestVerifyEmailActivatesExactlyOnce(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "v@e.com", Password: "secret1", Fullname: "V"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	code := mailer.lastCode("v@e.com")
	user, err := svc.VerifyEmail(ctx, "v@e.com", code)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !user.IsActive || !user.IsEmailVerified {
		t.Error("verified user must be active")
	}

	stored, _ := repo.GetByEmail(ctx, "v@e.com")
	if stored.EmailVerificationCode != nil || stored.EmailVerificationExpires != nil {
		t.Error("challenge fields must be cleared after verification")
	}

	// A consumed code never validates again.
	if _, err := svc.VerifyEmail(ctx, "v@e.com", code); !errors.Is(err, ErrNoVerificationCode) {
		t.Errorf("second VerifyEmail = %v, want ErrNoVerificationCode", err)
	}
}

func TestVerifyEmailFailureClassification(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	base := time.Now()
	svc.WithClock(func() time.Time { return base })

	if _, err := svc.Register(ctx, RegisterInput{Email: "c@e.com", Password: "secret1", Fullname: "C"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := mailer.lastCode("c@e.com")

	if _, err := svc.VerifyEmail(ctx, "nobody@e.com", code); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email = %v, want ErrUserNotFound", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.VerifyEmail(ctx, "c@e.com", wrong); !errors.Is(err, ErrInvalidVerificationCode) {
		t.Errorf("wrong code = %v, want ErrInvalidVerificationCode", err)
	}

	svc.WithClock(func() time.Time { return base.Add(11 * time.Minute) })
	if _, err := svc.VerifyEmail(ctx, "c@e.com", code); !errors.Is(err, ErrVerificationCodeExpired) {
		t.Errorf("expired code = %v, want ErrVerificationCodeExpired", err)
	}
}

func TestResendOTPInvalidatesOldCode(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "r@e.com", Password: "secret1", Fullname: "R"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	first := mailer.lastCode("r@e.com")

	if err := svc.ResendOTP(ctx, "r@e.com"); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	second := mailer.lastCode("r@e.com")

	if first != second {
		// The superseded code must no longer validate.
		if _, err := svc.VerifyEmail(ctx, "r@e.com", first); !errors.Is(err, ErrInvalidVerificationCode) {
			t.Errorf("old code = %v, want ErrInvalidVerificationCode", err)
		}
	}
	if _, err := svc.VerifyEmail(ctx, "r@e.com", second); err != nil {
		t.Errorf("fresh code rejected: %v", err)
	}
}

func TestResendOTPErrors(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.ResendOTP(ctx, "ghost@e.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email = %v, want ErrUserNotFound", err)
	}

	registerVerified(t, svc, mailer, "done@e.com", "secret1")
	if err := svc.ResendOTP(ctx, "done@e.com"); !errors.Is(err, ErrUserAlreadyVerified) {
		t.Errorf("verified user = %v, want ErrUserAlreadyVerified", err)
	}
}

func TestLoginIssuesTokensAndStampsSession(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	ctx := context.Background()

	id := registerVerified(t, svc, mailer, "login@e.com", "secret1")

	result, err := svc.Login(ctx, "login@e.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if result.User.PasswordHash != "" || result.User.RefreshTokenHash != nil {
		t.Error("login result user must be sanitized")
	}
	if result.User.LastLogin == nil {
		t.Error("last login must be stamped")
	}

	stored, _ := repo.GetByID(ctx, id)
	if stored.RefreshTokenHash == nil {
		t.Fatal("refresh token hash must be stored")
	}
	if *stored.RefreshTokenHash != security.HashToken(result.RefreshToken) {
		t.Error("stored hash does not match issued refresh token")
	}
	if *stored.RefreshTokenHash == result.RefreshToken {
		t.Error("plaintext refresh token must never be stored")
	}
}

func TestLoginErrorCases(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "", "secret1"); !errors.Is(err, ErrEmailPasswordRequired) {
		t.Errorf("empty email = %v, want ErrEmailPasswordRequired", err)
	}
	if _, err := svc.Login(ctx, "x@e.com", ""); !errors.Is(err, ErrEmailPasswordRequired) {
		t.Errorf("empty password = %v, want ErrEmailPasswordRequired", err)
	}

	if _, err := svc.Login(ctx, "ghost@e.com", "secret1"); !errors.Is(err, ErrInvalidEmailPassword) {
		t.Errorf("unknown email = %v, want ErrInvalidEmailPassword", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: "pending@e.com", Password: "secret1", Fullname: "P"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, "pending@e.com", "secret1"); !errors.Is(err, ErrEmailNotVerified) {
		t.Errorf("unverified login = %v, want ErrEmailNotVerified", err)
	}

	registerVerified(t, svc, mailer, "ok@e.com", "secret1")
	if _, err := svc.Login(ctx, "ok@e.com", "wrongpass"); !errors.Is(err, ErrInvalidEmailPassword) {
		t.Errorf("wrong password = %v, want ErrInvalidEmailPassword", err)
	}
}

func TestSecondLoginRevokesFirstSession(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	registerVerified(t, svc, mailer, "multi@e.com", "secret1")

	first, err := svc.Login(ctx, "multi@e.com", "secret1")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	if _, err := svc.Login(ctx, "multi@e.com", "secret1"); err != nil {
		t.Fatalf("second Login: %v", err)
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh with superseded token = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	ctx := context.Background()

	id := registerVerified(t, svc, mailer, "rot@e.com", "secret1")

	login, err := svc.Login(ctx, "rot@e.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == login.RefreshToken {
		t.Error("rotation must issue a new refresh token")
	}

	stored, _ := repo.GetByID(ctx, id)
	if *stored.RefreshTokenHash != security.HashToken(rotated.RefreshToken) {
		t.Error("stored hash must track the rotated token")
	}

	// The rotated-out token is no longer accepted.
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("stale refresh = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsGarbageAndLoggedOut(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("garbage refresh = %v, want ErrInvalidRefreshToken", err)
	}

	id := registerVerified(t, svc, mailer, "out@e.com", "secret1")
	login, err := svc.Login(ctx, "out@e.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, id); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh after logout = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()

	id := registerVerified(t, svc, mailer, "bye@e.com", "secret1")
	if _, err := svc.Login(ctx, "bye@e.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, id); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if err := svc.Logout(ctx, id); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := svc.Logout(ctx, "never-existed"); err != nil {
		t.Fatalf("Logout unknown user: %v", err)
	}
}

func TestAuthenticateToken(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	ctx := context.Background()

	id := registerVerified(t, svc, mailer, "tok@e.com", "secret1")
	login, err := svc.Login(ctx, "tok@e.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, err := svc.AuthenticateToken(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("AuthenticateToken: %v", err)
	}
	if user.ID != id {
		t.Errorf("wrong user resolved: %q", user.ID)
	}
	if user.PasswordHash != "" {
		t.Error("authenticated user must be sanitized")
	}

	if _, err := svc.AuthenticateToken(ctx, "garbage"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Errorf("garbage token = %v, want ErrInvalidAccessToken", err)
	}

	// Deleting the user invalidates otherwise valid tokens.
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.AuthenticateToken(ctx, login.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Errorf("token for deleted user = %v, want ErrInvalidAccessToken", err)
	}
}

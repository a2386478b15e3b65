package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

var userColumns = []string{
	"id",
	"email",
	"password_hash",
	"fullname",
	"phone",
	"address_street",
	"address_city",
	"address_district",
	"address_country",
	"avatar_url",
	"role",
	"is_active",
	"is_email_verified",
	"email_verification_code",
	"email_verification_expires",
	"refresh_token_hash",
	"last_login",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	var street, city, district, country any
	if user.Address != nil {
		street = user.Address.Street
		city = user.Address.City
		district = user.Address.District
		country = user.Address.Country
	}

	query := r.builder.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.PasswordHash,
			user.Fullname,
			nullIfEmpty(user.Phone),
			street,
			city,
			district,
			country,
			nullIfEmpty(user.AvatarURL),
			user.Role,
			user.IsActive,
			user.IsEmailVerified,
			user.EmailVerificationCode,
			user.EmailVerificationExpires,
			user.RefreshTokenHash,
			user.LastLogin,
			user.CreatedAt,
			user.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// EmailExists reports whether a user row already claims the email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build email exists sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return true, nil
}

// GetByVerificationChallenge matches a user by email, code hash, and an
// unexpired challenge in one predicate so the caller never branches on
// partial matches.
func (r *UserRepository) GetByVerificationChallenge(ctx context.Context, email, codeHash string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"email": email},
		squirrel.Eq{"email_verification_code": codeHash},
		squirrel.Gt{"email_verification_expires": now},
	})
}

// MarkEmailVerified activates the account and clears the challenge
// fields in one statement.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("users").
		Set("is_active", true).
		Set("is_email_verified", true).
		Set("email_verification_code", nil).
		Set("email_verification_expires", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark verified sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetVerificationChallenge replaces any previous challenge, so at most
// one code is live per user.
func (r *UserRepository) SetVerificationChallenge(ctx context.Context, id, codeHash string, expires time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("email_verification_code", codeHash).
		Set("email_verification_expires", expires).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set challenge sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set verification challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordLogin stores the refresh token hash and stamps last_login.
// Overwriting the hash revokes whatever session held the previous one.
func (r *UserRepository) RecordLogin(ctx context.Context, id, refreshTokenHash string, at time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("refresh_token_hash", refreshTokenHash).
		Set("last_login", at).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetRefreshToken overwrites the stored refresh token hash during rotation.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, refreshTokenHash string) error {
	stmt, args, err := r.builder.Update("users").
		Set("refresh_token_hash", refreshTokenHash).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set refresh token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearRefreshToken removes the stored hash, ending the session.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("users").
		Set("refresh_token_hash", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear refresh token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Update applies a partial profile patch and returns the updated row.
func (r *UserRepository) Update(ctx context.Context, id string, patch port.UserPatch) (*domain.User, error) {
	query := r.builder.Update("users").
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(userColumns))

	if patch.Fullname != nil {
		query = query.Set("fullname", *patch.Fullname)
	}
	if patch.Phone != nil {
		query = query.Set("phone", nullIfEmpty(*patch.Phone))
	}
	if patch.Address != nil {
		query = query.
			Set("address_street", patch.Address.Street).
			Set("address_city", patch.Address.City).
			Set("address_district", patch.Address.District).
			Set("address_country", patch.Address.Country)
	}
	if patch.AvatarURL != nil {
		query = query.Set("avatar_url", nullIfEmpty(*patch.AvatarURL))
	}
	if patch.Role != nil {
		query = query.Set("role", *patch.Role)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// List returns a page of users matching the filter plus the total count
// across all pages.
func (r *UserRepository) List(ctx context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	where := userFilterPredicate(filter)

	countStmt, countArgs, err := r.builder.
		Select("count(*)").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := r.builder.
		Select(userColumns...).
		From("users").
		Where(where).
		OrderBy(userOrderClause(filter)).
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit))

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

func userFilterPredicate(filter port.UserFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"role": *filter.Role})
	}
	if filter.IsActive != nil {
		where = append(where, squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.IsEmailVerified != nil {
		where = append(where, squirrel.Eq{"is_email_verified": *filter.IsEmailVerified})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"fullname": pattern},
			squirrel.ILike{"email": pattern},
		})
	}
	if len(where) == 0 {
		where = append(where, squirrel.Expr("TRUE"))
	}
	return where
}

// userOrderClause whitelists sortable columns so the filter can never
// inject arbitrary SQL into ORDER BY.
func userOrderClause(filter port.UserFilter) string {
	column := "created_at"
	switch filter.SortBy {
	case "fullname", "email", "last_login", "created_at":
		column = filter.SortBy
	}
	if filter.SortDesc {
		return column + " DESC"
	}
	return column + " ASC"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		phone    sql.NullString
		street   sql.NullString
		city     sql.NullString
		district sql.NullString
		country  sql.NullString
		avatar   sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Fullname,
		&phone,
		&street,
		&city,
		&district,
		&country,
		&avatar,
		&user.Role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.EmailVerificationCode,
		&user.EmailVerificationExpires,
		&user.RefreshTokenHash,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.AvatarURL = avatar.String
	if street.Valid || city.Valid || district.Valid || country.Valid {
		user.Address = &domain.Address{
			Street:   street.String,
			City:     city.String,
			District: district.String,
			Country:  country.String,
		}
	}

	return &user, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

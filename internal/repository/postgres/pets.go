package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

var petColumns = []string{
	"id",
	"owner_id",
	"name",
	"species",
	"breed",
	"age_months",
	"date_of_birth",
	"gender",
	"weight_kg",
	"color",
	"microchip_id",
	"medical_history",
	"profile_image_url",
	"created_at",
	"updated_at",
}

// PetRepository implements port.PetRepository using PostgreSQL. The
// medical history travels as a single JSONB document.
type PetRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPetRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewPetRepository(exec pgExecutor) *PetRepository {
	return &PetRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new pet row.
func (r *PetRepository) Create(ctx context.Context, pet domain.Pet) error {
	history, err := json.Marshal(pet.MedicalHistory)
	if err != nil {
		return fmt.Errorf("marshal medical history: %w", err)
	}

	query := r.builder.Insert("pets").
		Columns(petColumns...).
		Values(
			pet.ID,
			pet.OwnerID,
			pet.Name,
			pet.Species,
			nullIfEmpty(pet.Breed),
			pet.AgeMonths,
			pet.DateOfBirth,
			pet.Gender,
			pet.WeightKg,
			nullIfEmpty(pet.Color),
			nullIfEmpty(pet.MicrochipID),
			history,
			nullIfEmpty(pet.ProfileImageURL),
			pet.CreatedAt,
			pet.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert pet sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}

	return nil
}

// GetByID retrieves a pet by identifier.
func (r *PetRepository) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	stmt, args, err := r.builder.
		Select(petColumns...).
		From("pets").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pet sql: %w", err)
	}

	pet, err := scanPet(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan pet: %w", err)
	}

	return pet, nil
}

// ListByOwner returns all pets belonging to the owner, newest first.
func (r *PetRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	stmt, args, err := r.builder.
		Select(petColumns...).
		From("pets").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pets sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []domain.Pet
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet row: %w", err)
		}
		pets = append(pets, *pet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pets: %w", err)
	}

	return pets, nil
}

func scanPet(row rowScanner) (*domain.Pet, error) {
	var (
		pet       domain.Pet
		breed     sql.NullString
		color     sql.NullString
		microchip sql.NullString
		imageURL  sql.NullString
		history   []byte
	)

	if err := row.Scan(
		&pet.ID,
		&pet.OwnerID,
		&pet.Name,
		&pet.Species,
		&breed,
		&pet.AgeMonths,
		&pet.DateOfBirth,
		&pet.Gender,
		&pet.WeightKg,
		&color,
		&microchip,
		&history,
		&imageURL,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	); err != nil {
		return nil, err
	}

	pet.Breed = breed.String
	pet.Color = color.String
	pet.MicrochipID = microchip.String
	pet.ProfileImageURL = imageURL.String

	if len(history) > 0 {
		if err := json.Unmarshal(history, &pet.MedicalHistory); err != nil {
			return nil, fmt.Errorf("unmarshal medical history: %w", err)
		}
	}

	return &pet, nil
}

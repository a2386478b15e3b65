package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/repository"
)

// ErrPetNotFound indicates no pet matches the given identifier.
var ErrPetNotFound = errors.New("pet not found")

// CreatePetInput carries the fields accepted when creating a pet record.
type CreatePetInput struct {
	Name           string
	Species        domain.Species
	Breed          string
	AgeMonths      int
	DateOfBirth    *time.Time
	Gender         domain.Gender
	WeightKg       *float64
	Color          string
	MicrochipID    string
	MedicalHistory *domain.MedicalHistory
}

// PetService manages pet records on behalf of their owners.
type PetService struct {
	pets  port.PetRepository
	users port.UserRepository
	now   func() time.Time
}

// NewPetService constructs a PetService instance.
func NewPetService(pets port.PetRepository, users port.UserRepository) *PetService {
	return &PetService{pets: pets, users: users, now: time.Now}
}

// Create validates and persists a new pet owned by ownerID.
func (s *PetService) Create(ctx context.Context, ownerID string, input CreatePetInput) (domain.Pet, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Pet{}, ErrUserNotFound
		}
		return domain.Pet{}, fmt.Errorf("lookup owner: %w", err)
	}

	now := s.now().UTC()
	pet := domain.Pet{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Species:     input.Species,
		Breed:       strings.TrimSpace(input.Breed),
		AgeMonths:   input.AgeMonths,
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		WeightKg:    input.WeightKg,
		Color:       strings.TrimSpace(input.Color),
		MicrochipID: strings.ToUpper(strings.TrimSpace(input.MicrochipID)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.MedicalHistory != nil {
		pet.MedicalHistory = *input.MedicalHistory
	}

	if err := pet.Validate(); err != nil {
		return domain.Pet{}, err
	}

	if err := s.pets.Create(ctx, pet); err != nil {
		return domain.Pet{}, fmt.Errorf("create pet: %w", err)
	}

	return pet, nil
}

// Get loads a pet, visible only to its owner or an admin.
func (s *PetService) Get(ctx context.Context, actor domain.User, petID string) (domain.Pet, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Pet{}, ErrPetNotFound
		}
		return domain.Pet{}, fmt.Errorf("lookup pet: %w", err)
	}

	if pet.OwnerID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.Pet{}, ErrPetNotFound
	}

	return *pet, nil
}

// ListByOwner returns all pets owned by the given user.
func (s *PetService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	pets, err := s.pets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

package port

import (
	"context"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
)

// PetRepository exposes persistence behavior for pet records.
type PetRepository interface {
	Create(ctx context.Context, pet domain.Pet) error
	GetByID(ctx context.Context, id string) (*domain.Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Pet, error)
}

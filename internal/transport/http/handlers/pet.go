package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/middleware"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

// PetHandler exposes pet record endpoints.
type PetHandler struct {
	pets *usecase.PetService
}

// NewPetHandler constructs PetHandler.
func NewPetHandler(pets *usecase.PetService) *PetHandler {
	return &PetHandler{pets: pets}
}

// Create registers a new pet owned by the caller.
func (h *PetHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	var req CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "invalid pet payload")
		return
	}

	pet, err := h.pets.Create(c.Request.Context(), actor.ID, usecase.CreatePetInput{
		Name:           req.Name,
		Species:        domain.Species(req.Species),
		Breed:          req.Breed,
		AgeMonths:      req.AgeMonths,
		DateOfBirth:    req.DateOfBirth,
		Gender:         domain.Gender(req.Gender),
		WeightKg:       req.WeightKg,
		Color:          req.Color,
		MicrochipID:    req.MicrochipID,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "pet created", newPetView(pet))
}

// List returns the caller's own pets.
func (h *PetHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	pets, err := h.pets.ListByOwner(c.Request.Context(), actor.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "pets retrieved", newPetViews(pets))
}

// Get returns a single pet, visible to its owner or an admin.
func (h *PetHandler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	pet, err := h.pets.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "pet retrieved", newPetView(pet))
}

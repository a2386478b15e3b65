package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
)

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Meta       any    `json:"meta,omitempty"`
	Code       string `json:"code,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func respondWithMeta(c *gin.Context, status int, message string, data, meta any) {
	c.JSON(status, Response{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
		Meta:       meta,
	})
}

// AddressPayload mirrors domain.Address on the wire.
type AddressPayload struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	District string `json:"district"`
	Country  string `json:"country"`
}

func (p *AddressPayload) toDomain() *domain.Address {
	if p == nil {
		return nil
	}
	return &domain.Address{
		Street:   p.Street,
		City:     p.City,
		District: p.District,
		Country:  p.Country,
	}
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Fullname string          `json:"fullname" binding:"required"`
	Phone    string          `json:"phone"`
	Address  *AddressPayload `json:"address"`
}

// VerifyEmailRequest holds the verification payload.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ResendOTPRequest asks for a fresh verification code.
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest carries login credentials. Presence is checked by the
// service so empty fields map to their dedicated error, not a generic
// binding failure.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest optionally carries the refresh token in the body for
// clients that do not use the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateProfileRequest defines the partial profile update payload.
type UpdateProfileRequest struct {
	Fullname *string         `json:"fullname"`
	Phone    *string         `json:"phone"`
	Address  *AddressPayload `json:"address"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreatePetRequest defines the pet creation payload.
type CreatePetRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Species        string                 `json:"species" binding:"required"`
	Breed          string                 `json:"breed"`
	AgeMonths      int                    `json:"ageMonths"`
	DateOfBirth    *time.Time             `json:"dateOfBirth"`
	Gender         string                 `json:"gender" binding:"required"`
	WeightKg       *float64               `json:"weightKg"`
	Color          string                 `json:"color"`
	MicrochipID    string                 `json:"microchipId"`
	MedicalHistory *domain.MedicalHistory `json:"medicalHistory"`
}

// UserView is the API representation of a user.
type UserView struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Fullname        string          `json:"fullname"`
	Phone           string          `json:"phone,omitempty"`
	Address         *AddressPayload `json:"address,omitempty"`
	AvatarURL       string          `json:"avatarUrl,omitempty"`
	Role            domain.Role     `json:"role"`
	IsActive        bool            `json:"isActive"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	LastLogin       *time.Time      `json:"lastLogin,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func newUserView(user domain.User) UserView {
	view := UserView{
		ID:              user.ID,
		Email:           user.Email,
		Fullname:        user.Fullname,
		Phone:           user.Phone,
		AvatarURL:       user.AvatarURL,
		Role:            user.Role,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		LastLogin:       user.LastLogin,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	if user.Address != nil {
		view.Address = &AddressPayload{
			Street:   user.Address.Street,
			City:     user.Address.City,
			District: user.Address.District,
			Country:  user.Address.Country,
		}
	}
	return view
}

func newUserViews(users []domain.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	return views
}

// PetView is the API representation of a pet.
type PetView struct {
	ID              string                `json:"id"`
	OwnerID         string                `json:"ownerId"`
	Name            string                `json:"name"`
	Species         domain.Species        `json:"species"`
	Breed           string                `json:"breed,omitempty"`
	AgeMonths       int                   `json:"ageMonths"`
	AgeYears        int                   `json:"ageYears"`
	DateOfBirth     *time.Time            `json:"dateOfBirth,omitempty"`
	Gender          domain.Gender         `json:"gender"`
	WeightKg        *float64              `json:"weightKg,omitempty"`
	Color           string                `json:"color,omitempty"`
	MicrochipID     string                `json:"microchipId,omitempty"`
	MedicalHistory  domain.MedicalHistory `json:"medicalHistory"`
	ProfileImageURL string                `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func newPetView(pet domain.Pet) PetView {
	return PetView{
		ID:              pet.ID,
		OwnerID:         pet.OwnerID,
		Name:            pet.Name,
		Species:         pet.Species,
		Breed:           pet.Breed,
		AgeMonths:       pet.AgeMonths,
		AgeYears:        pet.AgeInYears(),
		DateOfBirth:     pet.DateOfBirth,
		Gender:          pet.Gender,
		WeightKg:        pet.WeightKg,
		Color:           pet.Color,
		MicrochipID:     pet.MicrochipID,
		MedicalHistory:  pet.MedicalHistory,
		ProfileImageURL: pet.ProfileImageURL,
		CreatedAt:       pet.CreatedAt,
		UpdatedAt:       pet.UpdatedAt,
	}
}

func newPetViews(pets []domain.Pet) []PetView {
	views := make([]PetView, 0, len(pets))
	for _, pet := range pets {
		views = append(views, newPetView(pet))
	}
	return views
}

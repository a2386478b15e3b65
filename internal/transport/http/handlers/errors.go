package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

type errorCase struct {
	err    error
	status int
	code   string
}

// errorCases maps every service sentinel to its HTTP status and
// machine-readable code. Anything unmapped is an internal error and
// never leaks detail to the client.
var errorCases = []errorCase{
	{usecase.ErrEmailAlreadyExists, http.StatusBadRequest, "EMAIL_ALREADY_EXISTS"},
	{usecase.ErrEmailPasswordRequired, http.StatusBadRequest, "EMAIL_PASSWORD_REQUIRED"},
	{usecase.ErrInvalidEmailPassword, http.StatusBadRequest, "INVALID_EMAIL_PASSWORD"},
	{usecase.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{usecase.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{usecase.ErrNoVerificationCode, http.StatusBadRequest, "NO_VERIFICATION_CODE"},
	{usecase.ErrVerificationCodeExpired, http.StatusBadRequest, "VERIFICATION_CODE_EXPIRED"},
	{usecase.ErrInvalidVerificationCode, http.StatusBadRequest, "INVALID_VERIFICATION_CODE"},
	{usecase.ErrUserAlreadyVerified, http.StatusBadRequest, "USER_ALREADY_VERIFIED"},
	{usecase.ErrInvalidRefreshToken, http.StatusUnauthorized, "UNAUTHORIZED"},
	{usecase.ErrExpiredRefreshToken, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{usecase.ErrInvalidAccessToken, http.StatusUnauthorized, "UNAUTHORIZED"},
	{usecase.ErrExpiredAccessToken, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{usecase.ErrNoUpdateData, http.StatusBadRequest, "NO_VALID_UPDATE_DATA"},
	{usecase.ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{usecase.ErrCannotDeleteSelf, http.StatusForbidden, "CANNOT_DELETE_YOURSELF"},
	{usecase.ErrFileRequired, http.StatusBadRequest, "FILE_REQUIRED"},
	{usecase.ErrOnlyImages, http.StatusBadRequest, "ONLY_IMAGES"},
	{usecase.ErrFileTooLarge, http.StatusBadRequest, "FILE_TOO_LARGE"},
	{usecase.ErrPetNotFound, http.StatusNotFound, "PET_NOT_FOUND"},
	{domain.ErrInvalidSpecies, http.StatusBadRequest, "INVALID_SPECIES"},
	{domain.ErrInvalidGender, http.StatusBadRequest, "INVALID_GENDER"},
	{domain.ErrInvalidPetName, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrInvalidPetAge, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// RespondError resolves the error against the known cases and writes
// the error envelope.
func RespondError(c *gin.Context, err error) {
	for _, cs := range errorCases {
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, Response{
				Success:    false,
				StatusCode: cs.status,
				Message:    cs.err.Error(),
				Code:       cs.code,
			})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Response{
		Success:    false,
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
	})
}

// RespondValidationError reports a malformed or incomplete payload.
func RespondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success:    false,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Code:       "VALIDATION_ERROR",
	})
}

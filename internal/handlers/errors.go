package handlers

import (
	"errors"
	"net/http"

	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service errors to API errors. Anything it does
// not recognise is logged and reported as a 500 with the given message.
func respondServiceError(c *gin.Context, err error, operation, internalMessage string) {
	var fieldErr *services.FieldError
	switch {
	case errors.As(err, &fieldErr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Validation failed: "+fieldErr.Error(), fieldErr.Err.Error()).WithField(fieldErr.Field))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	case errors.Is(err, services.ErrEmailExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error()).WithField("email"))
	case errors.Is(err, services.ErrRollNoExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Roll number already exists.", err.Error()).WithField("rollno"))
	case errors.Is(err, services.ErrSweepInProgress):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A membership sweep is already running.", err.Error()))
	case errors.Is(err, services.ErrRenewalTransactionFailed):
		utils.LogError(err, operation+": renewal transaction failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable,
			"Renewal could not be saved. No changes were made, please retry.", "Transaction rolled back"))
	default:
		utils.LogError(err, operation+": unexpected error")
		utils.RespondInternalError(c, internalMessage)
	}
}

// parseIDParam reads a positive :id path parameter, responding with 400 on failure.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := utils.ParsePositiveID(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid ID format.", err.Error()).WithField("id"))
		return 0, false
	}
	return id, true
}

func bindFailed(c *gin.Context, operation string, err error) {
	utils.LogDebug(operation+": failed to bind request", map[string]interface{}{"error": err.Error()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

package handlers

import (
	"net/http"
	"strconv"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client service.
type ClientHandler struct {
	clientService services.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CreateClient", err)
		return
	}

	result, err := h.clientService.CreateClient(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateClient", "Failed to create client.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetClients handles fetching clients with pagination, search and status filter.
func (h *ClientHandler) GetClients(c *gin.Context) {
	var filters models.ClientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		bindFailed(c, "GetClients", err)
		return
	}

	clients, totalCount, err := h.clientService.GetClients(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetClients", "Failed to fetch clients.")
		return
	}

	services.NormalizePagination(&filters)
	c.JSON(http.StatusOK, gin.H{
		"data":      clients,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetClientByID handles fetching a single client.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := parseIDParam(c)
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "GetClientByID", "Failed to fetch client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient applies a partial update. Unknown or immutable keys are rejected.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := services.DecodeUpdateClientRequest(c.Request.Body)
	if err != nil {
		respondServiceError(c, err, "UpdateClient", "Failed to update client.")
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), clientID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateClient", "Failed to update client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client together with their renewal history.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), clientID); err != nil {
		respondServiceError(c, err, "DeleteClient", "Failed to delete client.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetClientRenewals returns the latest renewals of a client (?limit, default 5).
func (h *ClientHandler) GetClientRenewals(c *gin.Context) {
	clientID, ok := parseIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "limit must be a positive integer.", raw).WithField("limit"))
			return
		}
		limit = parsed
	}

	records, err := h.clientService.GetClientRenewals(c.Request.Context(), clientID, limit)
	if err != nil {
		respondServiceError(c, err, "GetClientRenewals", "Failed to fetch renewal history.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

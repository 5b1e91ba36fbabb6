package api

import (
	"net/http"

	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
)

type ProtocolHandler struct {
	protocolService service.ProtocolService
}

func NewProtocolHandler(protocolService service.ProtocolService) *ProtocolHandler {
	return &ProtocolHandler{protocolService: protocolService}
}

// ListProtocols godoc
// @Summary List protocols available to the user
// @Description Public protocols plus the ones the user created, sorted by name.
// @Tags Protocols
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H "items: list of protocols"
// @Router /protocols [get]
func (h *ProtocolHandler) ListProtocols(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	protocols, err := h.protocolService.ListAvailable(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve protocols.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": protocols})
}

// GetProtocol godoc
// @Summary Get a protocol template
// @Tags Protocols
// @Produce json
// @Security BearerAuth
// @Param protocolId path string true "Protocol ID"
// @Success 200 {object} domain.Protocol
// @Failure 404 {object} gin.H "Protocol not found"
// @Router /protocols/{protocolId} [get]
func (h *ProtocolHandler) GetProtocol(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	protocolID, ok := pathObjectID(c, "protocolId")
	if !ok {
		return
	}

	protocol, err := h.protocolService.Get(c.Request.Context(), userID, protocolID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve protocol.")
		return
	}
	c.JSON(http.StatusOK, protocol)
}

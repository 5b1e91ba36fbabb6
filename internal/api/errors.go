package api

import (
	"errors"
	"net/http"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondWithServiceError maps service and engine errors to HTTP responses.
// Unknown errors are logged and hidden behind fallbackMessage.
func respondWithServiceError(c *gin.Context, err error, fallbackMessage string) {
	var partial *service.PartialCompletionError
	switch {
	case errors.As(err, &partial):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":           "Session completion was only partially saved and needs history reconciliation by an administrator.",
			"historyRecordId": partial.HistoryRecordID,
		})
	case planner.IsValidation(err), errors.Is(err, domain.ErrInvalidProtocol):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case planner.IsNotFound(err):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, planner.ErrAssignmentArchived),
		errors.Is(err, planner.ErrInvalidTransition):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrExportUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		logrus.WithField("path", c.FullPath()).Errorf("%s: %s", fallbackMessage, err)
		abortWithError(c, http.StatusInternalServerError, fallbackMessage)
	}
}

package api

import (
	"net/http"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// --- DTOs ---

type EnrollRequest struct {
	ProtocolID      string                  `json:"protocolId" binding:"required"`
	StartDate       *time.Time              `json:"startDate"`
	Personalization *domain.Personalization `json:"personalization"`
	ReadinessRules  map[string]any          `json:"readinessRules"`
}

type UpdateAssignmentRequest struct {
	Action    planner.Action          `json:"action"`
	SessionID string                  `json:"sessionId"`
	Status    domain.AssignmentStatus `json:"status"`
	Notes     *string                 `json:"notes"`
}

// AssignmentResponse wraps an assignment with its derived summary.
type AssignmentResponse struct {
	Assignment *domain.Assignment     `json:"assignment"`
	Summary    domain.ProgressSummary `json:"summary"`
}

func newAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{Assignment: a, Summary: a.Progress}
}

// --- Handler Methods ---

// Enroll godoc
// @Summary Enroll the user in a protocol
// @Description Generates the dated session plan and stores a new active assignment.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param enrollment body EnrollRequest true "Enrollment"
// @Success 201 {object} AssignmentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Protocol not found"
// @Router /assignments [post]
func (h *AssignmentHandler) Enroll(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	protocolID, err := primitive.ObjectIDFromHex(req.ProtocolID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid protocolId format.")
		return
	}

	assignment, err := h.assignmentService.Enroll(c.Request.Context(), userID, service.EnrollInput{
		ProtocolID:      protocolID,
		StartDate:       req.StartDate,
		Personalization: req.Personalization,
		ReadinessRules:  req.ReadinessRules,
	})
	if err != nil {
		respondWithServiceError(c, err, "Unable to save assignment.")
		return
	}
	c.JSON(http.StatusCreated, newAssignmentResponse(assignment))
}

// ListAssignments godoc
// @Summary List the user's assignments, newest first
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H "items: list of assignments"
// @Router /assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to load assignments.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": assignments})
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Get(c.Request.Context(), userID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to load assignment.")
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponse(assignment))
}

// UpdateAssignment godoc
// @Summary Apply a session or status action
// @Description Actions: complete-session, skip-session, start-session (need sessionId) and update-status (needs status).
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Param action body UpdateAssignmentRequest true "Action"
// @Success 200 {object} AssignmentResponse
// @Failure 400 {object} gin.H "Missing action, sessionId or status"
// @Failure 404 {object} gin.H "Assignment or session not found"
// @Failure 409 {object} gin.H "Archived assignment or concurrent update"
// @Failure 500 {object} gin.H "Partial completion, carries historyRecordId"
// @Router /assignments/{assignmentId} [patch]
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	assignment, err := h.assignmentService.Apply(c.Request.Context(), userID, assignmentID, service.ActionRequest{
		Action:    req.Action,
		SessionID: req.SessionID,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithServiceError(c, err, "Unable to update assignment.")
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponse(assignment))
}

// ArchiveAssignment sets the assignment status to archived.
func (h *AssignmentHandler) ArchiveAssignment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Archive(c.Request.Context(), userID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to archive assignment.")
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponse(assignment))
}

// ExportAssignment returns a temporary download URL for a JSON plan snapshot.
func (h *AssignmentHandler) ExportAssignment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	url, err := h.assignmentService.ExportPlan(c.Request.Context(), userID, assignmentID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to export plan.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// ReconcileHistory godoc
// @Summary Re-create missing history records of completed sessions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} gin.H "created: number of records written"
// @Router /admin/assignments/{assignmentId}/reconcile [post]
func (h *AssignmentHandler) ReconcileHistory(c *gin.Context) {
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	created, err := h.assignmentService.ReconcileHistory(c.Request.Context(), assignmentID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to reconcile history.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

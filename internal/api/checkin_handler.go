package api

import (
	"net/http"

	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CheckInHandler struct {
	checkInService service.CheckInService
}

func NewCheckInHandler(checkInService service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

type CreateCheckInRequest struct {
	AssignmentID   *string  `json:"assignmentId"`
	ReadinessScore *int     `json:"readinessScore" binding:"omitempty,min=0,max=10"`
	EnergyLevel    *int     `json:"energyLevel" binding:"omitempty,min=0,max=10"`
	SorenessLevel  *int     `json:"sorenessLevel" binding:"omitempty,min=0,max=10"`
	SleepHours     *float64 `json:"sleepHours" binding:"omitempty,min=0,max=24"`
	StressLevel    *int     `json:"stressLevel" binding:"omitempty,min=0,max=10"`
	Mood           string   `json:"mood"`
	Notes          string   `json:"notes"`
	Tags           []string `json:"tags"`
}

// CreateCheckIn godoc
// @Summary Record a readiness check-in
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkIn body CreateCheckInRequest true "Check-in"
// @Success 201 {object} domain.CheckIn
// @Failure 400 {object} gin.H "Invalid input or assignment"
// @Router /checkins [post]
func (h *CheckInHandler) CreateCheckIn(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.CheckInInput{
		ReadinessScore: req.ReadinessScore,
		EnergyLevel:    req.EnergyLevel,
		SorenessLevel:  req.SorenessLevel,
		SleepHours:     req.SleepHours,
		StressLevel:    req.StressLevel,
		Mood:           req.Mood,
		Notes:          req.Notes,
		Tags:           req.Tags,
	}
	if req.AssignmentID != nil && *req.AssignmentID != "" {
		assignmentID, err := primitive.ObjectIDFromHex(*req.AssignmentID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid assignment")
			return
		}
		input.AssignmentID = &assignmentID
	}

	checkIn, err := h.checkInService.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondWithServiceError(c, err, "Unable to save check-in.")
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

// ListCheckIns returns the 20 newest check-ins of the caller.
func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	checkIns, err := h.checkInService.ListRecent(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, err, "Unable to load check-ins.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": checkIns})
}

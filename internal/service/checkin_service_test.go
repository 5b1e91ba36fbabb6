package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/wellness-app/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckInService_Create(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.enroll(t)
	checkIns := &checkInRepoMock{}
	svc := NewCheckInService(checkIns, f.assignments).(*checkInService)
	local := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CET", 3600))
	svc.now = func() time.Time { return local }

	checkIn, err := svc.Create(context.Background(), f.userID, CheckInInput{
		AssignmentID:   &a.ID,
		ReadinessScore: intPtr(7),
		Mood:           "calm",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-06", checkIn.LocalDate)
	assert.Equal(t, "07:08:09", checkIn.LocalTime)
	assert.Equal(t, local.UTC(), checkIn.CreatedAt)
	assert.NotNil(t, checkIn.Tags)
	assert.Len(t, checkIns.checkIns, 1)

	stored := f.stored(t, a.ID)
	require.NotNil(t, stored.Progress.LastReadinessScore)
	assert.Equal(t, 7, *stored.Progress.LastReadinessScore)
	require.NotNil(t, stored.Progress.LastCheckInAt)
	assert.Equal(t, local.UTC(), *stored.Progress.LastCheckInAt)

	// A later plan write keeps the readiness data
	updated, err := f.svc.Apply(context.Background(), f.userID, a.ID, ActionRequest{
		Action:    planner.ActionSkipSession,
		SessionID: a.Plan.Sessions[0].ID,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Progress.LastReadinessScore)
	assert.Equal(t, 7, *updated.Progress.LastReadinessScore)
}

func TestCheckInService_CreateForeignAssignment(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.enroll(t)
	checkIns := &checkInRepoMock{}
	svc := NewCheckInService(checkIns, f.assignments)

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), CheckInInput{AssignmentID: &a.ID})
	assert.True(t, planner.IsValidation(err))
	assert.Empty(t, checkIns.checkIns)
}

func TestCheckInService_ListRecent(t *testing.T) {
	checkIns := &checkInRepoMock{}
	svc := NewCheckInService(checkIns, newAssignmentRepoMock())
	userID := primitive.NewObjectID()
	ctx := context.Background()

	empty, err := svc.ListRecent(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	for i := 0; i < RecentCheckInLimit+5; i++ {
		_, err := svc.Create(ctx, userID, CheckInInput{ReadinessScore: intPtr(i)})
		require.NoError(t, err)
	}
	_, err = svc.Create(ctx, primitive.NewObjectID(), CheckInInput{})
	require.NoError(t, err)

	recent, err := svc.ListRecent(ctx, userID)
	require.NoError(t, err)
	require.Len(t, recent, RecentCheckInLimit)
	assert.Equal(t, RecentCheckInLimit+4, *recent[0].ReadinessScore, "newest first")
}

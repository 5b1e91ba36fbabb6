package service

import (
	"context"
	"errors"
	"testing"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

func TestProtocolService_ListAndGet(t *testing.T) {
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	public := &domain.Protocol{Name: "Zone 2", IsPublic: true}
	mine := &domain.Protocol{Name: "Alpha", CreatedBy: &userID}
	theirs := &domain.Protocol{Name: "Beta", CreatedBy: &other}
	svc := NewProtocolService(newProtocolRepoMock(public, mine, theirs))
	ctx := context.Background()

	list, err := svc.ListAvailable(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Zone 2", list[1].Name)

	got, err := svc.Get(ctx, userID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)

	_, err = svc.Get(ctx, userID, theirs.ID)
	assert.True(t, planner.IsNotFound(err))

	_, err = svc.Get(ctx, userID, primitive.NewObjectID())
	assert.True(t, planner.IsNotFound(err))
}

func TestProtocolService_SeedLibrary(t *testing.T) {
	repo := newProtocolRepoMock()
	repo.upsertErr["broken"] = errors.New("write failed")
	svc := NewProtocolService(repo)

	seeded, err := svc.SeedLibrary(context.Background(), []domain.Protocol{
		{Slug: "one", Name: "One"},
		{Slug: "broken", Name: "Broken"},
		{Slug: "invalid", Name: "Invalid", Phases: []domain.Phase{{Key: ""}}},
		{Slug: "two", Name: "Two"},
	})
	assert.Equal(t, 2, seeded)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidProtocol)

	list, err := svc.ListAvailable(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Len(t, list, 2, "seeded protocols are public")

	// Seeding again updates in place
	seeded, err = svc.SeedLibrary(context.Background(), []domain.Protocol{{Slug: "one", Name: "One v2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.Len(t, repo.protocols, 2)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

type ProtocolService interface {
	ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]domain.Protocol, error)
	Get(ctx context.Context, userID, protocolID primitive.ObjectID) (*domain.Protocol, error)
	// SeedLibrary upserts curated protocols by slug and returns how many were written.
	SeedLibrary(ctx context.Context, protocols []domain.Protocol) (int, error)
}

type protocolService struct {
	protocolRepo repository.ProtocolRepository
}

// NewProtocolService creates a new instance of protocolService.
func NewProtocolService(protocolRepo repository.ProtocolRepository) ProtocolService {
	return &protocolService{protocolRepo: protocolRepo}
}

// ListAvailable returns public protocols and the ones created by the user, sorted by name.
func (s *protocolService) ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]domain.Protocol, error) {
	protocols, err := s.protocolRepo.ListAvailable(ctx, userID)
	if err != nil {
		return nil, err
	}
	if protocols == nil {
		protocols = []domain.Protocol{}
	}
	return protocols, nil
}

func (s *protocolService) Get(ctx context.Context, userID, protocolID primitive.ObjectID) (*domain.Protocol, error) {
	protocol, err := s.protocolRepo.GetByID(ctx, protocolID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &planner.NotFoundError{Kind: "protocol", ID: protocolID.Hex()}
		}
		return nil, err
	}
	if !protocolVisibleTo(protocol, userID) {
		return nil, &planner.NotFoundError{Kind: "protocol", ID: protocolID.Hex()}
	}
	return protocol, nil
}

// SeedLibrary keeps going after a failed protocol so one bad entry does not
// block the rest of the library.
func (s *protocolService) SeedLibrary(ctx context.Context, protocols []domain.Protocol) (int, error) {
	var errs error
	seeded := 0
	for i := range protocols {
		p := protocols[i]
		p.IsPublic = true
		if err := p.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("protocol %s: %w", p.Slug, err))
			continue
		}
		if err := s.protocolRepo.UpsertBySlug(ctx, &p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("protocol %s: %w", p.Slug, err))
			continue
		}
		seeded++
	}

	logrus.WithFields(logrus.Fields{
		"seeded": seeded,
		"failed": len(multierr.Errors(errs)),
	}).Info("curated protocol library seeded")

	return seeded, errs
}

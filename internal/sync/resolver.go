package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
)

// SignalementStore is the slice of the relational side the pipelines need.
// Implemented by service.SignalementService.
type SignalementStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Signalement, error)
	FindByLocation(ctx context.Context, latitude, longitude float64) ([]model.Signalement, error)
	Create(ctx context.Context, s *model.Signalement) error
}

// DocumentStore is the slice of the document store the pipelines need.
// Implemented by firestore.Client.
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]firestore.Document, error)
	Get(ctx context.Context, collection, id string) (*firestore.Document, error)
	Create(ctx context.Context, collection string, fields map[string]firestore.Value) (string, error)
	Patch(ctx context.Context, collection, id string, fields map[string]firestore.Value, mask []string) error
}

// MatchResult says whether an external record already has a relational
// counterpart.
type MatchResult struct {
	Matched       bool
	SignalementID uint64
}

// Resolver decides whether an incoming record is already known. The
// cross-store id is authoritative; exact-location matching is a
// bootstrapping fallback for records ingested before they carried one.
type Resolver struct {
	store SignalementStore
}

func NewResolver(store SignalementStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve is read-only; it mutates neither store. On the location branch the
// first row in store-default order wins, which is practically unique since
// coordinates are continuous.
func (r *Resolver) Resolve(ctx context.Context, rec Record) (MatchResult, error) {
	if rec.PostgresID != nil {
		s, err := r.store.GetByID(ctx, *rec.PostgresID)
		if err == nil {
			return MatchResult{Matched: true, SignalementID: s.ID}, nil
		}
		if !errors.Is(err, errs.ErrSignalementNotFound) {
			return MatchResult{}, fmt.Errorf("resolve by id %d: %w", *rec.PostgresID, err)
		}
	}

	if rec.Latitude == nil || rec.Longitude == nil {
		return MatchResult{}, nil
	}
	existing, err := r.store.FindByLocation(ctx, *rec.Latitude, *rec.Longitude)
	if err != nil {
		return MatchResult{}, fmt.Errorf("resolve by location: %w", err)
	}
	if len(existing) > 0 {
		return MatchResult{Matched: true, SignalementID: existing[0].ID}, nil
	}
	return MatchResult{}, nil
}

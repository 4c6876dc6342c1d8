package sync

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/madio-cloud/signalement-service/internal/errs"
)

// coordTolerance bounds the reverse coordinate scan, roughly ten meters.
const coordTolerance = 1e-4

// PropagateResult reports a successful push of one signalement.
type PropagateResult struct {
	SignalementID uint64 `json:"signalement_id"`
	DocumentID    string `json:"document_id"`
}

// PropagateSignalement pushes the authoritative fields of a signalement into
// its matched document. It never creates documents: the mobile client is the
// sole authority for record creation, so a missing counterpart surfaces as
// errs.ErrNoMatch. The merge preserves mobile-owned fields, making the
// operation safely retryable.
func (s *Syncer) PropagateSignalement(ctx context.Context, id uint64) (*PropagateResult, error) {
	sig, err := s.Signalements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	documentID, err := s.findDocumentByPostgresID(ctx, id)
	if err != nil {
		return nil, err
	}
	if documentID == "" {
		documentID, err = s.findDocumentByCoordinates(ctx, sig.Latitude, sig.Longitude)
		if err != nil {
			return nil, err
		}
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: signalement %d has no document counterpart", errs.ErrNoMatch, id)
	}

	doc, err := s.Docs.Get(ctx, CollectionSignalements, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", documentID, err)
	}

	fields := MergeFields(sig, doc.Fields)
	if err := s.Docs.Patch(ctx, CollectionSignalements, documentID, fields, fieldNames(fields)); err != nil {
		return nil, fmt.Errorf("update document %s: %w", documentID, err)
	}

	log.Printf("sync: signalement %d propagated to document %s", id, documentID)
	return &PropagateResult{SignalementID: id, DocumentID: documentID}, nil
}

func (s *Syncer) findDocumentByPostgresID(ctx context.Context, postgresID uint64) (string, error) {
	docs, err := s.Docs.List(ctx, CollectionSignalements)
	if err != nil {
		return "", fmt.Errorf("list signalements: %w", err)
	}
	for _, doc := range docs {
		rec := RecordFromDocument(doc)
		if rec.PostgresID != nil && *rec.PostgresID == postgresID {
			return rec.DocumentID, nil
		}
	}
	return "", nil
}

func (s *Syncer) findDocumentByCoordinates(ctx context.Context, latitude, longitude float64) (string, error) {
	docs, err := s.Docs.List(ctx, CollectionSignalements)
	if err != nil {
		return "", fmt.Errorf("list signalements: %w", err)
	}
	for _, doc := range docs {
		rec := RecordFromDocument(doc)
		if rec.Latitude == nil || rec.Longitude == nil {
			continue
		}
		if math.Abs(*rec.Latitude-latitude) < coordTolerance &&
			math.Abs(*rec.Longitude-longitude) < coordTolerance {
			return rec.DocumentID, nil
		}
	}
	return "", nil
}

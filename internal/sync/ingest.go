package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
)

// UserStore resolves submitters and tracks account mirroring. Implemented by
// service.UserService.
type UserStore interface {
	FindByEmailOrFirebaseUID(ctx context.Context, email, firebaseUID string) (*model.User, error)
	ListUnmirrored(ctx context.Context) ([]model.User, error)
	SetDocumentID(ctx context.Context, id uint64, documentID string) error
}

// EntrepriseStore resolves assigned companies. Implemented by
// service.EntrepriseService.
type EntrepriseStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Entreprise, error)
}

// Deps are the collaborators of the sync pipelines.
type Deps struct {
	Docs         DocumentStore
	Signalements SignalementStore
	Users        UserStore
	Entreprises  EntrepriseStore
}

// Syncer runs both directions of the reconciliation: document store →
// relational (ingestion) and relational → document store (propagation).
type Syncer struct {
	Deps
	resolver *Resolver
}

func NewSyncer(deps Deps) *Syncer {
	return &Syncer{Deps: deps, resolver: NewResolver(deps.Signalements)}
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	TotalFound int      `json:"total_found"`
	Unsynced   int      `json:"unsynced"`
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	CreatedIDs []uint64 `json:"created_ids"`
	Errors     []string `json:"errors"`
}

// IngestSignalements pulls every record from the signalements collection and
// mirrors the unsynchronized ones into the relational store. Per-record
// failures are collected and never abort the batch; a failed listing aborts
// the whole run with zero progress.
//
// The run is idempotent: a record whose relational row already exists (by
// cross-store id or exact location) is only re-marked synchronized, so
// retrying after a failed write-back cannot create duplicates.
func (s *Syncer) IngestSignalements(ctx context.Context) (*IngestResult, error) {
	docs, err := s.Docs.List(ctx, CollectionSignalements)
	if err != nil {
		return nil, fmt.Errorf("list signalements: %w", err)
	}

	res := &IngestResult{
		TotalFound: len(docs),
		CreatedIDs: []uint64{},
		Errors:     []string{},
	}
	for _, doc := range docs {
		rec := RecordFromDocument(doc)
		if rec.SyncedToPostgres {
			continue
		}
		res.Unsynced++

		created, err := s.ingestOne(ctx, rec)
		switch {
		case err != nil:
			log.Printf("sync: ingest %s: %v", rec.DocumentID, err)
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("signalement %s: %v", rec.DocumentID, err))
		case created != 0:
			res.Created++
			res.CreatedIDs = append(res.CreatedIDs, created)
		default:
			res.Skipped++
		}
	}

	log.Printf("sync: ingestion done: %d found, %d unsynced, %d created, %d skipped, %d failed",
		res.TotalFound, res.Unsynced, res.Created, res.Skipped, res.Failed)
	return res, nil
}

// ingestOne processes a single unsynced record. It returns the id of the
// newly created signalement, or zero when the record matched an existing row
// and only the synchronization marker was written.
func (s *Syncer) ingestOne(ctx context.Context, rec Record) (uint64, error) {
	if rec.Latitude == nil || rec.Longitude == nil {
		return 0, fmt.Errorf("%w: latitude/longitude missing", errs.ErrMalformed)
	}

	match, err := s.resolver.Resolve(ctx, rec)
	if err != nil {
		return 0, err
	}
	if match.Matched {
		// Self-healing branch: the row exists but the flag write-back failed
		// on a prior run. Re-mark and move on. Field-level divergence between
		// the row and the record is not reconciled here.
		if err := s.markSynced(ctx, rec.DocumentID, match.SignalementID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	sig, err := ToSignalement(rec)
	if err != nil {
		return 0, err
	}
	if user := s.lookupUser(ctx, rec); user != nil {
		sig.UserID = &user.ID
	}
	if rec.IDEntreprise != nil {
		if e, err := s.Entreprises.GetByID(ctx, *rec.IDEntreprise); err == nil {
			sig.EntrepriseID = &e.ID
		} else if !errors.Is(err, errs.ErrEntrepriseNotFound) {
			return 0, fmt.Errorf("resolve entreprise %d: %w", *rec.IDEntreprise, err)
		}
	}

	if err := s.Signalements.Create(ctx, sig); err != nil {
		return 0, fmt.Errorf("create signalement: %w", err)
	}

	// If this write-back fails the relational insert has already happened;
	// the next run recovers through the location fallback instead of
	// inserting a duplicate.
	if err := s.markSynced(ctx, rec.DocumentID, sig.ID); err != nil {
		log.Printf("sync: signalement %d created but mark-synced failed for %s: %v", sig.ID, rec.DocumentID, err)
	}
	return sig.ID, nil
}

func (s *Syncer) lookupUser(ctx context.Context, rec Record) *model.User {
	email, uid := "", ""
	if rec.UserEmail != nil {
		email = *rec.UserEmail
	}
	if rec.FirebaseUID != nil {
		uid = *rec.FirebaseUID
	}
	if email == "" && uid == "" {
		return nil
	}
	user, err := s.Users.FindByEmailOrFirebaseUID(ctx, email, uid)
	if err != nil {
		if !errors.Is(err, errs.ErrUserNotFound) {
			log.Printf("sync: lookup user %q/%q: %v", email, uid, err)
		}
		return nil
	}
	return user
}

// markSynced writes the synchronization marker and the cross-store id back
// to the document. Monotonic: syncedToPostgres only ever goes false→true.
func (s *Syncer) markSynced(ctx context.Context, documentID string, postgresID uint64) error {
	fields := map[string]firestore.Value{
		"syncedToPostgres": firestore.Boolean(true),
		"postgresId":       firestore.Integer(int64(postgresID)),
	}
	if err := s.Docs.Patch(ctx, CollectionSignalements, documentID, fields, []string{"syncedToPostgres", "postgresId"}); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

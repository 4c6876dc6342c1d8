package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestSignalementsCreatesRows(t *testing.T) {
	db := setupDB(t)
	user := model.User{Email: "rakoto@example.mg", FirebaseUID: "uid-1"}
	require.NoError(t, db.Create(&user).Error)
	ent := model.Entreprise{Nom: "Colas Madagascar"}
	require.NoError(t, db.Create(&ent).Error)

	docs := newFakeDocStore()
	docs.put(CollectionSignalements, "doc-1", map[string]firestore.Value{
		"latitude":         firestore.Double(48.85),
		"longitude":        firestore.Double(2.35),
		"description":      firestore.String("Nid de poule avenue"),
		"userEmail":        firestore.String("rakoto@example.mg"),
		"idEntreprise":     firestore.Integer(int64(ent.ID)),
		"syncedToPostgres": firestore.Boolean(false),
	})

	syncer := newTestSyncer(db, docs)
	res, err := syncer.IngestSignalements(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, 1, res.Unsynced)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, res.CreatedIDs, 1)

	sig, err := syncer.Signalements.GetByID(context.Background(), res.CreatedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, sig.Status)
	assert.Equal(t, 0, sig.Avancement)
	assert.Equal(t, 48.85, sig.Latitude)
	assert.Equal(t, 2.35, sig.Longitude)
	require.NotNil(t, sig.UserID)
	assert.Equal(t, user.ID, *sig.UserID)
	require.NotNil(t, sig.EntrepriseID)
	assert.Equal(t, ent.ID, *sig.EntrepriseID)

	// the document carries the marker and the cross-store id after the run
	fields := docs.fields(CollectionSignalements, "doc-1")
	synced, _ := fields["syncedToPostgres"].AsBool()
	assert.True(t, synced)
	pgID, _ := fields["postgresId"].AsInt64()
	assert.Equal(t, int64(sig.ID), pgID)
}

func TestIngestSkipsAlreadySyncedRecords(t *testing.T) {
	db := setupDB(t)
	docs := newFakeDocStore()
	docs.put(CollectionSignalements, "doc-1", map[string]firestore.Value{
		"latitude":         firestore.Double(48.85),
		"longitude":        firestore.Double(2.35),
		"syncedToPostgres": firestore.Boolean(true),
	})

	syncer := newTestSyncer(db, docs)
	res, err := syncer.IngestSignalements(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, 0, res.Unsynced)
	assert.Equal(t, 0, res.Created)

	var count int64
	db.Model(&model.Signalement{}).Count(&count)
	assert.Zero(t, count)
}

func TestIngestMalformedRecordDoesNotAbortBatch(t *testing.T) {
	db := setupDB(t)
	docs := newFakeDocStore()
	docs.put(CollectionSignalements, "doc-1", map[string]firestore.Value{
		"latitude":  firestore.Double(48.85),
		"longitude": firestore.Double(2.35),
	})
	docs.put(CollectionSignalements, "doc-2", map[string]firestore.Value{
		"latitude": firestore.Double(48.86), // longitude missing
	})
	docs.put(CollectionSignalements, "doc-3", map[string]firestore.Value{
		"latitude":  firestore.Double(48.87),
		"longitude": firestore.Double(2.37),
	})

	syncer := newTestSyncer(db, docs)
	res, err := syncer.IngestSignalements(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Unsynced)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "doc-2")

	var count int64
	db.Model(&model.Signalement{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestIngestRecoversFromFailedWriteBack(t *testing.T) {
	db := setupDB(t)
	docs := newFakeDocStore()
	docs.put(CollectionSignalements, "doc-1", map[string]firestore.Value{
		"latitude":  firestore.Double(48.85),
		"longitude": firestore.Double(2.35),
	})
	docs.patchErr["doc-1"] = errs.ErrUnavailable

	syncer := newTestSyncer(db, docs)
	res, err := syncer.IngestSignalements(context.Background())
	require.NoError(t, err)
	// the insert happened even though the marker write-back did not
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.CreatedIDs, 1)
	createdID := res.CreatedIDs[0]

	fields := docs.fields(CollectionSignalements, "doc-1")
	_, hasMarker := fields["syncedToPostgres"]
	assert.False(t, hasMarker)

	// second run: the location fallback finds the row, re-marks, no duplicate
	delete(docs.patchErr, "doc-1")
	res, err = syncer.IngestSignalements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Skipped)

	var count int64
	db.Model(&model.Signalement{}).Count(&count)
	assert.Equal(t, int64(1), count)

	fields = docs.fields(CollectionSignalements, "doc-1")
	synced, _ := fields["syncedToPostgres"].AsBool()
	assert.True(t, synced)
	pgID, _ := fields["postgresId"].AsInt64()
	assert.Equal(t, int64(createdID), pgID)
}

func TestIngestRemarksRecordMatchedByID(t *testing.T) {
	db := setupDB(t)
	existing := model.Signalement{Latitude: -18.91, Longitude: 47.52}
	require.NoError(t, db.Create(&existing).Error)

	docs := newFakeDocStore()
	docs.put(CollectionSignalements, "doc-1", map[string]firestore.Value{
		"latitude":   firestore.Double(0.0),
		"longitude":  firestore.Double(0.0),
		"postgresId": firestore.Integer(int64(existing.ID)),
	})

	syncer := newTestSyncer(db, docs)
	res, err := syncer.IngestSignalements(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Skipped)

	var count int64
	db.Model(&model.Signalement{}).Count(&count)
	assert.Equal(t, int64(1), count)

	synced, _ := docs.fields(CollectionSignalements, "doc-1")["syncedToPostgres"].AsBool()
	assert.True(t, synced)
}

func TestIngestListFailureAbortsRun(t *testing.T) {
	db := setupDB(t)
	docs := newFakeDocStore()
	docs.listErr = errs.ErrUnavailable

	syncer := newTestSyncer(db, docs)
	_, err := syncer.IngestSignalements(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))

	var count int64
	db.Model(&model.Signalement{}).Count(&count)
	assert.Zero(t, count)
}

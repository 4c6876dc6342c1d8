package sync

import (
	"context"
	"testing"

	"github.com/madio-cloud/signalement-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorUsersCreatesDocuments(t *testing.T) {
	db := setupDB(t)
	pending := model.User{Email: "rakoto@example.mg", Nom: "Rakoto", Prenom: "Jean", FirebaseUID: "uid-1"}
	done := model.User{Email: "rabe@example.mg", DocumentID: "existing-doc"}
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Create(&done).Error)

	docs := newFakeDocStore()
	syncer := newTestSyncer(db, docs)

	res, err := syncer.MirrorUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Mirrored)
	assert.Equal(t, 0, res.Failed)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, pending.ID).Error)
	require.NotEmpty(t, reloaded.DocumentID)

	fields := docs.fields(CollectionUsers, reloaded.DocumentID)
	require.NotNil(t, fields)
	email, _ := fields["email"].AsString()
	assert.Equal(t, "rakoto@example.mg", email)
	pgID, _ := fields["postgresId"].AsInt64()
	assert.Equal(t, int64(pending.ID), pgID)
	uid, _ := fields["firebaseUid"].AsString()
	assert.Equal(t, "uid-1", uid)
}

func TestMirrorUsersOmitsEmptyFirebaseUID(t *testing.T) {
	db := setupDB(t)
	u := model.User{Email: "vero@example.mg"}
	require.NoError(t, db.Create(&u).Error)

	docs := newFakeDocStore()
	syncer := newTestSyncer(db, docs)

	res, err := syncer.MirrorUsers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Mirrored)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, u.ID).Error)
	fields := docs.fields(CollectionUsers, reloaded.DocumentID)
	_, hasUID := fields["firebaseUid"]
	assert.False(t, hasUID)
}

func TestMirrorUsersSecondRunIsNoOp(t *testing.T) {
	db := setupDB(t)
	u := model.User{Email: "rakoto@example.mg"}
	require.NoError(t, db.Create(&u).Error)

	docs := newFakeDocStore()
	syncer := newTestSyncer(db, docs)

	_, err := syncer.MirrorUsers(context.Background())
	require.NoError(t, err)

	res, err := syncer.MirrorUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 1, docs.created)
}

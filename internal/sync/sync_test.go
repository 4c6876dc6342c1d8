package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
	"github.com/madio-cloud/signalement-service/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sync_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&model.Entreprise{},
		&model.User{},
		&model.Signalement{},
		&model.Notification{},
		&model.HistoriqueModifSignalement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestSyncer(db *gorm.DB, docs *fakeDocStore) *Syncer {
	return NewSyncer(Deps{
		Docs:         docs,
		Signalements: service.NewSignalementService(db),
		Users:        service.NewUserService(db),
		Entreprises:  service.NewEntrepriseService(db),
	})
}

// fakeDocStore is an in-memory DocumentStore. Patch honours the update mask
// the way the real API does, so write-back tests see exactly what the wire
// would carry.
type fakeDocStore struct {
	docs  map[string]map[string]map[string]firestore.Value
	order map[string][]string

	listErr   error
	createErr error
	patchErr  map[string]error

	patched []string
	created int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		docs:     map[string]map[string]map[string]firestore.Value{},
		order:    map[string][]string{},
		patchErr: map[string]error{},
	}
}

func (f *fakeDocStore) put(collection, id string, fields map[string]firestore.Value) {
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]firestore.Value{}
	}
	if _, exists := f.docs[collection][id]; !exists {
		f.order[collection] = append(f.order[collection], id)
	}
	f.docs[collection][id] = fields
}

func (f *fakeDocStore) fields(collection, id string) map[string]firestore.Value {
	return f.docs[collection][id]
}

func (f *fakeDocStore) List(_ context.Context, collection string) ([]firestore.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []firestore.Document
	for _, id := range f.order[collection] {
		out = append(out, f.document(collection, id))
	}
	return out, nil
}

func (f *fakeDocStore) Get(_ context.Context, collection, id string) (*firestore.Document, error) {
	if _, ok := f.docs[collection][id]; !ok {
		return nil, errs.ErrNotFound
	}
	doc := f.document(collection, id)
	return &doc, nil
}

func (f *fakeDocStore) Create(_ context.Context, collection string, fields map[string]firestore.Value) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	id := fmt.Sprintf("gen-%d", f.created)
	f.put(collection, id, fields)
	return id, nil
}

func (f *fakeDocStore) Patch(_ context.Context, collection, id string, fields map[string]firestore.Value, mask []string) error {
	if err := f.patchErr[id]; err != nil {
		return err
	}
	existing, ok := f.docs[collection][id]
	if !ok {
		return errs.ErrNotFound
	}
	for _, name := range mask {
		if v, ok := fields[name]; ok {
			existing[name] = v
		}
	}
	f.patched = append(f.patched, id)
	return nil
}

func (f *fakeDocStore) document(collection, id string) firestore.Document {
	return firestore.Document{
		Name:   "projects/test/databases/(default)/documents/" + collection + "/" + id,
		Fields: f.docs[collection][id],
	}
}

func ptr[T any](v T) *T { return &v }

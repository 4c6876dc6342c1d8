package sync

import (
	"github.com/madio-cloud/signalement-service/internal/firestore"
)

// Collections consumed on the document store side.
const (
	CollectionSignalements = "signalements"
	CollectionUsers        = "users"
)

// Record is a signalement as the mobile client stores it: every field
// individually optional, plus the synchronization markers. Absent fields
// stay nil so the mapper can distinguish "missing" from zero values.
type Record struct {
	DocumentID string

	Latitude  *float64
	Longitude *float64

	Description *string
	Status      *string
	Avancement  *int
	SurfaceM2   *float64
	Budget      *float64

	PhotoBase64 *string
	PhotoURL    *string

	IDEntreprise  *uint64
	EntrepriseNom *string

	UserEmail   *string
	FirebaseUID *string

	DateSignalement *string

	SyncedToPostgres   bool
	SyncedFromPostgres bool
	PostgresID         *uint64
}

// RecordFromDocument decodes the typed-field wire encoding into a Record.
// Unknown fields are ignored; typed-but-wrong fields read as absent.
func RecordFromDocument(doc firestore.Document) Record {
	f := doc.Fields
	rec := Record{DocumentID: doc.ID()}

	rec.Latitude = floatField(f, "latitude")
	rec.Longitude = floatField(f, "longitude")
	rec.Description = stringField(f, "description")
	rec.Status = stringField(f, "status")
	rec.SurfaceM2 = floatField(f, "surfaceM2")
	rec.Budget = floatField(f, "budget")
	rec.PhotoBase64 = stringField(f, "photoBase64")
	rec.PhotoURL = stringField(f, "photoUrl")
	rec.EntrepriseNom = stringField(f, "entrepriseNom")
	rec.UserEmail = stringField(f, "userEmail")
	rec.FirebaseUID = stringField(f, "firebaseUid")

	if v, ok := f["avancement"]; ok {
		if i, ok := v.AsInt64(); ok {
			a := int(i)
			rec.Avancement = &a
		}
	}
	if v, ok := f["idEntreprise"]; ok {
		if i, ok := v.AsInt64(); ok && i > 0 {
			id := uint64(i)
			rec.IDEntreprise = &id
		}
	}
	if v, ok := f["postgresId"]; ok {
		if i, ok := v.AsInt64(); ok && i > 0 {
			id := uint64(i)
			rec.PostgresID = &id
		}
	}
	if v, ok := f["dateSignalement"]; ok {
		if ts, ok := v.AsTimestamp(); ok {
			rec.DateSignalement = &ts
		}
	}
	if v, ok := f["syncedToPostgres"]; ok {
		b, _ := v.AsBool()
		rec.SyncedToPostgres = b
	}
	if v, ok := f["syncedFromPostgres"]; ok {
		b, _ := v.AsBool()
		rec.SyncedFromPostgres = b
	}
	return rec
}

func stringField(f map[string]firestore.Value, name string) *string {
	if v, ok := f[name]; ok {
		if s, ok := v.AsString(); ok {
			return &s
		}
	}
	return nil
}

func floatField(f map[string]firestore.Value, name string) *float64 {
	if v, ok := f[name]; ok {
		if fl, ok := v.AsFloat(); ok {
			return &fl
		}
	}
	return nil
}

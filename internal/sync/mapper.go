package sync

import (
	"fmt"
	"time"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
)

// Owner says which side of the sync is authoritative for a document field.
// Back-office-owned fields are overwritten on propagation; mobile-owned
// fields are copied from the existing document and never clobbered.
type Owner int

const (
	OwnerBackOffice Owner = iota
	OwnerMobile
)

// fieldOwners is the explicit ownership table for the signalements
// collection. New document fields must be registered here; unregistered
// fields default to mobile-owned (propagation leaves them alone).
var fieldOwners = map[string]Owner{
	"description":        OwnerBackOffice,
	"status":             OwnerBackOffice,
	"avancement":         OwnerBackOffice,
	"surfaceM2":          OwnerBackOffice,
	"budget":             OwnerBackOffice,
	"entrepriseNom":      OwnerBackOffice,
	"idEntreprise":       OwnerBackOffice,
	"postgresId":         OwnerBackOffice,
	"syncedToPostgres":   OwnerBackOffice,
	"syncedFromPostgres": OwnerBackOffice,
	"updatedAt":          OwnerBackOffice,

	"latitude":        OwnerMobile,
	"longitude":       OwnerMobile,
	"photoBase64":     OwnerMobile,
	"photoUrl":        OwnerMobile,
	"userEmail":       OwnerMobile,
	"firebaseUid":     OwnerMobile,
	"dateSignalement": OwnerMobile,
}

// FieldOwner reports the owning side of a document field.
func FieldOwner(name string) Owner {
	if o, ok := fieldOwners[name]; ok {
		return o
	}
	return OwnerMobile
}

// ToSignalement converts an external record into a relational row. Latitude
// and longitude are required; everything else falls back to documented
// defaults (status NEW, avancement 0).
func ToSignalement(rec Record) (*model.Signalement, error) {
	if rec.Latitude == nil || rec.Longitude == nil {
		return nil, fmt.Errorf("%w: signalement %s: latitude/longitude missing", errs.ErrMalformed, rec.DocumentID)
	}

	s := &model.Signalement{
		Latitude:   *rec.Latitude,
		Longitude:  *rec.Longitude,
		Status:     model.StatusNew,
		Avancement: 0,
	}
	if rec.Description != nil {
		s.Description = *rec.Description
	}
	if rec.Status != nil && model.Status(*rec.Status).Valid() {
		s.Status = model.Status(*rec.Status)
	}
	if rec.Avancement != nil {
		s.Avancement = *rec.Avancement
	}
	if rec.SurfaceM2 != nil {
		v := *rec.SurfaceM2
		s.SurfaceM2 = &v
	}
	if rec.Budget != nil {
		v := *rec.Budget
		s.Budget = &v
	}
	if rec.PhotoBase64 != nil {
		s.PhotoBase64 = *rec.PhotoBase64
	}
	if rec.PhotoURL != nil {
		s.PhotoURL = *rec.PhotoURL
	}
	s.DateSignalement = parseRecordDate(rec.DateSignalement)
	return s, nil
}

func parseRecordDate(raw *string) time.Time {
	if raw == nil {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// MergeFields builds the document field set for propagation. Mobile-owned
// fields are carried over from prev verbatim when present; back-office-owned
// fields come from the signalement. The result is a full field map suitable
// for a masked PATCH.
func MergeFields(s *model.Signalement, prev map[string]firestore.Value) map[string]firestore.Value {
	fields := make(map[string]firestore.Value)

	for name, v := range prev {
		if FieldOwner(name) != OwnerMobile {
			continue
		}
		// An empty photo slot on the document is not worth writing back.
		if name == "photoBase64" || name == "photoUrl" {
			if sv, ok := v.AsString(); ok && sv == "" {
				continue
			}
		}
		fields[name] = v
	}

	fields["status"] = firestore.String(string(s.Status))
	avancement := s.Avancement
	if avancement == 0 {
		avancement = s.Status.Progress()
	}
	fields["avancement"] = firestore.Integer(int64(avancement))
	if s.Description != "" {
		fields["description"] = firestore.String(s.Description)
	}
	if s.Budget != nil {
		fields["budget"] = firestore.Double(*s.Budget)
	}
	if s.SurfaceM2 != nil {
		fields["surfaceM2"] = firestore.Double(*s.SurfaceM2)
	}
	if s.Entreprise != nil {
		fields["entrepriseNom"] = firestore.String(s.Entreprise.Nom)
		fields["idEntreprise"] = firestore.Integer(int64(s.Entreprise.ID))
	}
	fields["postgresId"] = firestore.Integer(int64(s.ID))
	fields["syncedToPostgres"] = firestore.Boolean(true)
	fields["syncedFromPostgres"] = firestore.Boolean(true)
	fields["updatedAt"] = firestore.Timestamp(time.Now())

	return fields
}

// fieldNames returns the update mask for a merged field set.
func fieldNames(fields map[string]firestore.Value) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

package model

import "time"

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	return s == StatusNew || s == StatusInProgress || s == StatusDone
}

// Progress returns the percentage associated with a status.
func (s Status) Progress() int {
	switch s {
	case StatusInProgress:
		return 50
	case StatusDone:
		return 100
	default:
		return 0
	}
}

// Label is the human-readable form used in notifications.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New (0%)"
	case StatusInProgress:
		return "In progress (50%)"
	case StatusDone:
		return "Done (100%)"
	default:
		return string(s)
	}
}

// Signalement is a road-damage report. It is created either by ingestion
// from the document store or directly by back-office input. Latitude and
// longitude are mandatory and serve as the fallback matching key.
type Signalement struct {
	ID          uint64   `gorm:"primaryKey" json:"id"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	Latitude    float64  `gorm:"not null;index:idx_signalements_location" json:"latitude"`
	Longitude   float64  `gorm:"not null;index:idx_signalements_location" json:"longitude"`
	Status      Status   `gorm:"type:varchar(20);index;not null;default:'NEW'" json:"status"`
	Avancement  int      `gorm:"not null;default:0" json:"avancement"`
	SurfaceM2   *float64 `gorm:"type:decimal(10,2)" json:"surface_m2,omitempty"`
	Budget      *float64 `gorm:"type:decimal(15,2)" json:"budget,omitempty"`

	PhotoBase64 string `gorm:"type:text" json:"photo_base64,omitempty"`
	PhotoURL    string `gorm:"type:varchar(512)" json:"photo_url,omitempty"`

	EntrepriseID *uint64     `gorm:"index" json:"entreprise_id,omitempty"`
	Entreprise   *Entreprise `json:"entreprise,omitempty"`
	UserID       *uint64     `gorm:"index" json:"user_id,omitempty"`
	User         *User       `json:"user,omitempty"`

	// DateSignalement is set once at creation and never mutated.
	DateSignalement time.Time `gorm:"autoCreateTime" json:"date_signalement"`
	// DateModification is set only when the status changes.
	DateModification *time.Time `json:"date_modification,omitempty"`
}

type Entreprise struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	Nom       string `gorm:"not null" json:"nom"`
	Adresse   string `json:"adresse,omitempty"`
	Telephone string `gorm:"type:varchar(20)" json:"telephone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type User struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Nom         string `json:"nom,omitempty"`
	Prenom      string `json:"prenom,omitempty"`
	FirebaseUID string `gorm:"index" json:"firebase_uid,omitempty"`
	// DocumentID is the mirrored document in the users collection, set once
	// the account has been pushed to the document store.
	DocumentID string `gorm:"index" json:"document_id,omitempty"`
	IsBlocked  bool   `gorm:"not null;default:false" json:"is_blocked"`

	CreatedAt time.Time `json:"created_at"`
}

// Notification is created once per accepted status change when the
// signalement has a submitter. IsRead is the only mutable field.
type Notification struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	Description   string `gorm:"type:text" json:"description"`
	UserID        uint64 `gorm:"index;not null" json:"user_id"`
	SignalementID uint64 `gorm:"index;not null" json:"signalement_id"`

	DateNotif time.Time `gorm:"autoCreateTime" json:"date_notif"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
}

// HistoriqueModifSignalement is the append-only audit trail of status
// transitions. UserID is nil for system-triggered transitions.
type HistoriqueModifSignalement struct {
	ID            uint64  `gorm:"primaryKey" json:"id"`
	UserID        *uint64 `gorm:"index" json:"user_id,omitempty"`
	SignalementID uint64  `gorm:"index;not null" json:"signalement_id"`

	DateModif     time.Time `gorm:"autoCreateTime" json:"date_modif"`
	StatusAncien  Status    `gorm:"type:varchar(20)" json:"status_ancien"`
	StatusNouveau Status    `gorm:"type:varchar(20)" json:"status_nouveau"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/model"
	"gorm.io/gorm"
)

// SignalementServicer is the interface consumed by handlers and the sync
// pipelines (dependency inversion, mock-friendly).
type SignalementServicer interface {
	Create(ctx context.Context, s *model.Signalement) error
	GetByID(ctx context.Context, id uint64) (*model.Signalement, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Signalement, int64, error)
	FindByLocation(ctx context.Context, latitude, longitude float64) ([]model.Signalement, error)
	Update(ctx context.Context, id uint64, changes map[string]interface{}, actingUserID *uint64) (*model.Signalement, error)
	ChangeStatus(ctx context.Context, id uint64, newStatus model.Status, actingUserID *uint64) (*model.Signalement, bool, error)
}

type SignalementService struct {
	db *gorm.DB
}

func NewSignalementService(db *gorm.DB) *SignalementService {
	return &SignalementService{db: db}
}

func (s *SignalementService) Create(ctx context.Context, sig *model.Signalement) error {
	if sig.Status == "" {
		sig.Status = model.StatusNew
	}
	if !sig.Status.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidStatus, sig.Status)
	}
	return s.db.WithContext(ctx).Create(sig).Error
}

func (s *SignalementService) GetByID(ctx context.Context, id uint64) (*model.Signalement, error) {
	var sig model.Signalement
	err := s.db.WithContext(ctx).Preload("Entreprise").Preload("User").First(&sig, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSignalementNotFound
		}
		return nil, err
	}
	return &sig, nil
}

func (s *SignalementService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Signalement, int64, error) {
	var items []model.Signalement
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Signalement{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Preload("Entreprise").Order("date_signalement DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByLocation matches rows by exact coordinate pair. This is the
// bootstrapping fallback key of the matching resolver.
func (s *SignalementService) FindByLocation(ctx context.Context, latitude, longitude float64) ([]model.Signalement, error) {
	var items []model.Signalement
	err := s.db.WithContext(ctx).
		Where("latitude = ? AND longitude = ?", latitude, longitude).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies back-office edits. A status change inside the change set
// goes through the same transition bookkeeping as ChangeStatus: history
// entry, notification, modification timestamp, all in one transaction.
func (s *SignalementService) Update(ctx context.Context, id uint64, changes map[string]interface{}, actingUserID *uint64) (*model.Signalement, error) {
	var out *model.Signalement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sig, err := lockSignalement(tx, id)
		if err != nil {
			return err
		}

		if raw, ok := changes["status"]; ok {
			newStatus := model.Status(fmt.Sprint(raw))
			if !newStatus.Valid() {
				return fmt.Errorf("%w: %q", errs.ErrInvalidStatus, newStatus)
			}
			delete(changes, "status")
			if newStatus != sig.Status {
				if err := applyTransition(tx, sig, newStatus, actingUserID); err != nil {
					return err
				}
			}
		}
		if len(changes) > 0 {
			if err := tx.Model(sig).Updates(changes).Error; err != nil {
				return err
			}
		}
		out = sig
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, out.ID)
}

// ChangeStatus runs the status transition workflow. Requesting the current
// status is a no-op: no history entry, no notification, no timestamp bump —
// the returned bool is false so callers skip their side effects too
// (propagation, events). Otherwise the status mutation, the history entry
// and the submitter notification commit as one transaction.
func (s *SignalementService) ChangeStatus(ctx context.Context, id uint64, newStatus model.Status, actingUserID *uint64) (*model.Signalement, bool, error) {
	if !newStatus.Valid() {
		return nil, false, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, newStatus)
	}

	var out *model.Signalement
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sig, err := lockSignalement(tx, id)
		if err != nil {
			return err
		}
		if sig.Status == newStatus {
			out = sig
			return nil
		}
		if err := applyTransition(tx, sig, newStatus, actingUserID); err != nil {
			return err
		}
		changed = true
		out = sig
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

func lockSignalement(tx *gorm.DB, id uint64) (*model.Signalement, error) {
	var sig model.Signalement
	if err := tx.First(&sig, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSignalementNotFound
		}
		return nil, err
	}
	return &sig, nil
}

func applyTransition(tx *gorm.DB, sig *model.Signalement, newStatus model.Status, actingUserID *uint64) error {
	oldStatus := sig.Status
	now := time.Now().UTC()

	sig.Status = newStatus
	sig.Avancement = newStatus.Progress()
	sig.DateModification = &now
	if err := tx.Model(sig).Updates(map[string]interface{}{
		"status":            sig.Status,
		"avancement":        sig.Avancement,
		"date_modification": sig.DateModification,
	}).Error; err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	historique := model.HistoriqueModifSignalement{
		UserID:        actingUserID,
		SignalementID: sig.ID,
		StatusAncien:  oldStatus,
		StatusNouveau: newStatus,
	}
	if err := tx.Create(&historique).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	if sig.UserID != nil {
		notification := model.Notification{
			UserID:        *sig.UserID,
			SignalementID: sig.ID,
			Description: fmt.Sprintf("Votre signalement #%d a été mis à jour. Nouveau statut : %s",
				sig.ID, newStatus.Label()),
		}
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}
	return nil
}

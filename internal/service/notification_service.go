package service

import (
	"context"
	"errors"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/model"
	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	var items []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_notif DESC").
		Find(&items).Error
	return items, err
}

func (s *NotificationService) ListUnreadByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	var items []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("date_notif DESC").
		Find(&items).Error
	return items, err
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips the read flag, the only mutable field of a notification.
func (s *NotificationService) MarkRead(ctx context.Context, id uint64) (*model.Notification, error) {
	var n model.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotificationNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	return &n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

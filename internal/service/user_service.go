package service

import (
	"context"
	"errors"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/model"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmailOrFirebaseUID resolves a submitter reference coming from the
// document store. The uid is tried first; it is the stronger key.
func (s *UserService) FindByEmailOrFirebaseUID(ctx context.Context, email, firebaseUID string) (*model.User, error) {
	var u model.User
	if firebaseUID != "" {
		err := s.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&u).Error
		if err == nil {
			return &u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email != "" {
		err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
		if err == nil {
			return &u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, errs.ErrUserNotFound
}

// ListUnmirrored returns accounts that have not been pushed to the document
// store yet.
func (s *UserService) ListUnmirrored(ctx context.Context) ([]model.User, error) {
	var items []model.User
	err := s.db.WithContext(ctx).Where("document_id = '' OR document_id IS NULL").Find(&items).Error
	return items, err
}

func (s *UserService) SetDocumentID(ctx context.Context, id uint64, documentID string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("document_id", documentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/model"
	"gorm.io/gorm"
)

type EntrepriseService struct {
	db *gorm.DB
}

func NewEntrepriseService(db *gorm.DB) *EntrepriseService {
	return &EntrepriseService{db: db}
}

func (s *EntrepriseService) Create(ctx context.Context, e *model.Entreprise) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *EntrepriseService) GetByID(ctx context.Context, id uint64) (*model.Entreprise, error) {
	var e model.Entreprise
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrEntrepriseNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *EntrepriseService) List(ctx context.Context) ([]model.Entreprise, error) {
	var items []model.Entreprise
	err := s.db.WithContext(ctx).Order("nom").Find(&items).Error
	return items, err
}

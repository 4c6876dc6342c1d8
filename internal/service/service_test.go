package service

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/madio-cloud/signalement-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "service_test.db")), &gorm.Config{
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

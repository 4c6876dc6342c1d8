package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/madio-cloud/signalement-service/internal/config"
	"github.com/madio-cloud/signalement-service/internal/database"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/service"
	"github.com/madio-cloud/signalement-service/internal/sync"
	"github.com/spf13/cobra"
)

var syncSignalementsCmd = &cobra.Command{
	Use:   "sync-signalements",
	Short: "Run one ingestion pass: document store → PostgreSQL",
	RunE:  runSyncSignalements,
}

func runSyncSignalements(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	syncer := sync.NewSyncer(sync.Deps{
		Docs:         firestore.NewClient(cfg.FirestoreProjectID, cfg.FirestoreBaseURL),
		Signalements: service.NewSignalementService(db),
		Users:        service.NewUserService(db),
		Entreprises:  service.NewEntrepriseService(db),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := syncer.IngestSignalements(ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	log.Printf("sync-signalements: %d found, %d unsynced, %d created, %d skipped, %d failed",
		res.TotalFound, res.Unsynced, res.Created, res.Skipped, res.Failed)
	for _, e := range res.Errors {
		log.Printf("sync-signalements: error: %s", e)
	}
	return nil
}

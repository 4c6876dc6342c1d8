package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/madio-cloud/signalement-service/internal/config"
	"github.com/madio-cloud/signalement-service/internal/database"
	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/handler"
	"github.com/madio-cloud/signalement-service/internal/kafka"
	"github.com/madio-cloud/signalement-service/internal/router"
	"github.com/madio-cloud/signalement-service/internal/service"
	"github.com/madio-cloud/signalement-service/internal/sync"
)

// API wires the HTTP application (mode api).
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI builds the application: migrations, database, document store
// client, services, pipelines, router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	signalementSvc := service.NewSignalementService(db)
	notificationSvc := service.NewNotificationService(db)
	entrepriseSvc := service.NewEntrepriseService(db)
	userSvc := service.NewUserService(db)

	docs := firestore.NewClient(cfg.FirestoreProjectID, cfg.FirestoreBaseURL)
	syncer := sync.NewSyncer(sync.Deps{
		Docs:         docs,
		Signalements: signalementSvc,
		Users:        userSvc,
		Entreprises:  entrepriseSvc,
	})
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicSignalement)

	mux := router.New(router.Handlers{
		Signalement:  handler.NewSignalementHandler(signalementSvc, syncer, producer),
		Sync:         handler.NewSyncHandler(syncer),
		Notification: handler.NewNotificationHandler(notificationSvc),
		Entreprise:   handler.NewEntrepriseHandler(entrepriseSvc),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, httpSrv: httpSrv, producer: producer}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  API v1:        %s/api/v1/", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return a.producer.Close()
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/danmolina/clubs/docs"
	"github.com/danmolina/clubs/internal/club"
	"github.com/danmolina/clubs/internal/config"
	"github.com/danmolina/clubs/internal/database"
	"github.com/danmolina/clubs/internal/invitation"
	"github.com/danmolina/clubs/internal/messaging"
	"github.com/danmolina/clubs/internal/metrics"
	mw "github.com/danmolina/clubs/pkg/middleware"
	"github.com/danmolina/clubs/pkg/secret"
)

// @title        Clubs API
// @version      1.0
// @description  Membership, visibility and invitation management for project clubs
// @BasePath     /api/v1
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database")

	sealer, err := secret.NewSealer(cfg.DataKey)
	if err != nil {
		slog.Error("failed to initialize sealer", "error", err)
		os.Exit(1)
	}

	templates := club.DefaultTemplates()
	if cfg.WellKnownClubsJSON != "" {
		templates, err = club.ParseTemplates(cfg.WellKnownClubsJSON)
		if err != nil {
			slog.Error("failed to parse well-known club templates", "error", err)
			os.Exit(1)
		}
	}

	bus := messaging.Bus{
		Invitations:  messaging.NopPublisher{},
		MemberJoined: messaging.NopPublisher{},
	}
	if len(cfg.KafkaBrokers) > 0 {
		invitations := messaging.NewKafkaProducer(cfg.KafkaBrokers, cfg.TopicClubInvitation)
		memberJoined := messaging.NewKafkaProducer(cfg.KafkaBrokers, cfg.TopicMemberJoined)
		defer invitations.Close()
		defer memberJoined.Close()
		bus = messaging.Bus{Invitations: invitations, MemberJoined: memberJoined}
	}

	collector := metrics.NewCollector()

	clubRepo := club.NewPostgresRepository(db)
	clubService := club.NewService(clubRepo, bus.MemberJoined, templates, collector)
	clubHandler := club.NewHandler(clubService)

	tokenCfg := invitation.TokenConfig{
		Secret: []byte(cfg.TokenSecret),
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	}
	invitationService := invitation.NewService(clubRepo, bus, tokenCfg, sealer, collector)
	invitationHandler := invitation.NewHandler(invitationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.KafkaBrokers) > 0 {
		startConsumers(ctx, cfg, clubService)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(mw.ContributorCtx)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", collector.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/clubs", clubHandler.Routes())
		r.Mount("/clubs/{clubId}/invitations", invitationHandler.Routes())
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
}

// startConsumers wires the project-creation topics to well-known club
// provisioning.
func startConsumers(ctx context.Context, cfg *config.Config, service *club.Service) {
	projectCreated := messaging.NewConsumer(cfg.KafkaBrokers, cfg.TopicProjectCreated, cfg.KafkaGroupID)
	go projectCreated.Start(ctx, func(ctx context.Context, _, value []byte) error {
		var event messaging.ProjectCreatedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			slog.Error("failed to decode project created event", "error", err)
			return nil // malformed events are not retriable
		}
		requestor := club.Contributor{ID: event.CreatorContributor.ID, Email: event.CreatorContributor.Email}
		_, err := service.RegisterAllWellKnownClubs(ctx, requestor, club.Scope{ProjectID: event.ProjectID})
		return err
	})

	managementCreated := messaging.NewConsumer(cfg.KafkaBrokers, cfg.TopicProjectManagementCreated, cfg.KafkaGroupID)
	go managementCreated.Start(ctx, func(ctx context.Context, _, value []byte) error {
		var event messaging.ProjectManagementCreatedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			slog.Error("failed to decode project management created event", "error", err)
			return nil
		}
		requestor := club.Contributor{ID: event.CreatorContributor.ID, Email: event.CreatorContributor.Email}
		_, err := service.RegisterAllWellKnownClubs(ctx, requestor, club.Scope{ProjectManagementID: event.ProjectManagementID})
		return err
	})

	go func() {
		<-ctx.Done()
		projectCreated.Close()
		managementCreated.Close()
	}()
}

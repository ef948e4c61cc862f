package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/api/handlers"
	middleware "github.com/markdave123-py/chatterbox/internal/api/middlewares"
	"github.com/markdave123-py/chatterbox/internal/config"
	"github.com/markdave123-py/chatterbox/internal/core"
	db "github.com/markdave123-py/chatterbox/internal/core/database"
	objectclient "github.com/markdave123-py/chatterbox/internal/core/object-client"
	"github.com/markdave123-py/chatterbox/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Server       *Server
	log          zerolog.Logger
}

// NewApp connects the store and object storage, builds the services and wires the router.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Info().Bool("migrated", cfg.DBAutoMigrate).Msg("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	log.Info().Str("region", cfg.AwsRegion).Msg("object client initialized and ready")

	var (
		issuer   *services.SessionIssuer
		sessions middleware.SessionParser
	)
	if cfg.JWTSecret != "" {
		issuer = services.NewSessionIssuer(cfg.JWTSecret, cfg.JWTTTL)
		sessions = issuer
	}

	accounts, err := services.NewAccountService(dbClient, cfg.BcryptCost, issuer, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	files := services.NewFileService(dbClient, objClient, cfg.UploadMaxBytes, log)
	prompts := services.NewPromptService(dbClient, log)
	stats := services.NewStatisticsService(dbClient, loc, log)
	conversations := services.NewConversationService(dbClient, log)

	router := NewRouter(cfg, log, Handlers{
		Auth:      handlers.NewAuthHandler(accounts),
		Documents: handlers.NewDocumentHandler(files),
		Company:   handlers.NewCompanyHandler(prompts, stats, conversations),
		Health:    handlers.NewHealthHandler(dbClient),
	}, sessions)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Server:       NewServer(cfg, log, router),
		log:          log,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		if err := a.DBClient.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing database")
		}
	}
}

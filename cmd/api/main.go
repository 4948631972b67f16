// Command api serves the volunteer-hours HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/hourbook/volunteer-api/docs"
	"github.com/hourbook/volunteer-api/internal/api"
	"github.com/hourbook/volunteer-api/internal/core/ports"
	"github.com/hourbook/volunteer-api/internal/core/service"
	"github.com/hourbook/volunteer-api/internal/infrastructure/config"
	"github.com/hourbook/volunteer-api/internal/infrastructure/db/mongo"
	"github.com/hourbook/volunteer-api/internal/infrastructure/db/postgres"
	"github.com/hourbook/volunteer-api/internal/infrastructure/db/redis"
	"github.com/hourbook/volunteer-api/internal/infrastructure/http/handlers"
	"github.com/hourbook/volunteer-api/internal/infrastructure/identity/clerk"
	"github.com/hourbook/volunteer-api/internal/infrastructure/storage/s3"
	"github.com/hourbook/volunteer-api/internal/infrastructure/telemetry"
	"github.com/hourbook/volunteer-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

//	@title						Volunteer Hours API
//	@version					1.0
//	@description				Students log volunteer hours and attach signed approvals.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

// stores bundles the repositories of whichever backend DB_DRIVER selects.
type stores struct {
	users       ports.UserRepository
	submissions ports.SubmissionRepository
	readiness   map[string]handlers.PingFunc
	close       func()
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.Otel.ServiceName,
	})

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: cfg.Otel.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var profiles ports.ProfileFetcher = clerk.NewProfileFetcher(cfg.Clerk.APIURL, cfg.Clerk.SecretKey, nil)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		profiles = redis.NewProfileCache(rdb, profiles, cfg.Redis.ProfileTTL, logger.For("profile_cache"))
		st.readiness["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb, time.Second) }
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.ProfileTTL).Msg("profile cache enabled")
	}

	verifier := clerk.NewVerifier(clerk.VerifierConfig{
		JWKSURL:           cfg.Clerk.JWKSURL,
		APIURL:            cfg.Clerk.APIURL,
		SecretKey:         cfg.Clerk.SecretKey,
		Issuer:            cfg.Clerk.Issuer,
		AuthorizedParties: cfg.Clerk.AuthorizedParties,
	})

	storage, err := s3.New(ctx, s3.Config{
		Region:     cfg.S3.Region,
		BucketName: cfg.S3.BucketName,
		Endpoint:   cfg.S3.Endpoint,
	})
	if err != nil {
		return err
	}

	userSvc := service.NewUserService(st.users, logger.For("user_service"))
	submissionSvc := service.NewSubmissionService(st.submissions, storage, logger.For("submission_service"))
	authSvc := service.NewAuthService(verifier, profiles, userSvc, logger.For("auth"))

	e := api.NewRouter(api.Dependencies{
		Logger:      log,
		Auth:        authSvc,
		Users:       userSvc,
		Submissions: submissionSvc,
		Storage:     storage,
		Readiness:   st.readiness,
		CORSOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, cfg.Otel.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db_driver", cfg.DBDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongo.NewUserRepository(db)
		submissions := mongo.NewSubmissionRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := submissions.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			users:       users,
			submissions: submissions,
			readiness: map[string]handlers.PingFunc{
				"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			},
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = client.Disconnect(disconnectCtx)
			},
		}, nil

	default:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, logger.For("migrate")); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("database migrations applied")
		}
		return &stores{
			users:       postgres.NewUserRepository(pool),
			submissions: postgres.NewSubmissionRepository(pool),
			readiness: map[string]handlers.PingFunc{
				"postgres": pool.Ping,
			},
			close: pool.Close,
		}, nil
	}
}

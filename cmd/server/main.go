package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	staff "github.com/dundermifflin/staff-api"
	"github.com/dundermifflin/staff-api/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	seed := flag.Bool("seed", false, "create the default accounts and exit")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("staff-api"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("server")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())

	goose.SetBaseFS(staff.GetMigrationsFS())
	if err := goose.SetDialect("sqlite3"); err != nil {
		logger.Error("failed to set migration dialect", "error", err)
		os.Exit(1)
	}
	if err := goose.Up(sqldb, "data/sql/migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := staff.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := staff.NewTokenService(
		[]byte(cfg.JWTSecret),
		time.Duration(cfg.TokenExpirationHours)*time.Hour,
		lgr.GetLogger("tokens"),
	)

	var avatars staff.AvatarStorage = staff.NoAvatarStorage{}
	if cfg.S3Bucket != "" {
		store, err := staff.NewS3AvatarStore(context.Background(), staff.S3AvatarStoreOptions{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLTTL:    time.Duration(cfg.AvatarURLHours) * time.Hour,
		}, lgr.GetLogger("avatars"))
		if err != nil {
			logger.Error("failed to configure avatar storage", "error", err)
			os.Exit(1)
		}
		avatars = store
	}

	if *seed {
		if err := staff.SeedAccounts(context.Background(), repo); err != nil {
			logger.Error("failed to seed accounts", "error", err)
			os.Exit(1)
		}
		logger.Info("seed accounts in place")
		return
	}

	controller := staff.NewController(
		staff.WithRepositoryManager(repo),
		staff.WithTokenService(tokens),
		staff.WithAvatarStorage(avatars),
		staff.WithUserContextKey(cfg.ContextKey),
		staff.WithControllerLogger(lgr.GetLogger("http")),
	)

	app := fiber.New(fiber.Config{
		AppName:      "staff-api",
		ErrorHandler: staff.NewErrorHandler(lgr.GetLogger("http")),
	})
	app.Use(recover.New())

	gate := staff.NewAuthGate(cfg, tokens, repo.Users(), lgr.GetLogger("gate"))
	staff.RegisterRoutes(app, gate, controller)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("listening", "addr", cfg.ListenAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// Package server wires configuration, storage and services into the
// account service process and runs its HTTP and gRPC servers until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/mailer"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/rest"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"
	"github.com/dmitrijs2005/accountkeeper/internal/server/storage"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"

	gs "github.com/dmitrijs2005/accountkeeper/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *rest.Server
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	ids, err := cryptox.NewIDCipher(c.IDEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("id cipher init error: %w", err)
	}

	v, err := validation.New(c.MaxAvatarSize)
	if err != nil {
		return nil, fmt.Errorf("validator init error: %w", err)
	}

	mail, err := mailer.New(mailer.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	avatars, uploadsDir, err := newAvatarStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("avatar storage init error: %w", err)
	}

	uploads, err := rest.NewUploader(filepath.Join(c.StorageDir, c.TempDir), c.MaxAvatarSize)
	if err != nil {
		return nil, fmt.Errorf("upload dir init error: %w", err)
	}

	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)

	as := services.NewAuthService(db, rm, c, hasher, mail, v, logger)
	us := services.NewUserService(db, rm, c, hasher, ids, avatars, v, logger)

	router := rest.NewRouter(rest.NewHandlers(as, us, uploads, logger), rest.RouterOptions{
		AllowedOrigins: c.AllowedOrigins,
		UploadsDir:     uploadsDir,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   rest.NewServer(c.HTTPAddr, router, logger),
		grpc:   gs.NewGRPCServer(c.GRPCAddr, logger),
	}, nil
}

// newAvatarStore returns the configured avatar backend and, for the local
// one, the directory to serve under /storage/uploads/.
func newAvatarStore(ctx context.Context, c *config.Config) (storage.AvatarStore, string, error) {
	switch c.AvatarBackend {
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	default:
		s, err := storage.NewLocalStore(c.StorageDir, c.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return s, filepath.Join(c.StorageDir, c.UploadDir), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal or a server failure, then stops
// both servers and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server error", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

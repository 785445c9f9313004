// Package app builds the process-wide dependencies shared by the server and
// the admin commands.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"yapa/internal/config"
	"yapa/internal/repository"
	"yapa/internal/repository/postgres"
	"yapa/internal/repository/sqlite"
	"yapa/internal/storage"
)

// Stores groups the repositories of the configured database driver.
type Stores struct {
	Users repository.UserRepository
	Tasks repository.TaskRepository
	close func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// OpenStores connects to the configured database and creates missing tables.
func OpenStores(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Stores, error) {
	var stores *Stores
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		stores = &Stores{
			Users: postgres.NewUserRepository(pool),
			Tasks: postgres.NewTaskRepository(pool),
			close: pool.Close,
		}
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		stores = &Stores{
			Users: sqlite.NewUserRepository(db),
			Tasks: sqlite.NewTaskRepository(db),
			close: func() { _ = db.Close() },
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	// users first: tasks reference them
	if err := stores.Users.Init(ctx); err != nil {
		stores.Close()
		return nil, fmt.Errorf("init user repository: %w", err)
	}
	if err := stores.Tasks.Init(ctx); err != nil {
		stores.Close()
		return nil, fmt.Errorf("init task repository: %w", err)
	}

	logger.WithField("driver", cfg.Database.Driver).Info("database ready")
	return stores, nil
}

// BuildStorage returns the media backend selected by media.backend.
func BuildStorage(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (storage.Service, error) {
	if cfg.Media.Backend != "s3" {
		logger.WithField("root", cfg.Media.Root).Info("using local media storage")
		return storage.NewLocalService(cfg.Media.Root, cfg.Media.BaseURL)
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, storage.S3Options{
		Bucket:        cfg.Storage.Bucket,
		KeyPrefix:     cfg.Storage.KeyPrefix,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		URLExpiry:     time.Duration(cfg.Storage.URLExpiryMinutes) * time.Minute,
	})
}

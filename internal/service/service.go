// Package service wires configured components into a runnable
// inspection service: telemetry, the scan database, object storage,
// and the scanner itself. Commands construct a Service from the
// loaded configuration instead of assembling the pieces by hand.
package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/class-inspect/internal/repository"
	"github.com/class-inspect/internal/scanner"
	"github.com/class-inspect/internal/storage"
	"github.com/class-inspect/pkg/compression"
	"github.com/class-inspect/pkg/config"
	"github.com/class-inspect/pkg/telemetry"
	"github.com/class-inspect/pkg/utils"
)

// Service holds the components a scan run needs. Database and storage
// stay nil unless enabled in the configuration; the scanner treats a
// nil recorder or uploader as "skip that step".
type Service struct {
	config  *config.Config
	logger  utils.Logger
	version string

	db      *repository.Repositories
	storage storage.Storage

	shutdownTelemetry telemetry.ShutdownFunc
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, os.Stdout)
	}

	return &Service{
		config:  cfg,
		logger:  logger,
		version: "dev",
	}, nil
}

// SetVersion records the build version reported through telemetry.
func (s *Service) SetVersion(version string) {
	if version != "" {
		s.version = version
	}
}

// Initialize initializes the enabled service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initTelemetry(ctx); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if s.config.Database.Enabled {
		if err := s.initDatabase(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if s.config.Storage.Enabled {
		if err := s.initStorage(); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initTelemetry configures the tracer provider. With telemetry
// disabled this still runs so Enabled reports the configured state.
func (s *Service) initTelemetry(ctx context.Context) error {
	tcfg := &telemetry.Config{
		Enabled:        s.config.Telemetry.Enabled,
		ServiceName:    s.config.Telemetry.ServiceName,
		ServiceVersion: s.version,
		Endpoint:       s.config.Telemetry.Endpoint,
		Protocol:       s.config.Telemetry.Protocol,
		Sampler:        "parentbased_traceidratio",
		SamplerArg:     strconv.FormatFloat(s.config.Telemetry.SampleRatio, 'f', -1, 64),
	}
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = "class-inspect"
	}

	shutdown, err := telemetry.InitWithConfig(ctx, tcfg)
	if err != nil {
		return err
	}
	s.shutdownTelemetry = shutdown

	if tcfg.Enabled {
		s.logger.Info("Telemetry enabled, exporting to %s", tcfg.Endpoint)
	}
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(gormDB, s.config.Database.Type)
	if err := repos.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	s.db = repos
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// ScannerConfig builds the scanner configuration for one run, wiring
// in whichever of the database and storage backends were initialized.
// Artifacts are written under outputDir.
func (s *Service) ScannerConfig(outputDir string) *scanner.Config {
	cfg := scanner.DefaultConfig()
	cfg.OutputDir = outputDir
	cfg.Workers = s.config.Scan.Workers
	cfg.ScanArchives = s.config.Scan.Archives
	cfg.IncludePrefixes = s.config.Scan.IncludePrefixes
	cfg.ExcludePrefixes = s.config.Scan.ExcludePrefixes
	cfg.WriteDisassembly = s.config.Scan.WriteDisassembly
	cfg.WriteSummaries = s.config.Scan.WriteSummaries
	cfg.TopMethods = s.config.Scan.TopMethods
	cfg.Compress = s.config.Output.Compress
	cfg.CompressionType = compressionType(s.config.Output.Compression)
	cfg.Logger = s.logger

	if s.db != nil {
		cfg.Recorder = s.db
	}
	if s.storage != nil {
		cfg.Uploader = s.storage
		cfg.UploadPrefix = s.config.Scan.UploadPrefix
	}

	return cfg
}

// Scan runs one scan over root, writing artifacts under outputDir and
// feeding the configured recorder and uploader.
func (s *Service) Scan(ctx context.Context, root, outputDir string) (*scanner.Result, error) {
	sc := scanner.New(s.ScannerConfig(outputDir))
	return sc.Scan(ctx, root)
}

// Repositories returns the scan database, or nil when persistence is
// disabled.
func (s *Service) Repositories() *repository.Repositories {
	return s.db
}

// Storage returns the artifact store, or nil when uploads are disabled.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// Close releases the database connection and flushes telemetry.
func (s *Service) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
		s.db = nil
	}

	if s.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.shutdownTelemetry(ctx); err != nil {
			s.logger.Error("Failed to shut down telemetry: %v", err)
		}
		s.shutdownTelemetry = nil
	}

	return nil
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}

// compressionType maps a configured codec name onto a compression
// type. Anything but gzip selects zstd.
func compressionType(name string) compression.Type {
	if name == "gzip" {
		return compression.TypeGzip
	}
	return compression.TypeZstd
}

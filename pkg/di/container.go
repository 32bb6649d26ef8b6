// Package di provides dependency injection container
package di

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/vfs"

	"github.com/ssargent/locus/pkg/config"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/journal"
	"github.com/ssargent/locus/pkg/logger"
	"github.com/ssargent/locus/pkg/storage"
)

// RepositoryFactory opens track repositories
type RepositoryFactory interface {
	// OpenRepository opens the repository stored under dataDir
	OpenRepository(dataDir string, solver *geodesic.Solver, log logger.Logger) (*storage.Repository, error)
}

// DefaultRepositoryFactory opens repositories on the local filesystem
type DefaultRepositoryFactory struct{}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory() RepositoryFactory {
	return &DefaultRepositoryFactory{}
}

func (f *DefaultRepositoryFactory) OpenRepository(dataDir string, solver *geodesic.Solver, log logger.Logger) (*storage.Repository, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return storage.Open(filepath.Join(dataDir, "tracks"), &storage.Options{Solver: solver, Logger: log})
}

// MemRepositoryFactory keeps repositories in one in-memory filesystem, so
// reopening a data dir sees earlier writes
type MemRepositoryFactory struct {
	FS vfs.FS
}

// NewMemRepositoryFactory creates a factory backed by vfs.NewMem
func NewMemRepositoryFactory() *MemRepositoryFactory {
	return &MemRepositoryFactory{FS: vfs.NewMem()}
}

func (f *MemRepositoryFactory) OpenRepository(dataDir string, solver *geodesic.Solver, log logger.Logger) (*storage.Repository, error) {
	return storage.Open(filepath.Join(dataDir, "tracks"), &storage.Options{FS: f.FS, Solver: solver, Logger: log})
}

// Container holds all the dependencies for the application
type Container struct {
	config            *config.Config
	log               logger.Logger
	solver            *geodesic.Solver
	repositoryFactory RepositoryFactory
}

// NewContainer creates a new dependency injection container with defaults
func NewContainer() *Container {
	c := &Container{repositoryFactory: NewRepositoryFactory()}
	if err := c.Configure(config.DefaultConfig()); err != nil {
		panic(err)
	}
	return c
}

// Configure validates cfg and rebuilds the logger and solver from it
func (c *Container) Configure(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	solver, err := cfg.Solver()
	if err != nil {
		return err
	}

	c.config = cfg
	c.log = logger.New(os.Stderr, level)
	c.solver = solver
	return nil
}

// GetConfig returns the active configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the shared logger
func (c *Container) GetLogger() logger.Logger {
	return c.log
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(log logger.Logger) {
	c.log = log
}

// GetSolver returns the configured geodesic solver
func (c *Container) GetSolver() *geodesic.Solver {
	return c.solver
}

// GetRepositoryFactory returns the repository factory
func (c *Container) GetRepositoryFactory() RepositoryFactory {
	return c.repositoryFactory
}

// SetRepositoryFactory allows overriding the repository factory (for testing)
func (c *Container) SetRepositoryFactory(factory RepositoryFactory) {
	c.repositoryFactory = factory
}

// OpenRepository opens the repository in the configured data dir
func (c *Container) OpenRepository() (*storage.Repository, error) {
	return c.repositoryFactory.OpenRepository(c.config.DataDir, c.solver, c.log.WithPrefix("storage: "))
}

// OpenJournal opens a journal writer using the configured fsync interval
func (c *Container) OpenJournal(path string) (*journal.Writer, error) {
	return journal.Open(journal.WriterConfig{
		FilePath:      path,
		FsyncInterval: c.config.Journal.FsyncInterval,
		Logger:        c.log.WithPrefix("journal: "),
	})
}

package di

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/config"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/logger"
	"github.com/ssargent/locus/pkg/track"
)

func TestNewContainer_Defaults(t *testing.T) {
	c := NewContainer()
	assert.Equal(t, config.DefaultConfig(), c.GetConfig())
	assert.Equal(t, geodesic.ModePrecise, c.GetSolver().Mode())
	assert.NotNil(t, c.GetLogger())
	assert.IsType(t, &DefaultRepositoryFactory{}, c.GetRepositoryFactory())
}

func TestContainer_Configure(t *testing.T) {
	c := NewContainer()

	cfg := config.DefaultConfig()
	cfg.Geodesic.Mode = "fast"
	require.NoError(t, c.Configure(cfg))
	assert.Equal(t, geodesic.ModeFast, c.GetSolver().Mode())

	bad := config.DefaultConfig()
	bad.Logging.Level = "shout"
	assert.Error(t, c.Configure(bad))
	// a rejected configuration leaves the previous one active
	assert.Equal(t, cfg, c.GetConfig())
}

func TestContainer_OpenRepository(t *testing.T) {
	c := NewContainer()
	c.SetLogger(logger.NewLogfLogger(t))
	c.SetRepositoryFactory(NewMemRepositoryFactory())

	repo, err := c.OpenRepository()
	require.NoError(t, err)
	id, err := repo.CreateTrack(&track.Track{Name: "kept"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = c.OpenRepository()
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetTrack(id)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
}

func TestContainer_OpenJournal(t *testing.T) {
	c := NewContainer()
	path := filepath.Join(t.TempDir(), "fixes.journal")

	w, err := c.OpenJournal(path)
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())
	require.NoError(t, w.Close())
}

func TestDefaultRepositoryFactory(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewRepositoryFactory().OpenRepository(dir, geodesic.NewSolver(geodesic.ModeFast), logger.NopLogger)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "tracks"))
	require.NoError(t, repo.Close())
}

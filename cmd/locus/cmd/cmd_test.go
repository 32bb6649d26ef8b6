package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/config"
	"github.com/ssargent/locus/pkg/di"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/logger"
)

// resetFlags clears flag state left behind by an earlier run of rootCmd
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupCLI installs a container backed by an in-memory repository and writes
// a default config file so the user's own config is never read
func setupCLI(t *testing.T) (configPath string, factory *di.MemRepositoryFactory) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath = filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, config.SaveConfig(config.DefaultConfig(), configPath))

	factory = di.NewMemRepositoryFactory()
	c := di.NewContainer()
	c.SetRepositoryFactory(factory)
	c.SetLogger(logger.NewLogfLogger(t))
	SetContainer(c)
	return configPath, factory
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath, "--data-dir", "mem", "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDistanceCommand(t *testing.T) {
	configPath, _ := setupCLI(t)

	t.Run("Precise", func(t *testing.T) {
		out, err := run(t, configPath, "distance", "0", "0", "0", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Mode: precise")
		assert.Contains(t, out, "Distance: 111319.")
		assert.Contains(t, out, "Bearing: 90.000000 deg")
	})

	t.Run("Fast", func(t *testing.T) {
		out, err := run(t, configPath, "distance", "--mode", "fast", "0", "0", "0", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Mode: fast")
		assert.Contains(t, out, "Distance: 111319.")
	})

	t.Run("Negative coordinates", func(t *testing.T) {
		out, err := run(t, configPath, "distance", "--", "-33.8688", "151.2093", "-37.8136", "144.9631")
		require.NoError(t, err)
		assert.Contains(t, out, "Distance: 7")
	})

	t.Run("Invalid mode", func(t *testing.T) {
		_, err := run(t, configPath, "distance", "--mode", "sloppy", "0", "0", "0", "1")
		assert.Error(t, err)
	})

	t.Run("Invalid coordinate", func(t *testing.T) {
		_, err := run(t, configPath, "distance", "north", "0", "0", "1")
		assert.Error(t, err)
	})
}

func TestTrackCommands(t *testing.T) {
	configPath, _ := setupCLI(t)

	out, err := run(t, configPath, "track", "create", "morning-walk", "--description", "Old Town loop")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 27)

	_, err = run(t, configPath, "track", "add", id, "50.0875", "14.4214", "--time", "1000", "--provider", "gps")
	require.NoError(t, err)
	out, err = run(t, configPath, "track", "add", id, "50.0865", "14.4114", "--time", "2000", "--speed", "1.5")
	require.NoError(t, err)
	assert.Contains(t, out, "now has 2 points")

	t.Run("Show", func(t *testing.T) {
		out, err := run(t, configPath, "track", "show", id)
		require.NoError(t, err)
		assert.Contains(t, out, "Name: morning-walk")
		assert.Contains(t, out, "Description: Old Town loop")
		assert.Contains(t, out, "Points: 2")
		assert.Contains(t, out, "provider=gps")
	})

	t.Run("List", func(t *testing.T) {
		out, err := run(t, configPath, "track", "list")
		require.NoError(t, err)
		assert.Contains(t, out, id)
		assert.Contains(t, out, "morning-walk")
	})

	t.Run("Near", func(t *testing.T) {
		out, err := run(t, configPath, "near", "50.087", "14.42", "--precision", "3")
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, id))
	})

	t.Run("Near nothing", func(t *testing.T) {
		out, err := run(t, configPath, "near", "10", "10")
		require.NoError(t, err)
		assert.Contains(t, out, "No points near")
	})

	t.Run("Invalid id", func(t *testing.T) {
		_, err := run(t, configPath, "track", "show", "not-a-ksuid")
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		_, err := run(t, configPath, "track", "delete", id)
		require.NoError(t, err)

		_, err = run(t, configPath, "track", "show", id)
		assert.Error(t, err)

		out, err := run(t, configPath, "track", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "No tracks")
	})
}

func TestJournalCommands(t *testing.T) {
	configPath, _ := setupCLI(t)
	path := filepath.Join(t.TempDir(), "fixes.journal")

	_, err := run(t, configPath, "journal", "append", path, "50.0875", "14.4214", "--time", "1000", "--provider", "gps")
	require.NoError(t, err)
	out, err := run(t, configPath, "journal", "append", path, "50.0865", "14.4114", "--time", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "Appended fix at offset")

	out, err = run(t, configPath, "journal", "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 fixes")
	assert.Contains(t, out, "provider=gps")

	out, err = run(t, configPath, "inspect", "--journal", "--location", path)
	require.NoError(t, err)
	assert.Contains(t, out, "offset=0 version=5")
	assert.Contains(t, out, "steps: id, fixed, unified map")
	assert.Contains(t, out, "2 frames")

	// torn tail
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xde, 0xad, 0xbe})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err = run(t, configPath, "journal", "replay", path)
	assert.Error(t, err)
	assert.Contains(t, out, "locus journal recover")

	out, err = run(t, configPath, "journal", "recover", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries validated: 2")
	assert.Contains(t, out, "3 bytes truncated")

	out, err = run(t, configPath, "journal", "recover", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Journal is clean")

	out, err = run(t, configPath, "journal", "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 fixes")
}

func TestBundleCommands(t *testing.T) {
	configPath, _ := setupCLI(t)
	bundlePath := filepath.Join(t.TempDir(), "walks.bundle")

	out, err := run(t, configPath, "track", "create", "evening")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	_, err = run(t, configPath, "track", "add", id, "48.2082", "16.3738", "--time", "1000")
	require.NoError(t, err)

	out, err = run(t, configPath, "bundle", "export", bundlePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 tracks")

	info, err := os.Stat(bundlePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// import into a fresh repository
	setupCLI(t)
	out, err = run(t, configPath, "bundle", "import", bundlePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 tracks")

	out, err = run(t, configPath, "track", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Name: evening")
	assert.Contains(t, out, "Points: 1")

	t.Run("Missing file", func(t *testing.T) {
		_, err := run(t, configPath, "bundle", "import", filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})
}

func TestInspectCommand(t *testing.T) {
	configPath, _ := setupCLI(t)
	path := filepath.Join(t.TempDir(), "frames.bin")

	a, err := codec.Encode(location.New(1, 2))
	require.NoError(t, err)
	b, err := codec.Encode(location.New(3, 4))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(a, b...), 0600))

	out, err := run(t, configPath, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "offset=0 version=5")
	assert.Contains(t, out, "2 frames")

	t.Run("Truncated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, append(a, b[:len(b)-1]...), 0600))
		out, err := run(t, configPath, "inspect", path)
		assert.ErrorIs(t, err, codec.ErrCorruptFrame)
		assert.Contains(t, out, "1 frames")
	})
}

func TestMetricsFlag(t *testing.T) {
	configPath, _ := setupCLI(t)
	out, err := run(t, configPath, "--metrics", "distance", "0", "0", "0", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "locus_")
}

func TestMissingContainer(t *testing.T) {
	configPath, _ := setupCLI(t)
	SetContainer(nil)
	defer setupCLI(t)

	_, err := run(t, configPath, "track", "list")
	assert.Error(t, err)
}

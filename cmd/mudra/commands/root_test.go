package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// withConfig points the global flags at a config file in a temp dir whose
// database also lives there.
func withConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mudra.yaml")

	settings := config.Default()
	settings.Database.Path = filepath.Join(dir, "data", "mudra.db")
	require.NoError(t, settings.Save(path))

	oldPath, oldLevel := configPath, logLevel
	configPath, logLevel = path, ""
	t.Cleanup(func() { configPath, logLevel = oldPath, oldLevel })
	return path, settings
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()

	assert.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Help should be displayed")
	for _, sub := range []string{"serve", "replay", "record", "watch", "templates", "recordings", "init"} {
		assert.Contains(t, output, sub, "Help should list %s", sub)
	}
}

func TestLoadSettings_FromFile(t *testing.T) {
	_, want := withConfig(t)

	got, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, want.Database.Path, got.Database.Path)
	assert.Equal(t, want.Server.Listen, got.Server.Listen)
}

func TestLoadSettings_DefaultsWithoutFile(t *testing.T) {
	oldPath := configPath
	configPath = ""
	t.Cleanup(func() { configPath = oldPath })

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	got, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), got)
}

func TestLoadSettings_LogLevelOverride(t *testing.T) {
	withConfig(t)

	logLevel = "debug"
	got, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Log.Level)

	logLevel = "chatty"
	_, err = loadSettings()
	assert.Error(t, err)
}

func TestLoadSettings_MissingFile(t *testing.T) {
	oldPath := configPath
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { configPath = oldPath })

	_, err := loadSettings()
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	oldPath, oldForce := configPath, initForce
	configPath, initForce = path, false
	t.Cleanup(func() { configPath, initForce = oldPath, oldForce })

	require.NoError(t, runInit(initCmd, nil))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)

	assert.Error(t, runInit(initCmd, nil), "refuses to overwrite without --force")

	initForce = true
	assert.NoError(t, runInit(initCmd, nil))
}

func TestTemplatesAndRecordings(t *testing.T) {
	_, settings := withConfig(t)

	buf := new(bytes.Buffer)
	templatesCmd.SetOut(buf)
	recordingsCmd.SetOut(buf)
	t.Cleanup(func() {
		templatesCmd.SetOut(nil)
		recordingsCmd.SetOut(nil)
	})

	require.NoError(t, runTemplates(templatesCmd, nil))
	assert.Contains(t, buf.String(), "No templates")

	s, err := openStore(settings)
	require.NoError(t, err)
	require.NoError(t, s.Templates().Create(&store.Template{ID: "tpl-1", Name: "open-palm", Type: store.TemplateTypePose, Tolerance: 0.15}))
	require.NoError(t, s.Recordings().Create(&store.Recording{ID: "rec-1", Name: "snaps"}))
	require.NoError(t, s.Recordings().AppendFrames("rec-1", nil, 2*time.Second))
	require.NoError(t, s.Close())

	buf.Reset()
	require.NoError(t, runTemplates(templatesCmd, nil))
	assert.Contains(t, buf.String(), "open-palm")
	assert.Contains(t, buf.String(), "any")

	buf.Reset()
	require.NoError(t, runRecordings(recordingsCmd, nil))
	assert.Contains(t, buf.String(), "snaps")
	assert.Contains(t, buf.String(), "2s")
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/checks"
	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/extractor"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/testutil"
)

func TestNew_WiresEverything(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Database = database.Config{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "app.db")}
	cfg.Extractor.Backend = extractor.BackendNetHTTP

	a, err := New(context.Background(), cfg, &testutil.DummyLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.History)
	assert.NotNil(t, a.Scanner)
	assert.NotNil(t, a.Orchestrator)
	assert.NotNil(t, a.Auth)

	ctx := context.Background()
	p, err := a.Registry.CreateProject(ctx, "owner", "", "example.com")
	require.NoError(t, err)

	res, err := a.Scanner.Scan(ctx, model.ScanRequest{
		Token:   p.Token,
		URL:     "https://example.com/",
		Content: &model.Content{HTML: shopPage, Text: "I recieve teh package"},
	})
	require.NoError(t, err)
	require.NoError(t, res.Persist)

	stored, err := a.History.GetScan(ctx, res.Scan.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Scan.OverallScore, stored.OverallScore)
	assert.Len(t, stored.Issues, len(res.Scan.Issues))
}

func TestNew_BadDatabase(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Database = database.Config{Driver: "mysql"}
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, database.ErrUnknownDriver)
}

func TestApplication_CloseNil(t *testing.T) {
	t.Parallel()
	var a *Application
	assert.Error(t, a.Close())
}

// ─── Check registry ────────────────────────────────────────────────────

func TestNewCheckRegistry(t *testing.T) {
	t.Parallel()

	reg, err := NewCheckRegistry(ChecksConfig{Validator: ValidatorLocal}, nil)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	c, ok := reg.Get(model.CheckHTMLValidation)
	require.True(t, ok)
	assert.IsType(t, &checks.HTMLValidationCheck{}, c)

	_, err = NewCheckRegistry(ChecksConfig{Validator: ValidatorNu}, nil)
	assert.Error(t, err, "nu validator without a client")

	_, err = NewCheckRegistry(ChecksConfig{Validator: ValidatorNu}, &testutil.DummyWebClient{})
	assert.NoError(t, err)
}

func TestNewCheckRegistry_Dictionary(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte("misspellings:\n  wierd: [weird]\n"), 0o600))

	reg, err := NewCheckRegistry(ChecksConfig{Validator: ValidatorLocal, DictionaryPath: path}, nil)
	require.NoError(t, err)
	spelling, _ := reg.Get(model.CheckSpelling)
	res, err := spelling.Run(context.Background(), &model.Content{Text: "a wierd teh"})
	require.NoError(t, err)
	assert.Len(t, res.Issues, 2)

	_, err = NewCheckRegistry(ChecksConfig{Validator: ValidatorLocal, DictionaryPath: filepath.Join(dir, "missing.yaml")}, nil)
	assert.Error(t, err)
}

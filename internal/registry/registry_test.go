package registry_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/registry"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "reg.db")}, logging.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func newRegistry(t *testing.T) (*registry.Registry, *database.DB) {
	t.Helper()
	db := openTestDB(t)
	reg, err := registry.NewRegistry(db, logging.Nop{})
	require.NoError(t, err)
	return reg, db
}

func TestRegistry_CreateAndGetProject(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	p, err := reg.CreateProject(ctx, "user-1", "Marketing site", "https://WWW.Example.com:8443/landing")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "www.example.com", p.Domain)
	assert.Equal(t, model.DefaultSettings(), p.Settings)
	assert.Len(t, p.Token, 64)

	got, err := reg.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Domain, got.Domain)
	assert.Equal(t, p.Token, got.Token)
	assert.Equal(t, "Marketing site", got.Name)
	assert.Equal(t, p.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	byToken, err := reg.ProjectByToken(ctx, p.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byToken.ID)
}

func TestRegistry_CreateProject_Validation(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	_, err := reg.CreateProject(ctx, "", "x", "example.com")
	assert.ErrorIs(t, err, registry.ErrInvalidProject)

	_, err = reg.CreateProject(ctx, "u", "x", "   ")
	assert.ErrorIs(t, err, registry.ErrInvalidProject)

	p, err := reg.CreateProject(ctx, "u", "", "shop.example.org")
	require.NoError(t, err)
	assert.Equal(t, "shop.example.org", p.Name)
}

func TestRegistry_TokensAreUnique(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p, err := reg.CreateProject(ctx, "u", "", "example.com")
		require.NoError(t, err)
		assert.False(t, seen[p.Token])
		seen[p.Token] = true
	}
}

func TestRegistry_ProjectByToken_Invalid(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	_, err := reg.ProjectByToken(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	_, err = reg.ProjectByToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestRegistry_ListProjectsByOwner(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	_, err := reg.CreateProject(ctx, "alice", "a1", "a1.example.com")
	require.NoError(t, err)
	_, err = reg.CreateProject(ctx, "alice", "a2", "a2.example.com")
	require.NoError(t, err)
	_, err = reg.CreateProject(ctx, "bob", "b1", "b1.example.com")
	require.NoError(t, err)

	alice, err := reg.ListProjects(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	all, err := reg.ListProjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := reg.ListProjects(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRegistry_UpdateSettings(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctx := context.Background()

	p, err := reg.CreateProject(ctx, "u", "", "example.com")
	require.NoError(t, err)

	want := model.Settings{Accessibility: true, Spelling: false, HTMLValidation: true, Notifications: false}
	got, err := reg.UpdateSettings(ctx, p.ID, want)
	require.NoError(t, err)
	assert.Equal(t, want, got.Settings)

	_, err = reg.UpdateSettings(ctx, "missing", want)
	assert.ErrorIs(t, err, registry.ErrProjectNotFound)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRegistry_EnsureToken(t *testing.T) {
	t.Parallel()
	reg, db := newRegistry(t)
	ctx := context.Background()

	p, err := reg.CreateProject(ctx, "u", "", "example.com")
	require.NoError(t, err)

	tok, err := reg.EnsureToken(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Token, tok, "an issued token is never replaced")

	_, err = db.ExecContext(ctx, `UPDATE projects SET embed_token = NULL WHERE id = ?`, p.ID)
	require.NoError(t, err)

	fresh, err := reg.EnsureToken(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, fresh, 64)
	assert.NotEqual(t, p.Token, fresh)

	again, err := reg.EnsureToken(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh, again)

	_, err = reg.EnsureToken(ctx, "missing")
	assert.ErrorIs(t, err, registry.ErrProjectNotFound)
}

func TestRegistry_DeleteProject(t *testing.T) {
	t.Parallel()
	reg, db := newRegistry(t)
	ctx := context.Background()

	p, err := reg.CreateProject(ctx, "u", "", "example.com")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO scans (id, project_id, page_url, started_at, triggered_by, overall_score)
		VALUES ('s1', ?, 'https://example.com/', 0, 'api', 90)`, p.ID)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO scan_results (id, scan_id, position, issue_type) VALUES ('r1', 's1', 0, 'html-error')`)
	require.NoError(t, err)

	require.NoError(t, reg.DeleteProject(ctx, p.ID))

	_, err = reg.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, registry.ErrProjectNotFound)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_results`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, reg.DeleteProject(ctx, p.ID), registry.ErrProjectNotFound)
}

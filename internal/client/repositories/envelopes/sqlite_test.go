package envelopes

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/colsync/internal/client/migrations"
	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	script, err := migrations.Migrations.ReadFile("00001_comments.sql")
	require.NoError(t, err)
	up, _, _ := strings.Cut(string(script), "-- +goose Down")

	_, err = db.Exec(up)
	require.NoError(t, err)

	return db
}

func sample(id string, start, end int64) *comments.Envelope {
	e := comments.Empty()
	e.MessageID = id
	e.Sender = "alice"
	e.Recipient = "bob, carol"
	e.Message = "check the gloss"
	e.URIBase = "urn:nl-mpi-tla:1839_00-0000-0000-000D-1A2B-3"
	e.StartTime = start
	e.EndTime = end
	e.TierName = "words"
	e.CreationDate = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e.ModificationDate = time.Date(2024, 3, 2, 11, 30, 0, 123_000_000, time.UTC)
	return e
}

func TestSave_InsertAndUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := sample("m1", 100, 200)
	e.LastModifiedOnServer = time.Date(2024, 3, 3, 8, 0, 0, 987_654_321, time.FixedZone("CET", 3600))
	e.ToBeSavedToServer = true
	require.NoError(t, r.Save(ctx, e))

	got, err := r.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "check the gloss", got.Message)
	assert.Equal(t, []string{"bob", "carol"}, got.Recipients())
	assert.True(t, got.ModificationDate.Equal(e.ModificationDate))
	assert.True(t, got.LastModifiedOnServer.Equal(e.LastModifiedOnServer), "server time keeps full precision")
	assert.True(t, got.ToBeSavedToServer)
	assert.False(t, got.ReadOnly)

	e.Message = "fixed"
	e.ToBeSavedToServer = false
	e.ReadOnly = true
	require.NoError(t, r.Save(ctx, e))

	got, err = r.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Message)
	assert.False(t, got.ToBeSavedToServer)
	assert.True(t, got.ReadOnly)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestZeroServerTime_RoundTrips(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sample("m1", 0, 1)))
	got, err := r.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, got.LastModifiedOnServer.IsZero())
}

func TestSaveAll_AndListing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	other := sample("m3", 0, 50)
	other.URIBase = "urn:other"
	pending := sample("m2", 10, 20)
	pending.ToBeSavedToServer = true

	require.NoError(t, r.SaveAll(ctx, []*comments.Envelope{sample("m1", 300, 400), pending, other}))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(all), "ordered by time range")

	bySource, err := r.GetBySource(ctx, "urn:other")
	require.NoError(t, err)
	assert.Equal(t, []string{"m3"}, ids(bySource))

	p, err := r.GetPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(p))
}

func TestSaveAll_RollsBackOnError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TRIGGER reject_bad BEFORE INSERT ON comments
		WHEN NEW.message_id = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = r.SaveAll(ctx, []*comments.Envelope{sample("ok", 0, 1), sample("bad", 0, 1)})
	require.Error(t, err)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMarkDeleted_AndPurge(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.SaveAll(ctx, []*comments.Envelope{sample("m1", 0, 1), sample("m2", 2, 3)}))
	require.NoError(t, r.MarkDeleted(ctx, "m1"))

	_, err := r.GetByID(ctx, "m1")
	require.ErrorIs(t, err, ErrNotFound, "tombstones are hidden")

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(all))

	deleted, err := r.GetDeleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids(deleted))

	require.ErrorIs(t, r.MarkDeleted(ctx, "m1"), ErrNotFound, "already deleted")

	require.NoError(t, r.Purge(ctx, "m1"))
	deleted, err = r.GetDeleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	require.ErrorIs(t, r.Purge(ctx, "m1"), ErrNotFound)
}

func TestSave_RevivesTombstone(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sample("m1", 0, 1)))
	require.NoError(t, r.MarkDeleted(ctx, "m1"))
	require.NoError(t, r.Save(ctx, sample("m1", 0, 1)))

	_, err := r.GetByID(ctx, "m1")
	require.NoError(t, err)
}

func ids(list []*comments.Envelope) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.MessageID)
	}
	return out
}

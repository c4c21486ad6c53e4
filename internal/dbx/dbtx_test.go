package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS comments (message_id TEXT PRIMARY KEY, message TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n))
	return n
}

func insert(id string) func(ctx context.Context, tx DBTX) error {
	return func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO comments(message_id, message) VALUES (?, 'hello')`, id)
		return err
	}
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, insert("c1")))
	require.Equal(t, 1, countRows(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert("c1")(ctx, tx))
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.Equal(t, 0, countRows(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert("c1")(ctx, tx))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err)
}

func TestInTx(t *testing.T) {
	t.Run("opens a transaction on a database", func(t *testing.T) {
		db := setupDB(t)

		err := InTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
			_, isTx := tx.(*sql.Tx)
			require.True(t, isTx)
			require.NoError(t, insert("c1")(ctx, tx))
			return insert("c1")(ctx, tx)
		})
		require.Error(t, err)
		require.Equal(t, 0, countRows(t, db))
	})

	t.Run("joins the caller's transaction", func(t *testing.T) {
		db := setupDB(t)

		err := WithTx(context.Background(), db, nil, func(ctx context.Context, outer DBTX) error {
			return InTx(ctx, outer, func(ctx context.Context, tx DBTX) error {
				require.Same(t, outer, tx)
				return insert("c1")(ctx, tx)
			})
		})
		require.NoError(t, err)
		require.Equal(t, 1, countRows(t, db))
	})
}

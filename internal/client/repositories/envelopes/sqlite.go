package envelopes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/dbx"
)

const columns = `message_id, message_url, initials, sender, recipient, thread_id, category, status,
	creation_date, modification_date, annotation_file_type, annotation_file_url, message,
	uri_base, start_time, end_time, tier_name, last_modified_on_server, read_only,
	pending_file, pending_server`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, e *comments.Envelope) error {
	query := `INSERT INTO comments (` + columns + `, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(message_id) DO UPDATE SET
			message_url = excluded.message_url,
			initials = excluded.initials,
			sender = excluded.sender,
			recipient = excluded.recipient,
			thread_id = excluded.thread_id,
			category = excluded.category,
			status = excluded.status,
			creation_date = excluded.creation_date,
			modification_date = excluded.modification_date,
			annotation_file_type = excluded.annotation_file_type,
			annotation_file_url = excluded.annotation_file_url,
			message = excluded.message,
			uri_base = excluded.uri_base,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			tier_name = excluded.tier_name,
			last_modified_on_server = excluded.last_modified_on_server,
			read_only = excluded.read_only,
			pending_file = excluded.pending_file,
			pending_server = excluded.pending_server,
			deleted = 0`

	_, err := r.db.ExecContext(ctx, query,
		e.MessageID, e.MessageURL, e.Initials, e.Sender, e.Recipient, e.ThreadID, e.Category, e.Status,
		comments.FormatDate(e.CreationDate), comments.FormatDate(e.ModificationDate),
		e.AnnotationFileType, e.AnnotationFileURL, e.Message,
		e.URIBase, e.StartTime, e.EndTime, e.TierName, formatServerTime(e.LastModifiedOnServer), e.ReadOnly,
		e.ToBeSavedToFile, e.ToBeSavedToServer)
	if err != nil {
		return fmt.Errorf("failed to upsert comment %s: %w", e.MessageID, err)
	}
	return nil
}

func (r *SQLiteRepository) SaveAll(ctx context.Context, list []*comments.Envelope) error {
	save := func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, e := range list {
			if err := repo.Save(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	return dbx.InTx(ctx, r.db, save)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*comments.Envelope, error) {
	query := `SELECT ` + columns + ` FROM comments WHERE message_id = ? AND deleted = 0`
	e, err := scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*comments.Envelope, error) {
	return r.list(ctx, `deleted = 0`)
}

func (r *SQLiteRepository) GetBySource(ctx context.Context, uriBase string) ([]*comments.Envelope, error) {
	return r.list(ctx, `deleted = 0 AND uri_base = ?`, uriBase)
}

func (r *SQLiteRepository) GetPending(ctx context.Context) ([]*comments.Envelope, error) {
	return r.list(ctx, `deleted = 0 AND pending_server = 1`)
}

func (r *SQLiteRepository) GetDeleted(ctx context.Context) ([]*comments.Envelope, error) {
	return r.list(ctx, `deleted = 1`)
}

// MarkDeleted expects exactly one live row to be affected.
func (r *SQLiteRepository) MarkDeleted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET deleted = 1 WHERE message_id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE message_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to purge comment: %w", err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository) list(ctx context.Context, where string, args ...any) ([]*comments.Envelope, error) {
	query := `SELECT ` + columns + ` FROM comments WHERE ` + where + ` ORDER BY start_time, end_time, message_id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	var result []*comments.Envelope
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*comments.Envelope, error) {
	e := comments.Empty()
	var created, modified, serverTime string

	err := s.Scan(
		&e.MessageID, &e.MessageURL, &e.Initials, &e.Sender, &e.Recipient, &e.ThreadID, &e.Category, &e.Status,
		&created, &modified, &e.AnnotationFileType, &e.AnnotationFileURL, &e.Message,
		&e.URIBase, &e.StartTime, &e.EndTime, &e.TierName, &serverTime, &e.ReadOnly,
		&e.ToBeSavedToFile, &e.ToBeSavedToServer)
	if err != nil {
		return nil, err
	}

	if e.CreationDate, err = comments.ParseDate(created); err != nil {
		return nil, err
	}
	if e.ModificationDate, err = comments.ParseDate(modified); err != nil {
		return nil, err
	}
	if serverTime != "" {
		if e.LastModifiedOnServer, err = time.Parse(time.RFC3339Nano, serverTime); err != nil {
			return nil, fmt.Errorf("parse server time %q: %w", serverTime, err)
		}
	}
	return e, nil
}

// formatServerTime keeps full precision and the zone: freshness checks
// compare server timestamps for exact equality.
func formatServerTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func expectOne(res sql.Result, id string) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

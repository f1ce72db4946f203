package archive

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/script"
)

// ErrArchive is returned when the archive database cannot be opened, read,
// or written. The database path is attached as the "archive" attribute.
var ErrArchive = script.NewError("download archive error")

// Record is one rendered (subscription, entry) pair.
type Record struct {
	RunID        uuid.UUID `json:"run_id"        yaml:"run_id"`
	Subscription string    `json:"subscription"  yaml:"subscription"`
	UID          string    `json:"uid"           yaml:"uid"`
	Extractor    string    `json:"extractor"     yaml:"extractor"`
	OutputPath   string    `json:"output_path"   yaml:"output_path"`
	UploadDate   string    `json:"upload_date"   yaml:"upload_date"`
	RecordedAt   time.Time `json:"recorded_at"   yaml:"recorded_at"`
}

// Archive is a download archive backed by a SQLite database. It is safe for
// concurrent use.
type Archive struct {
	db     *sql.DB
	path   string
	logger log.Logger
	now    func() time.Time
}

// Option configures an [Archive].
type Option func(*Archive)

// WithLogger sets the logger used to trace archive writes.
func WithLogger(logger log.Logger) Option {
	return func(a *Archive) { a.logger = logger }
}

// WithClock sets the function used to timestamp records.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// Open opens the archive at path, creating the database and its schema if
// they do not exist.
func Open(ctx context.Context, path string, opts ...Option) (*Archive, error) {
	a := &Archive{path: path, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, a.fail(err)
	}

	// SQLite allows one writer. A single connection serializes batch workers
	// instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, a.fail(err)
	}

	a.db = db

	if err := a.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, a.fail(err)
	}

	a.logger.DebugContext(ctx, "archive opened", slog.String("archive", path))

	return a, nil
}

// Path returns the database path the archive was opened with.
func (a *Archive) Path() string { return a.path }

// Close closes the database.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}

	if err := a.db.Close(); err != nil {
		return a.fail(err)
	}

	return nil
}

func (a *Archive) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			subscription TEXT NOT NULL,
			uid TEXT NOT NULL,
			run_id TEXT NOT NULL,
			extractor TEXT NOT NULL DEFAULT '',
			output_path TEXT NOT NULL,
			upload_date TEXT NOT NULL DEFAULT '',
			recorded_at DATETIME NOT NULL,
			PRIMARY KEY (subscription, uid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_upload
			ON entries (subscription, upload_date, uid)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_run ON entries (run_id)`,
	}

	for _, q := range queries {
		if _, err := a.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	return nil
}

// Record inserts records in one transaction, replacing any earlier record
// for the same subscription and entry. Either every record is stored or
// none is. A zero RecordedAt is set to the current time.
func (a *Archive) Record(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return a.fail(err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, r := range records {
		if r.RecordedAt.IsZero() {
			r.RecordedAt = a.now()
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries
				(subscription, uid, run_id, extractor, output_path, upload_date, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (subscription, uid) DO UPDATE SET
				run_id = excluded.run_id,
				extractor = excluded.extractor,
				output_path = excluded.output_path,
				upload_date = excluded.upload_date,
				recorded_at = excluded.recorded_at`,
			r.Subscription, r.UID, r.RunID.String(), r.Extractor, r.OutputPath,
			r.UploadDate, r.RecordedAt.UTC(),
		)
		if err != nil {
			return a.fail(err).With(
				slog.String("subscription", r.Subscription),
				slog.String("uid", r.UID))
		}

		a.logger.TraceContext(ctx, "archive record",
			slog.String("subscription", r.Subscription),
			slog.String("uid", r.UID),
			slog.String("path", r.OutputPath))
	}

	if err := tx.Commit(); err != nil {
		return a.fail(err)
	}

	return nil
}

// Has reports whether an entry has been recorded for subscription.
func (a *Archive) Has(ctx context.Context, subscription, uid string) (bool, error) {
	var one int

	err := a.db.QueryRowContext(ctx,
		`SELECT 1 FROM entries WHERE subscription = ? AND uid = ?`,
		subscription, uid,
	).Scan(&one)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, a.fail(err).With(
			slog.String("subscription", subscription),
			slog.String("uid", uid))
	default:
		return true, nil
	}
}

// List returns the records of subscription ordered by upload date, then
// entry uid. An empty subscription lists every record, grouped by
// subscription.
func (a *Archive) List(ctx context.Context, subscription string) ([]Record, error) {
	query := `SELECT subscription, uid, run_id, extractor, output_path,
			upload_date, recorded_at
		FROM entries WHERE subscription = ?
		ORDER BY upload_date, uid`
	args := []any{subscription}

	if subscription == "" {
		query = `SELECT subscription, uid, run_id, extractor, output_path,
				upload_date, recorded_at
			FROM entries
			ORDER BY subscription, upload_date, uid`
		args = nil
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, a.fail(err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			r     Record
			runID string
		)

		if err := rows.Scan(&r.Subscription, &r.UID, &runID, &r.Extractor,
			&r.OutputPath, &r.UploadDate, &r.RecordedAt); err != nil {
			return nil, a.fail(err)
		}

		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, a.fail(err).With(slog.String("run_id", runID))
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, a.fail(err)
	}

	return records, nil
}

func (a *Archive) fail(err error) *script.Error {
	return ErrArchive.Wrap(err).With(slog.String("archive", a.path))
}

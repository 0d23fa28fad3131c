package fraud

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is the keyed case table the verification flow reads and resolves.
type Store interface {
	// FindPending returns the oldest case awaiting review for userName.
	FindPending(ctx context.Context, userName string) (*Case, error)
	// Resolve moves a pending case to a terminal status.
	Resolve(ctx context.Context, id int64, status Status, note string) error
	// Get returns a case by id.
	Get(ctx context.Context, id int64) (*Case, error)
	// List returns every case ordered by id.
	List(ctx context.Context) ([]Case, error)
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	mu sync.Mutex
	db *sql.DB
}

const caseColumns = `id, userName, securityIdentifier, cardEnding, transactionAmount,
	merchantName, location, transactionTime, transactionCategory, transactionSource,
	securityQuestion, securityAnswer, status, outcomeNote, raw_json`

// Open opens or creates the SQLite case database at path, applies migrations
// and inserts seeds when the table is empty. The parent directory is created
// if it does not exist.
func Open(ctx context.Context, path string, seeds []Case) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.seed(ctx, seeds); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate(ctx context.Context) error {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// seed inserts cases only when the table has no rows, in one transaction.
func (s *SqlStore) seed(ctx context.Context, seeds []Case) error {
	if len(seeds) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM fraud_cases").Scan(&n); err != nil {
		return fmt.Errorf("count cases: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, c := range seeds {
		if c.Status == "" {
			c.Status = StatusPendingReview
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode seed %q: %w", c.UserName, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fraud_cases(userName, securityIdentifier, cardEnding, transactionAmount,
			 merchantName, location, transactionTime, transactionCategory, transactionSource,
			 securityQuestion, securityAnswer, status, outcomeNote, raw_json, updated_at)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.UserName, c.SecurityIdentifier, c.CardEnding, c.TransactionAmount,
			c.MerchantName, c.Location, c.TransactionTime, c.TransactionCategory, c.TransactionSource,
			c.SecurityQuestion, c.SecurityAnswer, string(c.Status), c.OutcomeNote, string(raw), nowUTC(),
		)
		if err != nil {
			return fmt.Errorf("insert seed %q: %w", c.UserName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// FindPending matches userName case-insensitively.
func (s *SqlStore) FindPending(ctx context.Context, userName string) (*Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM fraud_cases
		 WHERE userName = ? COLLATE NOCASE AND status = ?
		 ORDER BY id LIMIT 1`,
		userName, string(StatusPendingReview),
	)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find case for %q: %w", userName, err)
	}
	return c, nil
}

// Get returns the case by id.
func (s *SqlStore) Get(ctx context.Context, id int64) (*Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM fraud_cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case %d: %w", id, err)
	}
	return c, nil
}

// Resolve sets a terminal status and note. The update only applies to a case
// still pending review, so a resolved case is never rewritten.
func (s *SqlStore) Resolve(ctx context.Context, id int64, status Status, note string) error {
	if !CanTransition(StatusPendingReview, status) {
		return fmt.Errorf("resolve case %d: %q is not a terminal status", id, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE fraud_cases SET status = ?, outcomeNote = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), note, nowUTC(), id, string(StatusPendingReview),
	)
	if err != nil {
		return fmt.Errorf("resolve case %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve case %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, "SELECT status FROM fraud_cases WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCaseNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve case %d: %w", id, err)
	}
	return fmt.Errorf("case %d is %s: %w", id, current, ErrCaseClosed)
}

// List returns every case ordered by id.
func (s *SqlStore) List(ctx context.Context) ([]Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM fraud_cases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*Case, error) {
	var c Case
	var status string
	err := row.Scan(
		&c.ID, &c.UserName, &c.SecurityIdentifier, &c.CardEnding, &c.TransactionAmount,
		&c.MerchantName, &c.Location, &c.TransactionTime, &c.TransactionCategory, &c.TransactionSource,
		&c.SecurityQuestion, &c.SecurityAnswer, &status, &c.OutcomeNote, &c.RawJSON,
	)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/deckscore/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "reports.db"

// Store owns the SQLite connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database in dataDir.
// If dataDir is empty, defaults to ~/.deckscore/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".deckscore", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReportStore returns a ReportStore backed by this store.
func (s *Store) ReportStore() driven.ReportStore {
	return &reportStore{db: s.db}
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// migrate applies every NNN_name.up.sql file newer than the recorded version.
// Each migration records its own version in schema_migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// reportStore implements driven.ReportStore.
type reportStore struct {
	db *sql.DB
}

// Ensure reportStore implements the interface.
var _ driven.ReportStore = (*reportStore)(nil)

// Save stores or replaces a report.
func (s *reportStore) Save(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: report without id", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, filename, pitch_type, total_score, analysis_method, created_at_ns, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			pitch_type = excluded.pitch_type,
			total_score = excluded.total_score,
			analysis_method = excluded.analysis_method,
			created_at_ns = excluded.created_at_ns,
			report_json = excluded.report_json
	`,
		report.ID,
		report.Meta.Filename,
		string(report.PitchType),
		report.DeckScore.TotalScore,
		report.AnalysisMethod,
		report.Meta.CreatedAt.UnixNano(),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", report.ID, err)
	}
	return nil
}

// Get retrieves a report by ID.
func (s *reportStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT report_json FROM reports WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &report, nil
}

// List returns the most recent reports first.
func (s *reportStore) List(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, pitch_type, total_score, created_at_ns
		FROM reports
		ORDER BY created_at_ns DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ReportSummary
	for rows.Next() {
		var (
			summary   domain.ReportSummary
			pitchType string
			createdNS int64
		)
		if err := rows.Scan(&summary.ID, &summary.Filename, &pitchType, &summary.TotalScore, &createdNS); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		summary.PitchType = domain.PitchType(pitchType)
		summary.CreatedAt = time.Unix(0, createdNS).UTC()
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Delete removes a report. Returns domain.ErrNotFound for unknown IDs.
func (s *reportStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package runstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openbench/swe-eval-orchestrator/internal/domain"
)

// Store provides SQLite-backed persistence of evaluation runs
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run record
func (s *Store) SaveRun(run *domain.EvalRun) error {
	_, err := s.db.Exec(`
		INSERT INTO eval_runs (id, exp_name, run_index, dataset, split, agent, eval_note, status, started_at, finished_at, exit_code, log_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ExpName,
		run.RunIndex,
		run.Dataset,
		run.Split,
		run.Agent,
		run.EvalNote,
		string(run.Status),
		run.StartedAt,
		run.FinishedAt,
		run.ExitCode,
		run.LogPath,
	)
	return err
}

// UpdateRunStatus updates a run's status and exit code
func (s *Store) UpdateRunStatus(id string, status domain.RunStatus, exitCode int) error {
	_, err := s.db.Exec(`UPDATE eval_runs SET status = ?, exit_code = ?, finished_at = ? WHERE id = ?`,
		string(status), exitCode, time.Now(), id)
	return err
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*domain.EvalRun, error) {
	row := s.db.QueryRow(`
		SELECT id, exp_name, run_index, dataset, split, agent, eval_note, status, started_at, finished_at, exit_code, log_path
		FROM eval_runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListOptions specifies filters for listing runs
type ListOptions struct {
	ExpName string
	Status  domain.RunStatus
}

// ListRuns returns runs matching the given options, newest first
func (s *Store) ListRuns(opts ListOptions) ([]*domain.EvalRun, error) {
	query := `SELECT id, exp_name, run_index, dataset, split, agent, eval_note, status, started_at, finished_at, exit_code, log_path FROM eval_runs WHERE 1=1`
	var args []interface{}

	if opts.ExpName != "" {
		query += " AND exp_name = ?"
		args = append(args, opts.ExpName)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}

	query += " ORDER BY started_at DESC, run_index DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.EvalRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// LatestByExperiment returns the most recently started run of an experiment,
// or nil if none exists
func (s *Store) LatestByExperiment(expName string) (*domain.EvalRun, error) {
	runs, err := s.ListRuns(ListOptions{ExpName: expName})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*domain.EvalRun, error) {
	var run domain.EvalRun
	var status string
	var startedAt, finishedAt sql.NullTime
	var evalNote, logPath sql.NullString

	err := row.Scan(
		&run.ID,
		&run.ExpName,
		&run.RunIndex,
		&run.Dataset,
		&run.Split,
		&run.Agent,
		&evalNote,
		&status,
		&startedAt,
		&finishedAt,
		&run.ExitCode,
		&logPath,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	run.EvalNote = evalNote.String
	run.LogPath = logPath.String
	if startedAt.Valid {
		t := startedAt.Time
		run.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}

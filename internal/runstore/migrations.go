package runstore

const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
    id TEXT PRIMARY KEY,
    exp_name TEXT NOT NULL,
    run_index INTEGER NOT NULL,
    dataset TEXT NOT NULL,
    split TEXT NOT NULL,
    agent TEXT NOT NULL,
    eval_note TEXT,
    status TEXT NOT NULL,
    started_at TIMESTAMP,
    finished_at TIMESTAMP,
    exit_code INTEGER DEFAULT 0,
    log_path TEXT
);

CREATE INDEX IF NOT EXISTS idx_eval_runs_exp_name ON eval_runs(exp_name);
CREATE INDEX IF NOT EXISTS idx_eval_runs_status ON eval_runs(status);
`

package data

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

const (
	runListLimitDefault = 20

	insertRun = `INSERT INTO run (ran_at, state, model_path, model_kind, capability, row_count)
		VALUES (?, ?, ?, ?, ?, ?)`

	insertPrediction = `INSERT INTO prediction (run_id, row_index, probability, grade) VALUES (?, ?, ?, ?)`

	selectRuns = `SELECT id, ran_at, state, model_path, model_kind, capability, row_count
		FROM run
		ORDER BY id DESC
		LIMIT ?`

	selectPredictions = `SELECT row_index, probability, grade
		FROM prediction
		WHERE run_id = ?
		ORDER BY row_index`
)

// Run is one recorded scoring invocation.
type Run struct {
	ID          int64         `json:"id" yaml:"id"`
	RanAt       time.Time     `json:"ran_at" yaml:"ranAt"`
	State       string        `json:"state" yaml:"state"`
	ModelPath   string        `json:"model_path,omitempty" yaml:"modelPath,omitempty"`
	ModelKind   string        `json:"model_kind,omitempty" yaml:"modelKind,omitempty"`
	Capability  string        `json:"capability,omitempty" yaml:"capability,omitempty"`
	Rows        int           `json:"rows" yaml:"rows"`
	Predictions []*Prediction `json:"predictions,omitempty" yaml:"predictions,omitempty"`
}

type Prediction struct {
	Row         int     `json:"row" yaml:"row"`
	Probability float64 `json:"probability" yaml:"probability"`
	Grade       string  `json:"grade" yaml:"grade"`
}

// SaveRun stores the run and its predictions in one transaction and sets
// r.ID.
func SaveRun(db *sql.DB, r *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return errors.New("run required")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(insertRun, r.RanAt.UTC().Format(time.RFC3339Nano), r.State,
		r.ModelPath, r.ModelKind, r.Capability, r.Rows)
	if err != nil {
		return errors.Wrap(err, "failed to insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get run id")
	}

	stmt, err := tx.Prepare(insertPrediction)
	if err != nil {
		return errors.Wrap(err, "failed to prepare prediction insert statement")
	}
	defer stmt.Close()

	for _, p := range r.Predictions {
		if _, err := stmt.Exec(id, p.Row, p.Probability, p.Grade); err != nil {
			return errors.Wrapf(err, "failed to insert prediction row %d", p.Row)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit run")
	}
	r.ID = id
	return nil
}

// ListRuns returns the most recent runs first, with their predictions.
func ListRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = runListLimitDefault
	}

	rows, err := db.Query(selectRuns, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r := &Run{}
		var ranAt string
		if err := rows.Scan(&r.ID, &ranAt, &r.State, &r.ModelPath, &r.ModelKind, &r.Capability, &r.Rows); err != nil {
			return nil, errors.Wrap(err, "failed to scan run row")
		}
		if r.RanAt, err = time.Parse(time.RFC3339Nano, ranAt); err != nil {
			return nil, errors.Wrapf(err, "invalid run time: %s", ranAt)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}

	for _, r := range list {
		if r.Predictions, err = getPredictions(db, r.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func getPredictions(db *sql.DB, runID int64) ([]*Prediction, error) {
	rows, err := db.Query(selectPredictions, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query predictions for run %d", runID)
	}
	defer rows.Close()

	list := make([]*Prediction, 0)
	for rows.Next() {
		p := &Prediction{}
		if err := rows.Scan(&p.Row, &p.Probability, &p.Grade); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction row")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate predictions")
	}
	return list, nil
}

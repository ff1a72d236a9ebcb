package experiment

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// TblResults is the name of the sql table holding one row per task result.
const TblResults = "results"

// Store records experiment results in a sql database alongside the CSV
// files.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the sqlite database at dsn.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, dsn, err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore creates the results table in db if it does not exist.
func NewStore(db *sql.DB) (*Store, error) {
	s := "CREATE TABLE IF NOT EXISTS " + TblResults + ` (
		run_id TEXT, plan_name TEXT, dim INTEGER, rule_kind TEXT, report TEXT,
		idx INTEGER, function TEXT, seed INTEGER, failed INTEGER, genome TEXT, rule TEXT,
		avg_mse REAL, mse REAL, min REAL, mean REAL, std REAL,
		elapsed REAL, search_elapsed REAL, created TEXT
	);`
	if _, err := db.Exec(s); err != nil {
		return nil, fmt.Errorf("%w: create tables: %w", ErrPersistence, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Save inserts results under runID in a single transaction.
func (s *Store) Save(ctx context.Context, runID uuid.UUID, plan Plan, results []Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			err = fmt.Errorf("%w: run %v: %w", ErrPersistence, runID, err)
			return
		}
		err = tx.Commit()
		if err != nil {
			err = fmt.Errorf("%w: run %v: %w", ErrPersistence, runID, err)
		}
	}()

	q := "INSERT INTO " + TblResults + ` (run_id,plan_name,dim,rule_kind,report,idx,function,seed,failed,genome,rule,
		avg_mse,mse,min,mean,std,elapsed,search_elapsed,created) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`
	created := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		elapsed := res.MSE.Elapsed
		if plan.Report == Stats {
			elapsed = res.Stats.Elapsed
		}
		mse := plan.Report == MSE && !res.Failed
		stats := plan.Report == Stats && !res.Failed
		_, err := tx.ExecContext(ctx, q,
			runID.String(), plan.String(), plan.Dim, plan.Rule.String(), plan.Report.String(),
			res.Index, res.Function, res.Seed, res.Failed, hex.EncodeToString(res.Genome), res.Rule,
			nullable(mse, res.MSE.Avg), nullable(mse, res.MSE.Best),
			nullable(stats, res.Stats.Min), nullable(stats, res.Stats.Mean), nullable(stats, res.Stats.StdDev),
			elapsed.Seconds(), res.SearchElapsed.Seconds(), created,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func nullable(ok bool, v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}

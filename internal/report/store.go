package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/core/sqlite"
	"github.com/FocuswithJustin/JuniperMerge/internal/logging"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		book TEXT NOT NULL,
		level TEXT NOT NULL,
		digest TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clusters (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		ref_min INTEGER NOT NULL,
		ref_max INTEGER NOT NULL,
		insert_index INTEGER NOT NULL,
		units TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS differences (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		ref_start INTEGER NOT NULL,
		ref_end INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS differences_kind ON differences(kind)`,
}

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store keeps compare reports in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Run summarises one stored report.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Book        string
	Level       string
	Digest      string
	Differences int
}

// OpenStore opens (creating if needed) the report database at path.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases and pragmas consistent.
	db.SetMaxOpenConns(1)
	if err := sqlite.Migrate(ctx, db, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenStoreReadOnly opens an existing report database for reading. Nothing
// is migrated, so Save and Delete fail on it.
func OpenStoreReadOnly(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	logging.DebugContext(ctx, "report_store_opened", "path", path, "read_only", true)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type clusterUnits struct {
	Current  []Unit `json:"current,omitempty"`
	Revision []Unit `json:"revision,omitempty"`
}

// Save writes r in one transaction.
func (s *Store) Save(ctx context.Context, r *Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin save")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, book, level, digest) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout), r.Book, r.Level, r.Digest)
	if err != nil {
		return errors.Wrapf(err, "failed to save run %s", r.ID)
	}

	for i, c := range r.Clusters {
		data, err := json.Marshal(clusterUnits{Current: c.Current, Revision: c.Revision})
		if err != nil {
			return errors.Wrapf(err, "failed to encode cluster %d", i)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO clusters (run_id, seq, type, ref_min, ref_max, insert_index, units) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, c.Type.String(), int(c.Min), int(c.Max), c.InsertIndex, string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to save cluster %d", i)
		}
	}

	for i, d := range r.Differences.All() {
		data, err := json.Marshal(d)
		if err != nil {
			return errors.Wrapf(err, "failed to encode difference %d", i)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO differences (run_id, seq, kind, ref_start, ref_end, data) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, i, d.Kind.String(), int(d.RefStart), int(d.RefEnd), string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to save difference %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit run %s", r.ID)
	}
	logging.ReportWritten(s.logger, "sqlite", len(r.Clusters), r.Differences.Len(), "run_id", r.ID)
	return nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.book, r.level, r.digest,
		       (SELECT count(*) FROM differences d WHERE d.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &created, &run.Book, &run.Level, &run.Digest, &run.Differences); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, errors.Wrapf(err, "run %s has bad timestamp", run.ID)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Load reads the report stored under id.
func (s *Store) Load(ctx context.Context, id string) (*Report, error) {
	r := &Report{ID: id}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, book, level, digest FROM runs WHERE id = ?`, id).
		Scan(&created, &r.Book, &r.Level, &r.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("run", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, errors.Wrapf(err, "run %s has bad timestamp", id)
	}

	if r.Clusters, err = s.loadClusters(ctx, id); err != nil {
		return nil, err
	}
	diffs, err := s.loadDifferences(ctx, id)
	if err != nil {
		return nil, err
	}
	// Differences were saved in list order.
	r.Differences = diff.NewList(diffs...)
	return r, nil
}

func (s *Store) loadClusters(ctx context.Context, id string) ([]Cluster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, ref_min, ref_max, insert_index, units FROM clusters WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load clusters")
	}
	defer rows.Close()

	var out []Cluster
	for rows.Next() {
		var (
			c          Cluster
			typ, units string
			lo, hi     int
		)
		if err := rows.Scan(&typ, &lo, &hi, &c.InsertIndex, &units); err != nil {
			return nil, errors.Wrap(err, "failed to scan cluster")
		}
		if err := c.Type.UnmarshalText([]byte(typ)); err != nil {
			return nil, err
		}
		var cu clusterUnits
		if err := json.Unmarshal([]byte(units), &cu); err != nil {
			return nil, errors.NewParse("cluster units", "", err.Error())
		}
		c.Min, c.Max = ir.Ordinal(lo), ir.Ordinal(hi)
		c.Current, c.Revision = cu.Current, cu.Revision
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadDifferences(ctx context.Context, id string) ([]*diff.Difference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM differences WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load differences")
	}
	defer rows.Close()

	var out []*diff.Difference
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "failed to scan difference")
		}
		var d diff.Difference
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, errors.NewParse("difference", "", err.Error())
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// CountByKind returns how many stored differences of each kind the run has.
func (s *Store) CountByKind(ctx context.Context, id string) (map[diff.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, count(*) FROM differences WHERE run_id = ? GROUP BY kind`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count differences")
	}
	defer rows.Close()

	out := make(map[diff.Kind]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan count")
		}
		var k diff.Kind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

// Delete removes a run and everything stored with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run", id)
	}
	return nil
}

// Package store persists embedding runs and their latent vectors in a local
// SQLite database so downstream analysis never has to re-run inference.
package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nuclei-pipeline/internal/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_unix INTEGER NOT NULL,
	model_path TEXT NOT NULL,
	dataset_dir TEXT NOT NULL,
	n_samples INTEGER NOT NULL,
	latent_dim INTEGER NOT NULL,
	seed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS latents (
	run_id TEXT NOT NULL REFERENCES runs(id),
	sample_id TEXT NOT NULL,
	label INTEGER NOT NULL,
	vec BLOB NOT NULL,
	PRIMARY KEY (run_id, sample_id)
);
CREATE INDEX IF NOT EXISTS idx_latents_run ON latents(run_id);
`

// Run is one recorded embedding run.
type Run struct {
	ID         string
	Created    time.Time
	ModelPath  string
	DatasetDir string
	NSamples   int
	LatentDim  int
	Seed       int64
}

// Store wraps the embeddings database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new run and returns it with a fresh id.
func (s *Store) CreateRun(modelPath, datasetDir string, nSamples, latentDim int, seed int64) (Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		Created:    time.Now(),
		ModelPath:  modelPath,
		DatasetDir: datasetDir,
		NSamples:   nSamples,
		LatentDim:  latentDim,
		Seed:       seed,
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, created_unix, model_path, dataset_dir, n_samples, latent_dim, seed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Created.Unix(), run.ModelPath, run.DatasetDir, run.NSamples, run.LatentDim, run.Seed)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// InsertLatents writes all embeddings of a run in one transaction.
func (s *Store) InsertLatents(runID string, embeddings []embed.Embedding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO latents (run_id, sample_id, label, vec) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range embeddings {
		if _, err := stmt.Exec(runID, e.SampleID, e.Label, encodeVec(e.Vector)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert latent %s: %w", e.SampleID, err)
		}
	}
	return tx.Commit()
}

// LatentsByRun returns all embeddings of a run, ordered by sample id.
func (s *Store) LatentsByRun(runID string) ([]embed.Embedding, error) {
	rows, err := s.db.Query(
		`SELECT sample_id, label, vec FROM latents WHERE run_id = ? ORDER BY sample_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []embed.Embedding
	for rows.Next() {
		var e embed.Embedding
		var blob []byte
		if err := rows.Scan(&e.SampleID, &e.Label, &blob); err != nil {
			return nil, err
		}
		e.Vector = decodeVec(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns all recorded runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, created_unix, model_path, dataset_dir, n_samples, latent_dim, seed
		 FROM runs ORDER BY created_unix DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.ModelPath, &r.DatasetDir, &r.NSamples, &r.LatentDim, &r.Seed); err != nil {
			return nil, err
		}
		r.Created = time.Unix(created, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Latent vectors are stored as little-endian float32 blobs.

func encodeVec(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVec(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists conversion records in a SQLite database so
// repeated runs can be audited: which years were converted, when, at
// what shape, and how many sentinel cells were recoded.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

const (
	dbFile       = "catalog.db"
	manifestFile = "manifest.yaml"
)

// Store manages the conversion catalog database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens or creates the catalog database at dataDir/catalog.db,
// creating the schema if needed.
func Open(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	s := &Store{db: db, dataDir: cfg.DataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		year INTEGER PRIMARY KEY,
		source_path TEXT NOT NULL,
		output_path TEXT NOT NULL,
		rows INTEGER NOT NULL,
		columns INTEGER NOT NULL,
		recoded_m INTEGER NOT NULL,
		recoded_n INTEGER NOT NULL,
		recoded_l INTEGER NOT NULL,
		recoded_d INTEGER NOT NULL,
		converted_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record upserts one conversion record, keyed by year.
func (s *Store) Record(ctx context.Context, rec *types.Conversion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions
			(year, source_path, output_path, rows, columns,
			 recoded_m, recoded_n, recoded_l, recoded_d, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(year) DO UPDATE SET
			source_path=excluded.source_path, output_path=excluded.output_path,
			rows=excluded.rows, columns=excluded.columns,
			recoded_m=excluded.recoded_m, recoded_n=excluded.recoded_n,
			recoded_l=excluded.recoded_l, recoded_d=excluded.recoded_d,
			converted_at=excluded.converted_at`,
		rec.Year, rec.SourcePath, rec.OutputPath, rec.Rows, rec.Columns,
		rec.RecodedM, rec.RecodedN, rec.RecodedL, rec.RecodedD,
		rec.ConvertedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording conversion for year %d: %w", rec.Year, err)
	}
	return nil
}

// List returns all conversion records ordered by year.
func (s *Store) List(ctx context.Context) ([]*types.Conversion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, source_path, output_path, rows, columns,
		        recoded_m, recoded_n, recoded_l, recoded_d, converted_at
		 FROM conversions ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var records []*types.Conversion
	for rows.Next() {
		var rec types.Conversion
		var ts string
		if err := rows.Scan(&rec.Year, &rec.SourcePath, &rec.OutputPath,
			&rec.Rows, &rec.Columns,
			&rec.RecodedM, &rec.RecodedN, &rec.RecodedL, &rec.RecodedD,
			&ts); err != nil {
			return nil, fmt.Errorf("scanning conversion row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
			rec.ConvertedAt = t
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading conversion rows: %w", err)
	}
	return records, nil
}

// ExportManifest writes all records to dataDir/manifest.yaml and
// returns the manifest path.
func (s *Store) ExportManifest(ctx context.Context) (string, error) {
	records, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	doc := struct {
		GeneratedAt time.Time           `yaml:"generated_at"`
		Conversions []*types.Conversion `yaml:"conversions"`
	}{
		GeneratedAt: time.Now().UTC(),
		Conversions: records,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	path := filepath.Join(s.dataDir, manifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/csmizzle/conductor/internal/util"
	"github.com/csmizzle/conductor/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Run lifecycle states.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrRunNotFound is returned when no run exists for the given ID.
var ErrRunNotFound = errors.New("research run not found")

// ErrRunNotClaimable is returned by ClaimRun when the run is not pending,
// typically because another worker already claimed it.
var ErrRunNotClaimable = errors.New("research run is not pending")

// ResearchRun is one submitted extraction job: a specification, the triple
// types to extract, and its lifecycle state.
type ResearchRun struct {
	ID            string              `json:"id"`
	Specification string              `json:"specification"`
	TripleTypes   []common.TripleType `json:"triple_types"`
	Status        string              `json:"status"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	ExportKey     string              `json:"export_key,omitempty"`
}

// Store provides postgres persistence for research runs, their finished
// graphs, and the indexed evidence passages.
type Store struct {
	conn *pgxpool.Pool
}

// NewStore creates a Store on top of an existing connection pool.
func NewStore(conn *pgxpool.Pool) *Store {
	return &Store{conn: conn}
}

// Connect opens a connection pool and registers the pgvector types on every
// connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	return pgxpool.NewWithConfig(ctx, config)
}

// CreateRun persists a new pending run and returns it with its assigned ID.
func (s *Store) CreateRun(ctx context.Context, specification string, tripleTypes []common.TripleType) (*ResearchRun, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	tts, err := json.Marshal(tripleTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal triple types: %w", err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO research_runs (public_id, specification, triple_types, status)
		VALUES ($1, $2, $3, $4)
	`, id, specification, tts, RunStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return &ResearchRun{
		ID:            id,
		Specification: specification,
		TripleTypes:   tripleTypes,
		Status:        RunStatusPending,
	}, nil
}

// GetRun fetches a run by its public ID.
func (s *Store) GetRun(ctx context.Context, id string) (*ResearchRun, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT public_id, specification, triple_types, status,
		       COALESCE(error_message, ''), COALESCE(export_key, '')
		FROM research_runs
		WHERE public_id = $1
	`, id)

	return scanRun(row)
}

// ClaimRun transitions a pending run to running and returns it. Only one
// worker can win the claim; the rest get ErrRunNotClaimable.
func (s *Store) ClaimRun(ctx context.Context, id string) (*ResearchRun, error) {
	row := s.conn.QueryRow(ctx, `
		UPDATE research_runs
		SET status = $2, updated_at = now()
		WHERE public_id = $1 AND status = $3
		RETURNING public_id, specification, triple_types, status,
		          COALESCE(error_message, ''), COALESCE(export_key, '')
	`, id, RunStatusRunning, RunStatusPending)

	run, err := scanRun(row)
	if errors.Is(err, ErrRunNotFound) {
		// Distinguish a missing run from a lost claim.
		if _, getErr := s.GetRun(ctx, id); getErr == nil {
			return nil, ErrRunNotClaimable
		}
		return nil, ErrRunNotFound
	}
	return run, err
}

// CompleteRun marks a run completed and records the export location of its
// graph.
func (s *Store) CompleteRun(ctx context.Context, id string, exportKey string) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE research_runs
		SET status = $2, export_key = $3, error_message = NULL, updated_at = now()
		WHERE public_id = $1
	`, id, RunStatusCompleted, exportKey)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun marks a run failed with the given message.
func (s *Store) FailRun(ctx context.Context, id string, message string) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE research_runs
		SET status = $2, error_message = $3, updated_at = now()
		WHERE public_id = $1
	`, id, RunStatusFailed, message)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// DeleteRun removes a run and its stored graph.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM research_runs WHERE public_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SaveGraph stores the deduplicated graph of a finished run.
func (s *Store) SaveGraph(ctx context.Context, runID string, graph common.AggregatedCitedGraph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO research_graphs (run_id, graph)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET graph = EXCLUDED.graph, updated_at = now()
	`, runID, data)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

// GetGraph fetches the stored graph of a run.
func (s *Store) GetGraph(ctx context.Context, runID string) (*common.AggregatedCitedGraph, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, `
		SELECT graph FROM research_graphs WHERE run_id = $1
	`, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graph: %w", err)
	}

	var graph common.AggregatedCitedGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// AddPassage indexes one evidence passage with its embedding for similarity
// retrieval.
func (s *Store) AddPassage(ctx context.Context, content string, citation string, embedding []float32) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate passage ID: %w", err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO research_passages (public_id, content, citation, embedding)
		VALUES ($1, $2, $3, $4)
	`, id, util.SanitizePostgresText(content), citation, pgvector.NewVector(embedding))
	if err != nil {
		return "", fmt.Errorf("failed to insert passage: %w", err)
	}
	return id, nil
}

func scanRun(row pgx.Row) (*ResearchRun, error) {
	var run ResearchRun
	var tts []byte
	err := row.Scan(&run.ID, &run.Specification, &tts, &run.Status, &run.ErrorMessage, &run.ExportKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if err := json.Unmarshal(tts, &run.TripleTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triple types: %w", err)
	}
	return &run, nil
}

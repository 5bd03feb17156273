package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/csmizzle/conductor/internal/db"
	"github.com/csmizzle/conductor/internal/storage"
	"github.com/csmizzle/conductor/internal/util"
	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/graph"
	"github.com/csmizzle/conductor/pkg/logger"
	"github.com/csmizzle/conductor/pkg/retrieval"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessResearchMessage handles one submitted run end to end: claim the
// run, extract and deduplicate the relationship graph, persist it, export
// the JSON to S3 and mark the run completed. Any error after a successful
// claim marks the run as failed before being returned for retry handling.
func ProcessResearchMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.ResearchAIClient,
	retriever retrieval.Retriever,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(ResearchRunMsg)
	if err = json.Unmarshal([]byte(msg), &data); err != nil {
		return err
	}
	runID := data.RunID

	store := db.NewStore(conn)
	run, err := store.ClaimRun(ctx, runID)
	if err != nil {
		if errors.Is(err, db.ErrRunNotClaimable) || errors.Is(err, db.ErrRunNotFound) {
			logger.Warn("[Queue] Skipping run that is not claimable", "run_id", runID, "err", err)
			return nil
		}
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if updateErr := store.FailRun(updateCtx, runID, err.Error()); updateErr != nil {
			logger.Warn("[Queue] Failed to mark run as failed", "run_id", runID, "err", updateErr)
		}
	}()

	logger.Info("[Queue] Processing research run", "run_id", runID, "triple_types", len(run.TripleTypes))

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		ParallelQueries:    util.GetEnvInt("GRAPH_PARALLEL_QUERIES", 4),
		ParallelAiRequests: util.GetEnvInt("AI_PARALLEL_REQ", 16),
		MaxRetries:         util.GetEnvInt("GRAPH_MAX_RETRIES", 3),
	})
	if err != nil {
		return fmt.Errorf("failed to create graph client: %w", err)
	}

	relationships, err := graphClient.ExtractParallel(ctx, run.Specification, run.TripleTypes, aiClient, retriever)
	if err != nil {
		return err
	}

	aggregated := graph.CreateDeduplicatedGraph(relationships)

	if err = store.SaveGraph(ctx, runID, aggregated); err != nil {
		return err
	}

	exportData, err := json.Marshal(aggregated)
	if err != nil {
		return fmt.Errorf("failed to marshal graph export: %w", err)
	}

	exportKey, err := storage.PutGraphExport(ctx, s3Client, runID, exportData)
	if err != nil {
		return err
	}

	if err = store.CompleteRun(ctx, runID, exportKey); err != nil {
		return err
	}

	logger.Info("[Queue] Research run completed",
		"run_id", runID,
		"relationships", len(aggregated.Relationships),
		"entities", len(aggregated.Entities),
		"export_key", exportKey,
	)

	return nil
}

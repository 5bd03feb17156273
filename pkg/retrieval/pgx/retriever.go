package pgx

import (
	"context"
	"fmt"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
	"github.com/csmizzle/conductor/pkg/retrieval"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const defaultTopK = 8

// PassageRetriever answers questions from passages indexed in postgres with
// pgvector embeddings. Implements retrieval.Retriever.
type PassageRetriever struct {
	conn     *pgxpool.Pool
	aiClient ai.ResearchAIClient
	topK     int
}

// NewPassageRetrieverParams defines the configuration for a
// PassageRetriever. TopK bounds how many passages are fetched per question;
// zero selects the default.
type NewPassageRetrieverParams struct {
	Conn     *pgxpool.Pool
	AIClient ai.ResearchAIClient
	TopK     int
}

// NewPassageRetriever creates a retriever over the research_passages table.
func NewPassageRetriever(params NewPassageRetrieverParams) *PassageRetriever {
	topK := params.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &PassageRetriever{
		conn:     params.Conn,
		aiClient: params.AIClient,
		topK:     topK,
	}
}

// Retrieve embeds the query, runs a cosine-distance search over the indexed
// passages, and synthesizes a cited answer with per-source credibility. A
// question with no matching passages returns an answer with an empty
// document list, not an error.
func (r *PassageRetriever) Retrieve(ctx context.Context, query string) (*common.Answer, error) {
	embedding, err := r.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT public_id, content, citation
		FROM research_passages
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	documents := make([]common.DocumentWithCredibility, 0, r.topK)
	for rows.Next() {
		var doc common.DocumentWithCredibility
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Citation); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passages: %w", err)
	}

	logger.Debug("[Retrieval] Passages fetched", "query", query, "count", len(documents))

	return retrieval.SynthesizeAnswer(ctx, r.aiClient, query, documents)
}

package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
)

// reasonRelationship produces a grounded justification for one extracted
// relationship. Reasoning is enrichment, not a correctness gate: on failure
// the relationship keeps an empty reasoning string and is never dropped.
func reasonRelationship(
	ctx context.Context,
	client ai.ResearchAIClient,
	query string,
	document string,
	relationship common.Relationship,
) string {
	prompt := fmt.Sprintf(
		ai.ReasonPrompt,
		query,
		relationship.Source.Name,
		relationship.Type,
		relationship.Target.Name,
		document,
	)

	reasoning, err := client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("[Graph] Reasoning failed, keeping relationship without justification", "source", relationship.Source.Name, "target", relationship.Target.Name, "error", err)
		return ""
	}

	return strings.TrimSpace(reasoning)
}

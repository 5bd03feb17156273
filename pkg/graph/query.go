package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
)

// generateQuery turns a research specification and one triple-type pattern
// into a retrieval question. When the model call fails the triple type must
// still be able to contribute retrieval, so a template rendering of the
// pattern is used as fallback.
func generateQuery(
	ctx context.Context,
	client ai.ResearchAIClient,
	specification string,
	tripleType common.TripleType,
) string {
	prompt := fmt.Sprintf(
		ai.QueryPrompt,
		specification,
		tripleType.Source,
		tripleType.Relationship,
		tripleType.Target,
	)

	query, err := client.GenerateCompletion(ctx, prompt)
	if err != nil || strings.TrimSpace(query) == "" {
		if err != nil {
			logger.Warn("[Graph] Query generation failed, using template", "relationship", tripleType.Relationship, "error", err)
		}
		return templateQuery(specification, tripleType)
	}

	return strings.TrimSpace(query)
}

func templateQuery(specification string, tripleType common.TripleType) string {
	return fmt.Sprintf(
		"Which %s has a %s relationship with which %s? Context: %s",
		strings.ToLower(string(tripleType.Source)),
		strings.ToLower(strings.ReplaceAll(string(tripleType.Relationship), "_", " ")),
		strings.ToLower(string(tripleType.Target)),
		strings.TrimSpace(specification),
	)
}

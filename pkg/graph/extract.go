package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"

	_ "github.com/invopop/jsonschema"
)

type extractedRelationship struct {
	SourceName         string `json:"source_name" jsonschema_description:"Name of the source entity, copied from the document"`
	SourceType         string `json:"source_type" jsonschema_description:"Entity type of the source, one of the provided entity types"`
	TargetName         string `json:"target_name" jsonschema_description:"Name of the target entity, copied from the document"`
	TargetType         string `json:"target_type" jsonschema_description:"Entity type of the target, one of the provided entity types"`
	Faithfulness       int    `json:"faithfulness" jsonschema_description:"How directly the document states the relationship, 1-5"`
	FactualCorrectness int    `json:"factual_correctness" jsonschema_description:"How likely the stated relationship is correct, 1-5"`
	Confidence         int    `json:"confidence" jsonschema_description:"Overall confidence in the extraction, 1-5"`
}

type extractResponse struct {
	Relationships []extractedRelationship `json:"relationships" jsonschema_description:"Relationships identified in the text document"`
}

// extractFromDocument extracts candidate relationships matching the given
// triple-type pattern from a single document. Candidates with an empty or
// whitespace source/target name, and candidates whose entity types do not
// match the pattern, are suppressed here and never surface downstream. The
// relationship type of every returned candidate is the pattern's.
func extractFromDocument(
	ctx context.Context,
	client ai.ResearchAIClient,
	query string,
	document string,
	tripleType common.TripleType,
) ([]common.Relationship, error) {
	prompt := fmt.Sprintf(
		ai.ExtractPrompt,
		query,
		tripleType.Source,
		tripleType.Relationship,
		tripleType.Target,
		tripleType.Source,
		tripleType.Target,
	)

	var res extractResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"extract_relationships",
		"Extract typed relationships from a provided document.",
		document,
		&res,
		ai.WithSystemPrompts(prompt),
	)
	if err != nil {
		return nil, err
	}

	relations := make([]common.Relationship, 0, len(res.Relationships))
	emptyNames := 0
	typeMismatches := 0
	for _, rel := range res.Relationships {
		if strings.TrimSpace(rel.SourceName) == "" || strings.TrimSpace(rel.TargetName) == "" {
			emptyNames++
			continue
		}
		if common.EntityType(rel.SourceType) != tripleType.Source ||
			common.EntityType(rel.TargetType) != tripleType.Target {
			typeMismatches++
			continue
		}

		relations = append(relations, common.Relationship{
			Source: common.Entity{
				Type: tripleType.Source,
				Name: rel.SourceName,
			},
			Target: common.Entity{
				Type: tripleType.Target,
				Name: rel.TargetName,
			},
			Type:               tripleType.Relationship,
			Faithfulness:       clampScore(rel.Faithfulness),
			FactualCorrectness: clampScore(rel.FactualCorrectness),
			Confidence:         clampScore(rel.Confidence),
		})
	}

	if emptyNames > 0 || typeMismatches > 0 {
		logger.Debug("[Graph] Discarded invalid candidates", "empty_names", emptyNames, "type_mismatches", typeMismatches, "relationship", tripleType.Relationship)
	}

	return relations, nil
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

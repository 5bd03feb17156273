package graph

import (
	"context"
	"errors"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
)

type mockAIClient struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
	formatFn   func(ctx context.Context, name string, systemPrompt string, prompt string, out any) error
}

func (m *mockAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	if m.completeFn == nil {
		return "", errors.New("completeFn not set")
	}
	return m.completeFn(ctx, prompt)
}

func (m *mockAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if m.formatFn == nil {
		return errors.New("formatFn not set")
	}
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	systemPrompt := ""
	if len(options.SystemPrompts) > 0 {
		systemPrompt = options.SystemPrompts[0]
	}
	return m.formatFn(ctx, name, systemPrompt, prompt, out)
}

func (m *mockAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return make([]float32, 8), nil
}

func (m *mockAIClient) ResetMetrics() {}

func (m *mockAIClient) GetMetrics() ai.ModelMetrics {
	return ai.ModelMetrics{}
}

type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string) (*common.Answer, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) (*common.Answer, error) {
	if m.retrieveFn == nil {
		return nil, errors.New("retrieveFn not set")
	}
	return m.retrieveFn(ctx, query)
}

func testDocument(id, content, citation string) common.DocumentWithCredibility {
	return common.DocumentWithCredibility{
		ID:          id,
		Content:     content,
		Citation:    citation,
		Credibility: common.CredibilityMedium,
	}
}

func testCandidate(
	sourceType common.EntityType,
	sourceName string,
	relType common.RelationshipType,
	targetType common.EntityType,
	targetName string,
	reasoning string,
	confidence int,
	document common.DocumentWithCredibility,
) common.CitedRelationship {
	return common.CitedRelationship{
		Relationship: common.Relationship{
			Source:             common.Entity{Type: sourceType, Name: sourceName},
			Target:             common.Entity{Type: targetType, Name: targetName},
			Type:               relType,
			Faithfulness:       confidence,
			FactualCorrectness: confidence,
			Confidence:         confidence,
		},
		Reasoning: reasoning,
		Query:     "test query",
		Document:  document,
	}
}

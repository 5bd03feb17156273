package graph

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/csmizzle/conductor/pkg/common"
)

func testGraphClient(t *testing.T) *GraphClient {
	t.Helper()
	client, err := NewGraphClient(NewGraphClientParams{
		ParallelQueries:    2,
		ParallelAiRequests: 4,
		MaxRetries:         1,
	})
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	return client
}

// extractorFor answers every extraction request with one relationship
// matching the pattern embedded in the system prompt.
func extractorFor(tripleTypes []common.TripleType, source, target string) func(ctx context.Context, name string, systemPrompt string, prompt string, out any) error {
	return func(ctx context.Context, name string, systemPrompt string, prompt string, out any) error {
		res := out.(*extractResponse)
		for _, tt := range tripleTypes {
			if strings.Contains(systemPrompt, string(tt.Relationship)) {
				res.Relationships = []extractedRelationship{{
					SourceName:         source,
					SourceType:         string(tt.Source),
					TargetName:         target,
					TargetType:         string(tt.Target),
					Faithfulness:       4,
					FactualCorrectness: 4,
					Confidence:         4,
				}}
				return nil
			}
		}
		return errors.New("no pattern in prompt")
	}
}

func TestExtractParallelEmptyTripleTypes(t *testing.T) {
	client := testGraphClient(t)

	_, err := client.ExtractParallel(context.Background(), "the company is Acme", nil, &mockAIClient{}, &mockRetriever{})
	if !errors.Is(err, ErrNoTripleTypes) {
		t.Fatalf("expected ErrNoTripleTypes, got %v", err)
	}
}

func TestExtractParallelIdenticalQueriesBothSurvive(t *testing.T) {
	tripleTypes := []common.TripleType{
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipEmployee, Target: common.EntityTypePerson},
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipFounder, Target: common.EntityTypePerson},
	}

	aiClient := &mockAIClient{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "search questions") {
				// Both triple types collapse to the same query string.
				return "who is connected to Acme?", nil
			}
			return "grounded reasoning", nil
		},
		formatFn: extractorFor(tripleTypes, "Acme", "John Doe"),
	}

	retriever := &mockRetriever{
		retrieveFn: func(ctx context.Context, query string) (*common.Answer, error) {
			return &common.Answer{
				Question:  query,
				Answer:    "John Doe is connected to Acme.",
				Documents: []common.DocumentWithCredibility{testDocument("d1", "John Doe founded Acme and works there.", "https://example.com")},
			}, nil
		},
	}

	client := testGraphClient(t)
	cited, err := client.ExtractParallel(context.Background(), "the company is Acme", tripleTypes, aiClient, retriever)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cited) != 2 {
		t.Fatalf("expected 2 candidates (one per triple type), got %d", len(cited))
	}
	types := map[common.RelationshipType]bool{}
	for _, c := range cited {
		types[c.Relationship.Type] = true
		if c.Query != "who is connected to Acme?" {
			t.Errorf("candidate query = %q", c.Query)
		}
	}
	if !types[common.RelationshipEmployee] || !types[common.RelationshipFounder] {
		t.Errorf("a triple type's retrieval was lost to the query collision: %v", types)
	}
}

func TestExtractParallelExtractionFailureIsolated(t *testing.T) {
	tripleTypes := []common.TripleType{
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipEmployee, Target: common.EntityTypePerson},
	}

	aiClient := &mockAIClient{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			return "who works at Acme?", nil
		},
		formatFn: func(ctx context.Context, name string, systemPrompt string, prompt string, out any) error {
			if strings.Contains(prompt, "document two") {
				return errors.New("extraction backend error")
			}
			res := out.(*extractResponse)
			res.Relationships = []extractedRelationship{{
				SourceName: "Acme", SourceType: "COMPANY",
				TargetName: "John Doe", TargetType: "PERSON",
				Faithfulness: 4, FactualCorrectness: 4, Confidence: 4,
			}}
			return nil
		},
	}

	retriever := &mockRetriever{
		retrieveFn: func(ctx context.Context, query string) (*common.Answer, error) {
			return &common.Answer{
				Question: query,
				Documents: []common.DocumentWithCredibility{
					testDocument("d1", "document one", "https://example.com/1"),
					testDocument("d2", "document two", "https://example.com/2"),
					testDocument("d3", "document three", "https://example.com/3"),
				},
			}, nil
		},
	}

	client := testGraphClient(t)
	cited, err := client.ExtractParallel(context.Background(), "the company is Acme", tripleTypes, aiClient, retriever)
	if err != nil {
		t.Fatalf("extraction failure must not abort the batch: %v", err)
	}

	if len(cited) != 2 {
		t.Fatalf("expected candidates from documents 1 and 3, got %d", len(cited))
	}
	for _, c := range cited {
		if c.Document.ID == "d2" {
			t.Errorf("failed document leaked into output")
		}
	}
}

func TestExtractParallelRetrievalFailureDropsTripleType(t *testing.T) {
	tripleTypes := []common.TripleType{
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipEmployee, Target: common.EntityTypePerson},
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipLocatedIn, Target: common.EntityTypeLocation},
	}

	aiClient := &mockAIClient{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "search questions") {
				if strings.Contains(prompt, "LOCATED_IN") {
					return "where is Acme located?", nil
				}
				return "who works at Acme?", nil
			}
			return "grounded reasoning", nil
		},
		formatFn: extractorFor(tripleTypes, "Acme", "John Doe"),
	}

	retriever := &mockRetriever{
		retrieveFn: func(ctx context.Context, query string) (*common.Answer, error) {
			if strings.Contains(query, "located") {
				return nil, errors.New("retrieval backend down")
			}
			return &common.Answer{
				Question:  query,
				Documents: []common.DocumentWithCredibility{testDocument("d1", "John Doe works at Acme.", "https://example.com")},
			}, nil
		},
	}

	client := testGraphClient(t)
	cited, err := client.ExtractParallel(context.Background(), "the company is Acme", tripleTypes, aiClient, retriever)
	if err != nil {
		t.Fatalf("retrieval failure must not abort the batch: %v", err)
	}

	if len(cited) != 1 {
		t.Fatalf("expected 1 candidate from the surviving triple type, got %d", len(cited))
	}
	if cited[0].Relationship.Type != common.RelationshipEmployee {
		t.Errorf("unexpected surviving relationship type: %s", cited[0].Relationship.Type)
	}
}

func TestExtractParallelReasoningFailureKeepsRelationship(t *testing.T) {
	tripleTypes := []common.TripleType{
		{Source: common.EntityTypeCompany, Relationship: common.RelationshipEmployee, Target: common.EntityTypePerson},
	}

	var queryCalls atomic.Int32
	aiClient := &mockAIClient{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "search questions") {
				queryCalls.Add(1)
				return "who works at Acme?", nil
			}
			return "", errors.New("reasoning backend error")
		},
		formatFn: extractorFor(tripleTypes, "Acme", "John Doe"),
	}

	retriever := &mockRetriever{
		retrieveFn: func(ctx context.Context, query string) (*common.Answer, error) {
			return &common.Answer{
				Question:  query,
				Answer:    "John Doe works at Acme.",
				Documents: []common.DocumentWithCredibility{testDocument("d1", "John Doe works at Acme.", "https://example.com")},
			}, nil
		},
	}

	client := testGraphClient(t)
	cited, err := client.ExtractParallel(context.Background(), "the company is Acme", tripleTypes, aiClient, retriever)
	if err != nil {
		t.Fatalf("reasoning failure must not abort the batch: %v", err)
	}

	if len(cited) != 1 {
		t.Fatalf("expected the relationship to survive, got %d candidates", len(cited))
	}
	if cited[0].Reasoning != "" {
		t.Errorf("expected empty reasoning, got %q", cited[0].Reasoning)
	}
	if cited[0].Answer.Answer != "John Doe works at Acme." {
		t.Errorf("answer bundle not carried through: %+v", cited[0].Answer)
	}
	if queryCalls.Load() != 1 {
		t.Errorf("expected 1 query generation call, got %d", queryCalls.Load())
	}
}

package graph

import (
	"testing"

	"github.com/csmizzle/conductor/pkg/common"
)

func TestCreateDeduplicatedGraphGroupsCaseAndWhitespaceVariants(t *testing.T) {
	d1 := testDocument("d1", "Acme Corp employs John Doe.", "https://example.com/a")
	d2 := testDocument("d2", "john doe works at acme corp.", "https://example.com/b")

	input := []common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Acme Corp", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "first", 4, d1),
		testCandidate(common.EntityTypeCompany, "acme corp ", common.RelationshipEmployee, common.EntityTypePerson, "john doe", "second", 3, d2),
	}

	graph := CreateDeduplicatedGraph(input)

	if len(graph.Relationships) != 1 {
		t.Fatalf("expected 1 aggregated relationship, got %d", len(graph.Relationships))
	}
	rel := graph.Relationships[0]
	if len(rel.Documents) != 2 {
		t.Errorf("expected 2 documents on the aggregate, got %d", len(rel.Documents))
	}
	if rel.Documents[0].ID != "d1" || rel.Documents[1].ID != "d2" {
		t.Errorf("documents out of group order: %s, %s", rel.Documents[0].ID, rel.Documents[1].ID)
	}
	if len(graph.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(graph.Entities))
	}
}

func TestCreateDeduplicatedGraphRepresentativeStability(t *testing.T) {
	doc := testDocument("d1", "content", "https://example.com")

	// Three duplicates in list order A, B, C; A's fields must survive.
	input := []common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Initech", common.RelationshipFounder, common.EntityTypePerson, "Bill Lumbergh", "reasoning A", 5, doc),
		testCandidate(common.EntityTypeCompany, "Initech", common.RelationshipFounder, common.EntityTypePerson, "Bill Lumbergh", "reasoning B", 2, doc),
		testCandidate(common.EntityTypeCompany, "initech", common.RelationshipFounder, common.EntityTypePerson, "bill lumbergh", "reasoning C", 1, doc),
	}

	graph := CreateDeduplicatedGraph(input)

	if len(graph.Relationships) != 1 {
		t.Fatalf("expected 1 aggregated relationship, got %d", len(graph.Relationships))
	}
	rel := graph.Relationships[0]
	if rel.Reasoning != "reasoning A" {
		t.Errorf("representative reasoning = %q, want %q", rel.Reasoning, "reasoning A")
	}
	if rel.Confidence != 5 || rel.Faithfulness != 5 || rel.FactualCorrectness != 5 {
		t.Errorf("representative scores not taken verbatim: %+v", rel)
	}
	if rel.Source.Name != "Initech" || rel.Target.Name != "Bill Lumbergh" {
		t.Errorf("representative casing not preserved: %s, %s", rel.Source.Name, rel.Target.Name)
	}
	if len(rel.Documents) != 3 {
		t.Errorf("expected one document entry per group member, got %d", len(rel.Documents))
	}
}

func TestCreateDeduplicatedGraphEntityUniqueness(t *testing.T) {
	d1 := testDocument("d1", "content one", "https://example.com/a")
	d2 := testDocument("d2", "content two", "https://example.com/b")

	input := []common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "", 4, d1),
		testCandidate(common.EntityTypeCompany, "acme", common.RelationshipFounder, common.EntityTypePerson, "JOHN DOE", "", 4, d2),
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipLocatedIn, common.EntityTypeLocation, "Berlin", "", 4, d1),
	}

	graph := CreateDeduplicatedGraph(input)

	seen := make(map[string]bool)
	for _, entity := range graph.Entities {
		key := entity.Entity.Key()
		if seen[key] {
			t.Errorf("entity registered twice: %s %s", entity.Entity.Type, entity.Entity.Name)
		}
		seen[key] = true
	}
	if len(graph.Entities) != 3 {
		t.Fatalf("expected 3 entities (Acme, John Doe, Berlin), got %d", len(graph.Entities))
	}

	// Every edge endpoint resolves to a registered entity.
	for _, rel := range graph.Relationships {
		if !seen[rel.Source.Key()] {
			t.Errorf("source %q has no entity entry", rel.Source.Name)
		}
		if !seen[rel.Target.Key()] {
			t.Errorf("target %q has no entity entry", rel.Target.Name)
		}
	}
}

func TestCreateDeduplicatedGraphEntityProvenance(t *testing.T) {
	d1 := testDocument("d1", "content one", "https://example.com/a")
	d2 := testDocument("d2", "content two", "https://example.com/b")
	d3 := testDocument("d3", "content three", "https://example.com/c")

	// John Doe is first discovered through the EMPLOYEE group (d1, d2); the
	// later FOUNDER relationship (d3) does not extend his document list.
	input := []common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "", 4, d1),
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "", 4, d2),
		testCandidate(common.EntityTypeCompany, "Globex", common.RelationshipFounder, common.EntityTypePerson, "John Doe", "", 4, d3),
	}

	graph := CreateDeduplicatedGraph(input)

	var john *common.AggregatedCitedEntity
	for i := range graph.Entities {
		if graph.Entities[i].Entity.Name == "John Doe" {
			john = &graph.Entities[i]
		}
	}
	if john == nil {
		t.Fatal("John Doe not registered")
	}
	if len(john.Documents) != 2 {
		t.Fatalf("expected first-registration group documents (2), got %d", len(john.Documents))
	}
	if john.Documents[0].ID != "d1" || john.Documents[1].ID != "d2" {
		t.Errorf("unexpected provenance documents: %s, %s", john.Documents[0].ID, john.Documents[1].ID)
	}
}

func TestCreateDeduplicatedGraphIdempotence(t *testing.T) {
	d1 := testDocument("d1", "content one", "https://example.com/a")
	d2 := testDocument("d2", "content two", "https://example.com/b")

	input := []common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "r1", 4, d1),
		testCandidate(common.EntityTypeCompany, "acme", common.RelationshipEmployee, common.EntityTypePerson, "john doe", "r2", 3, d2),
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipLocatedIn, common.EntityTypeLocation, "Berlin", "r3", 5, d1),
	}

	first := CreateDeduplicatedGraph(input)
	second := CreateDeduplicatedGraph(first.CitedForm())

	if len(second.Relationships) != len(first.Relationships) {
		t.Fatalf("re-running dedup merged further: %d -> %d relationships", len(first.Relationships), len(second.Relationships))
	}
	if len(second.Entities) != len(first.Entities) {
		t.Fatalf("re-running dedup changed entities: %d -> %d", len(first.Entities), len(second.Entities))
	}
	for i := range first.Relationships {
		a, b := first.Relationships[i], second.Relationships[i]
		if a.Source != b.Source || a.Target != b.Target || a.Type != b.Type {
			t.Errorf("relationship %d changed identity: %+v vs %+v", i, a, b)
		}
		if a.Reasoning != b.Reasoning || a.Confidence != b.Confidence {
			t.Errorf("relationship %d changed representative fields", i)
		}
		if len(a.Documents) != len(b.Documents) {
			t.Errorf("relationship %d changed document count: %d vs %d", i, len(a.Documents), len(b.Documents))
		}
	}
}

func TestCreateDeduplicatedGraphEmptyInput(t *testing.T) {
	graph := CreateDeduplicatedGraph(nil)
	if len(graph.Relationships) != 0 || len(graph.Entities) != 0 {
		t.Errorf("expected empty graph, got %d relationships, %d entities", len(graph.Relationships), len(graph.Entities))
	}
}

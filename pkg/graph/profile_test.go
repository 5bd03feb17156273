package graph

import (
	"strings"
	"testing"

	"github.com/csmizzle/conductor/pkg/common"
)

func testProfileGraph() common.AggregatedCitedGraph {
	d1 := testDocument("d1", "John Doe works at Acme.", "https://example.com/a")
	d2 := testDocument("d2", "Acme is based in Berlin.", "https://example.com/b")

	return CreateDeduplicatedGraph([]common.CitedRelationship{
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipEmployee, common.EntityTypePerson, "John Doe", "", 4, d1),
		testCandidate(common.EntityTypeCompany, "Acme", common.RelationshipLocatedIn, common.EntityTypeLocation, "Berlin", "", 5, d2),
	})
}

func TestProfileEntityLookupIsNormalized(t *testing.T) {
	profile := NewProfile(testProfileGraph())

	entity, ok := profile.Entity(common.EntityTypeCompany, "  acme ")
	if !ok {
		t.Fatal("normalized lookup failed")
	}
	if entity.Entity.Name != "Acme" {
		t.Errorf("stored casing = %q, want %q", entity.Entity.Name, "Acme")
	}

	if _, ok := profile.Entity(common.EntityTypePerson, "Acme"); ok {
		t.Error("lookup must be keyed by entity type as well as name")
	}
}

func TestProfileRelationships(t *testing.T) {
	profile := NewProfile(testProfileGraph())

	rels := profile.Relationships(common.EntityTypeCompany, "acme")
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships for Acme, got %d", len(rels))
	}

	rels = profile.Relationships(common.EntityTypePerson, "John Doe")
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship for John Doe, got %d", len(rels))
	}
	if rels[0].Type != common.RelationshipEmployee {
		t.Errorf("unexpected relationship type: %s", rels[0].Type)
	}
}

func TestProfileFactsAndImageQueries(t *testing.T) {
	profile := NewProfile(testProfileGraph())

	facts := profile.Facts(common.EntityTypeCompany, "Acme")
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	for _, fact := range facts {
		if !strings.Contains(fact, "Acme") {
			t.Errorf("fact does not mention the entity: %q", fact)
		}
	}

	queries := profile.ImageSearchQueries()
	if len(queries) != 2 {
		t.Fatalf("expected one image query per relationship, got %d", len(queries))
	}
	if !strings.Contains(queries[0], `"Acme"`) || !strings.Contains(queries[0], `"John Doe"`) {
		t.Errorf("image query missing entity names: %q", queries[0])
	}
	if !strings.Contains(queries[1], "located in") {
		t.Errorf("relationship type not humanized: %q", queries[1])
	}
}

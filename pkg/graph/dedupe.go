package graph

import (
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
)

// CreateDeduplicatedGraph collapses a flat list of cited candidate
// relationships into an aggregated graph. Candidates whose normalized
// triples match (entity types, case-folded trimmed names, relationship
// type) describe the same real-world fact and merge into one edge.
//
// The first candidate of each group, in input order, is the representative:
// its reasoning, scores, and query are carried verbatim, never averaged.
// The merged edge's document list holds one entry per group member, in
// group order. Input order is whatever the caller submits; the pipeline's
// parallel collection is non-deterministic, so callers wanting stable
// representatives must stabilize the order themselves.
//
// Entities are registered run-scoped by normalized identity, keeping the
// first-seen casing. An entity's documents are those of the group through
// which it was first registered, not the union across every relationship it
// participates in.
func CreateDeduplicatedGraph(relationships []common.CitedRelationship) common.AggregatedCitedGraph {
	groups := make(map[string][]int, len(relationships))
	order := make([]string, 0, len(relationships))
	for i, rel := range relationships {
		key := rel.Relationship.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	entities := make([]common.AggregatedCitedEntity, 0)
	entityIndex := make(map[string]int)
	registerEntity := func(entity common.Entity, documents []common.DocumentWithCredibility) {
		key := entity.Key()
		if _, ok := entityIndex[key]; ok {
			return
		}
		entityIndex[key] = len(entities)
		entities = append(entities, common.AggregatedCitedEntity{
			Entity:    entity,
			Documents: documents,
		})
	}

	aggregated := make([]common.AggregatedCitedRelationship, 0, len(order))
	for _, key := range order {
		members := groups[key]
		representative := relationships[members[0]]

		documents := make([]common.DocumentWithCredibility, 0, len(members))
		for _, i := range members {
			documents = append(documents, relationships[i].Document)
		}

		aggregated = append(aggregated, common.AggregatedCitedRelationship{
			Source:             representative.Relationship.Source,
			Target:             representative.Relationship.Target,
			Type:               representative.Relationship.Type,
			Reasoning:          representative.Reasoning,
			Faithfulness:       representative.Relationship.Faithfulness,
			FactualCorrectness: representative.Relationship.FactualCorrectness,
			Confidence:         representative.Relationship.Confidence,
			Query:              representative.Query,
			Documents:          documents,
		})

		for _, i := range members {
			registerEntity(relationships[i].Relationship.Source, documents)
			registerEntity(relationships[i].Relationship.Target, documents)
		}
	}

	graph := common.AggregatedCitedGraph{
		Entities:      entities,
		Relationships: aggregated,
	}

	// Every edge endpoint must resolve to exactly one registered entity.
	for _, rel := range graph.Relationships {
		for _, entity := range []common.Entity{rel.Source, rel.Target} {
			if _, ok := entityIndex[entity.Key()]; !ok {
				logger.Error("[Graph] Unregistered relationship endpoint", "name", entity.Name, "type", entity.Type)
				registerEntity(entity, nil)
				graph.Entities = entities
			}
		}
	}

	logger.Info("[Graph] Deduplication completed", "candidates", len(relationships), "relationships", len(graph.Relationships), "entities", len(graph.Entities))

	return graph
}

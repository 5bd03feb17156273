package graph

import (
	"fmt"
	"strings"

	"github.com/csmizzle/conductor/pkg/common"
)

// Profile provides keyed, read-only access to a deduplicated graph for
// report building: entity lookups by name, the relationships an entity
// participates in, and image-search queries derived from the edges.
type Profile struct {
	graph         common.AggregatedCitedGraph
	entities      map[string]common.AggregatedCitedEntity
	relationships map[string][]common.AggregatedCitedRelationship
}

// NewProfile indexes the given graph. The graph is not copied; callers must
// not mutate it afterwards.
func NewProfile(graph common.AggregatedCitedGraph) *Profile {
	p := &Profile{
		graph:         graph,
		entities:      make(map[string]common.AggregatedCitedEntity, len(graph.Entities)),
		relationships: make(map[string][]common.AggregatedCitedRelationship),
	}

	for _, entity := range graph.Entities {
		p.entities[entity.Entity.Key()] = entity
	}
	for _, rel := range graph.Relationships {
		p.relationships[rel.Source.Key()] = append(p.relationships[rel.Source.Key()], rel)
		if rel.Target.Key() != rel.Source.Key() {
			p.relationships[rel.Target.Key()] = append(p.relationships[rel.Target.Key()], rel)
		}
	}

	return p
}

// Entity looks up a node by type and name, matching on normalized identity.
func (p *Profile) Entity(entityType common.EntityType, name string) (common.AggregatedCitedEntity, bool) {
	e, ok := p.entities[common.Entity{Type: entityType, Name: name}.Key()]
	return e, ok
}

// Relationships returns every edge the named entity participates in, as
// source or target.
func (p *Profile) Relationships(entityType common.EntityType, name string) []common.AggregatedCitedRelationship {
	return p.relationships[common.Entity{Type: entityType, Name: name}.Key()]
}

// Facts renders the relationships of the named entity as plain sentences,
// one per edge, for inclusion in report sections.
func (p *Profile) Facts(entityType common.EntityType, name string) []string {
	rels := p.Relationships(entityType, name)
	facts := make([]string, 0, len(rels))
	for _, rel := range rels {
		facts = append(facts, fmt.Sprintf(
			"%s has a %s relationship with %s (%d supporting documents)",
			rel.Source.Name,
			strings.ToLower(strings.ReplaceAll(string(rel.Type), "_", " ")),
			rel.Target.Name,
			len(rel.Documents),
		))
	}
	return facts
}

// ImageSearchQueries derives one image-search query per relationship in the
// graph, used to illustrate report sections.
func (p *Profile) ImageSearchQueries() []string {
	queries := make([]string, 0, len(p.graph.Relationships))
	for _, rel := range p.graph.Relationships {
		queries = append(queries, fmt.Sprintf(
			"\"%s\" \"%s\" %s",
			rel.Source.Name,
			rel.Target.Name,
			strings.ToLower(strings.ReplaceAll(string(rel.Type), "_", " ")),
		))
	}
	return queries
}

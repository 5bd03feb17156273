package common

import "strings"

// EntityType classifies the nodes of a research graph. The set is closed but
// intentionally easy to extend: extraction prompts enumerate these values and
// the extractor rejects anything outside of them.
type EntityType string

const (
	EntityTypePerson   EntityType = "PERSON"
	EntityTypeCompany  EntityType = "COMPANY"
	EntityTypeLocation EntityType = "LOCATION"
	EntityTypeProduct  EntityType = "PRODUCT"
	EntityTypeEvent    EntityType = "EVENT"
	EntityTypeConcept  EntityType = "CONCEPT"
)

// RelationshipType classifies the edges of a research graph.
type RelationshipType string

const (
	RelationshipEmployee      RelationshipType = "EMPLOYEE"
	RelationshipFounder       RelationshipType = "FOUNDER"
	RelationshipSubsidiary    RelationshipType = "SUBSIDIARY"
	RelationshipParentCompany RelationshipType = "PARENT_COMPANY"
	RelationshipAcquired      RelationshipType = "ACQUIRED"
	RelationshipLocatedIn     RelationshipType = "LOCATED_IN"
	RelationshipPartner       RelationshipType = "PARTNER"
	RelationshipInvestor      RelationshipType = "INVESTOR"
	RelationshipCustomer      RelationshipType = "CUSTOMER"
	RelationshipCompetitor    RelationshipType = "COMPETITOR"
	RelationshipProduces      RelationshipType = "PRODUCES"
)

// Credibility grades how trustworthy a cited source is.
type Credibility string

const (
	CredibilityLow    Credibility = "LOW"
	CredibilityMedium Credibility = "MEDIUM"
	CredibilityHigh   Credibility = "HIGH"
)

// TripleType defines an extraction pattern: find relationships where a
// Source-typed entity has a Relationship connection to a Target-typed entity.
// Triple types are immutable and constructed by the caller before a run.
type TripleType struct {
	Source       EntityType       `json:"source"`
	Relationship RelationshipType `json:"relationship"`
	Target       EntityType       `json:"target"`
}

// Entity is a node endpoint of an extracted relationship. Name keeps the
// casing the extractor produced; identity comparisons fold case and trim
// whitespace via Key.
type Entity struct {
	Type EntityType `json:"entity_type"`
	Name string     `json:"name"`
}

// Key returns the normalized identity of the entity. Two entities are the
// same when their keys are equal.
func (e Entity) Key() string {
	return string(e.Type) + "|" + strings.ToLower(strings.TrimSpace(e.Name))
}

// Relationship is a single extracted candidate edge, before citation
// assembly and deduplication. The three scores are assigned independently by
// the extraction step and range over [1,5].
type Relationship struct {
	Source             Entity           `json:"source"`
	Target             Entity           `json:"target"`
	Type               RelationshipType `json:"relationship_type"`
	Faithfulness       int              `json:"faithfulness"`
	FactualCorrectness int              `json:"factual_correctness"`
	Confidence         int              `json:"confidence"`
}

// Key returns the normalized triple identity used for deduplication:
// relationships with equal keys describe the same real-world fact.
func (r Relationship) Key() string {
	return r.Source.Key() + "|" + string(r.Type) + "|" + r.Target.Key()
}

// DocumentWithCredibility is a retrieved text passage together with its
// citation and the credibility assessment of its source.
type DocumentWithCredibility struct {
	ID                   string      `json:"id"`
	Content              string      `json:"content"`
	Citation             string      `json:"citation"`
	Credibility          Credibility `json:"credibility"`
	CredibilityReasoning string      `json:"credibility_reasoning"`
}

// Answer is the provenance bundle returned by evidence retrieval: a question,
// a synthesized answer, the cited documents it drew on, and answer-level
// quality scores. Documents is never nil on a successful retrieval; a
// no-match answer carries an empty slice.
type Answer struct {
	Question           string                    `json:"question"`
	Answer             string                    `json:"answer"`
	Documents          []DocumentWithCredibility `json:"documents"`
	Citations          []string                  `json:"citations"`
	Faithfulness       int                       `json:"faithfulness"`
	FactualCorrectness int                       `json:"factual_correctness"`
	Confidence         int                       `json:"confidence"`
}

// CitedRelationship is the fully assembled extraction output, one instance
// per (triple type, document, extracted relationship) combination. It carries
// the relationship itself, the reasoning produced for it, the single document
// it was extracted from, the retrieval query, and the whole answer bundle the
// query produced. The same real-world fact may appear many times here before
// deduplication.
type CitedRelationship struct {
	Relationship Relationship            `json:"relationship"`
	Reasoning    string                  `json:"relationship_reasoning"`
	Query        string                  `json:"relationships_query"`
	Document     DocumentWithCredibility `json:"document"`
	Answer       Answer                  `json:"answer"`
}

// AggregatedCitedEntity is a deduplicated graph node together with the
// documents attached at registration time.
type AggregatedCitedEntity struct {
	Entity    Entity                    `json:"entity"`
	Documents []DocumentWithCredibility `json:"documents"`
}

// AggregatedCitedRelationship is a deduplicated graph edge. Reasoning, the
// query, and the three scores come from exactly one representative candidate;
// Documents is the union of every collapsed candidate's source document.
type AggregatedCitedRelationship struct {
	Source             Entity                    `json:"source"`
	Target             Entity                    `json:"target"`
	Type               RelationshipType          `json:"relationship_type"`
	Reasoning          string                    `json:"relationship_reasoning"`
	Faithfulness       int                       `json:"relationship_faithfulness"`
	FactualCorrectness int                       `json:"relationship_factual_correctness"`
	Confidence         int                       `json:"relationship_confidence"`
	Query              string                    `json:"relationships_query"`
	Documents          []DocumentWithCredibility `json:"documents"`
}

// AggregatedCitedGraph is the deduplicated output of a research run. Every
// entity referenced by a relationship appears exactly once in Entities.
// Graphs are immutable once built and consumed read-only downstream.
type AggregatedCitedGraph struct {
	Entities      []AggregatedCitedEntity       `json:"entities"`
	Relationships []AggregatedCitedRelationship `json:"relationships"`
}

// CitedForm converts the graph back into candidate form, one candidate per
// (relationship, document) pair. Running deduplication over the result of
// CitedForm yields a graph isomorphic to the receiver.
func (g AggregatedCitedGraph) CitedForm() []CitedRelationship {
	out := make([]CitedRelationship, 0, len(g.Relationships))
	for _, rel := range g.Relationships {
		for _, doc := range rel.Documents {
			out = append(out, CitedRelationship{
				Relationship: Relationship{
					Source:             rel.Source,
					Target:             rel.Target,
					Type:               rel.Type,
					Faithfulness:       rel.Faithfulness,
					FactualCorrectness: rel.FactualCorrectness,
					Confidence:         rel.Confidence,
				},
				Reasoning: rel.Reasoning,
				Query:     rel.Query,
				Document:  doc,
			})
		}
	}
	return out
}

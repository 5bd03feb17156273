package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/csmizzle/conductor/internal/util"
	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
	"github.com/csmizzle/conductor/pkg/retrieval"

	"golang.org/x/sync/errgroup"
)

// ErrNoTripleTypes is returned by ExtractParallel when the caller supplies
// no extraction patterns at all. It is the only condition that surfaces as
// an error; every failure below the whole-run level is absorbed and logged.
var ErrNoTripleTypes = errors.New("no triple types to extract")

// queryRetrieval is one phase-1 result slot. Slots are keyed by triple-type
// index so two patterns whose generated queries collide on the same string
// each keep their own retrieval answer.
type queryRetrieval struct {
	tripleType common.TripleType
	query      string
	answer     *common.Answer
}

type extractionUnit struct {
	slot     *queryRetrieval
	document common.DocumentWithCredibility
	relation common.Relationship
}

// ExtractParallel runs the full extraction pipeline for one research
// specification: it generates one retrieval query per triple type, retrieves
// evidence for all queries concurrently, extracts candidate relationships
// from every (query, document) pair concurrently, then produces reasoning
// for every candidate concurrently and assembles the cited records.
//
// The three phases are strictly barriered; a phase's work list is only known
// once the previous phase has fully completed. Result order within a phase
// is non-deterministic.
//
// A failed retrieval drops that triple type's whole contribution. A failed
// extraction drops that document. A failed reasoning call keeps the
// relationship with empty reasoning. None of these abort the batch.
func (g *GraphClient) ExtractParallel(
	ctx context.Context,
	specification string,
	tripleTypes []common.TripleType,
	aiClient ai.ResearchAIClient,
	retriever retrieval.Retriever,
) ([]common.CitedRelationship, error) {
	if len(tripleTypes) == 0 {
		return nil, ErrNoTripleTypes
	}

	logger.Info("[Graph] Starting extraction", "triple_types", len(tripleTypes))

	// Phase 1: query generation + retrieval, one slot per triple type.
	slots := make([]*queryRetrieval, len(tripleTypes))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelQueries)
	for i, tripleType := range tripleTypes {
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				query := generateQuery(gCtx, aiClient, specification, tripleType)

				answer, err := util.RetryWithContext(gCtx, g.maxRetries, func(ctx context.Context) (*common.Answer, error) {
					return retriever.Retrieve(ctx, query)
				})
				if err != nil {
					logger.Warn("[Graph] Retrieval failed, dropping triple type", "relationship", tripleType.Relationship, "query", query, "error", err)
					return nil
				}

				slots[i] = &queryRetrieval{
					tripleType: tripleType,
					query:      query,
					answer:     answer,
				}
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: extraction over every (query, document) pair.
	extracted := make([]extractionUnit, 0)
	extractMu := sync.Mutex{}

	eg, gCtx = errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)
	for _, slot := range slots {
		if slot == nil || slot.answer == nil {
			continue
		}
		for _, document := range slot.answer.Documents {
			eg.Go(func() error {
				select {
				case <-gCtx.Done():
					return nil
				default:
					relations, err := util.RetryWithContext(gCtx, g.maxRetries, func(ctx context.Context) ([]common.Relationship, error) {
						return extractFromDocument(ctx, aiClient, slot.query, document.Content, slot.tripleType)
					})
					if err != nil {
						logger.Warn("[Graph] Extraction failed, dropping document", "citation", document.Citation, "query", slot.query, "error", err)
						return nil
					}

					extractMu.Lock()
					for _, relation := range relations {
						extracted = append(extracted, extractionUnit{
							slot:     slot,
							document: document,
							relation: relation,
						})
					}
					extractMu.Unlock()
					return nil
				}
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Phase 3: reasoning + assembly for every extracted candidate.
	cited := make([]common.CitedRelationship, 0, len(extracted))
	citedMu := sync.Mutex{}

	eg, gCtx = errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)
	for _, unit := range extracted {
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				reasoning := reasonRelationship(gCtx, aiClient, unit.slot.query, unit.document.Content, unit.relation)

				citedMu.Lock()
				cited = append(cited, common.CitedRelationship{
					Relationship: unit.relation,
					Reasoning:    reasoning,
					Query:        unit.slot.query,
					Document:     unit.document,
					Answer:       *unit.slot.answer,
				})
				citedMu.Unlock()
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("[Graph] Extraction completed", "candidates", len(cited))

	return cited, nil
}

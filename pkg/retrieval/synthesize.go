package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"

	_ "github.com/invopop/jsonschema"
)

type answerResponse struct {
	Answer             string `json:"answer" jsonschema_description:"Answer to the question, grounded in the numbered passages"`
	Faithfulness       int    `json:"faithfulness" jsonschema_description:"How strictly the answer sticks to the passages, 1-5"`
	FactualCorrectness int    `json:"factual_correctness" jsonschema_description:"How likely the answer is factually correct, 1-5"`
	Confidence         int    `json:"confidence" jsonschema_description:"Overall confidence in the answer, 1-5"`
}

type credibilityAssessment struct {
	Credibility string `json:"credibility" jsonschema_description:"One of LOW, MEDIUM, HIGH"`
	Reasoning   string `json:"reasoning" jsonschema_description:"One-sentence reasoning for the grade"`
}

type credibilityResponse struct {
	Assessments []credibilityAssessment `json:"assessments" jsonschema_description:"One assessment per input source, in input order"`
}

// ScoreCredibility grades the source of every document in place. Grading is
// enrichment: on failure the documents keep their zero-value credibility and
// retrieval proceeds.
func ScoreCredibility(
	ctx context.Context,
	client ai.ResearchAIClient,
	documents []common.DocumentWithCredibility,
) {
	if len(documents) == 0 {
		return
	}

	var sources strings.Builder
	for i, doc := range documents {
		excerpt := doc.Content
		if len(excerpt) > 280 {
			excerpt = excerpt[:280]
		}
		fmt.Fprintf(&sources, "%d. %s — %s\n", i+1, doc.Citation, excerpt)
	}

	var res credibilityResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"score_source_credibility",
		"Grade the credibility of each cited source.",
		fmt.Sprintf(ai.CredibilityPrompt, sources.String()),
		&res,
	)
	if err != nil {
		logger.Warn("[Retrieval] Credibility scoring failed", "sources", len(documents), "error", err)
		return
	}

	for i := range documents {
		if i >= len(res.Assessments) {
			break
		}
		switch strings.ToUpper(strings.TrimSpace(res.Assessments[i].Credibility)) {
		case string(common.CredibilityHigh):
			documents[i].Credibility = common.CredibilityHigh
		case string(common.CredibilityMedium):
			documents[i].Credibility = common.CredibilityMedium
		default:
			documents[i].Credibility = common.CredibilityLow
		}
		documents[i].CredibilityReasoning = res.Assessments[i].Reasoning
	}
}

// SynthesizeAnswer builds the full answer bundle for a question from already
// retrieved documents: credibility scoring, answer synthesis, and answer-level
// quality scores. The returned Answer always carries a non-nil Documents
// slice.
func SynthesizeAnswer(
	ctx context.Context,
	client ai.ResearchAIClient,
	question string,
	documents []common.DocumentWithCredibility,
) (*common.Answer, error) {
	answer := &common.Answer{
		Question:  question,
		Documents: make([]common.DocumentWithCredibility, 0, len(documents)),
		Citations: make([]string, 0, len(documents)),
	}
	if len(documents) == 0 {
		return answer, nil
	}

	ScoreCredibility(ctx, client, documents)

	var passages strings.Builder
	for i, doc := range documents {
		fmt.Fprintf(&passages, "%d. %s\n\n", i+1, doc.Content)
	}

	var res answerResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"synthesize_answer",
		"Answer a research question from retrieved passages.",
		fmt.Sprintf(ai.AnswerPrompt, question, passages.String()),
		&res,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	answer.Answer = res.Answer
	answer.Faithfulness = res.Faithfulness
	answer.FactualCorrectness = res.FactualCorrectness
	answer.Confidence = res.Confidence
	answer.Documents = documents
	for _, doc := range documents {
		answer.Citations = append(answer.Citations, doc.Citation)
	}

	return answer, nil
}

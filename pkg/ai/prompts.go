package ai

// QueryPrompt turns a research specification and a triple-type pattern into
// a single retrieval question.
// Slots: specification, source type, relationship type, target type.
const QueryPrompt = `
# Task Context
You are a research assistant that writes search questions for an evidence
retrieval system.

# Background Data
Research specification: %s

# Detailed Task Description & Rules
- Write ONE natural-language question that would surface documents describing
  relationships where a %s has a %s connection to a %s, in the context of the
  specification above.
- The question must be self-contained: include the concrete names from the
  specification, never pronouns or placeholders.
- Do not ask multiple questions. Do not add commentary.

# Output Formatting
Return only the question text, nothing else.
`

// ExtractPrompt instructs the model to extract typed relationships from a
// single document, constrained to one triple-type pattern.
// Slots: query, source type, relationship type, target type, source type,
// target type.
const ExtractPrompt = `
# Task Context
You are a careful information-extraction assistant building a research
knowledge graph.

# Background Data
The document below was retrieved for the question: "%s"

# Detailed Task Description & Rules
- Extract every relationship stated or strongly implied by the document where
  a %s entity has a %s connection to a %s entity.
- Only report relationships matching that exact pattern. Ignore everything
  else, however interesting.
- Entity names must be copied from the document; never invent, complete, or
  translate a name. If a name is not given, do not report the relationship.
- The source entity must be of type %s and the target entity of type %s.
- Score each relationship independently on three 1-5 scales:
  * faithfulness: how directly the document states the relationship
  * factual_correctness: how likely the stated relationship is correct
  * confidence: your overall confidence in the extraction
- Return an empty list when the document supports no matching relationship.

# Output Formatting
Return a JSON object matching the provided schema.
`

// ReasonPrompt asks for a short grounded justification of one extracted
// relationship.
// Slots: query, source name, relationship type, target name.
const ReasonPrompt = `
# Task Context
You are reviewing a relationship that was extracted from a document during
research on the question: "%s"

# Detailed Task Description & Rules
- The relationship under review: %s -[%s]-> %s
- Using only the document below, explain in 2-3 sentences why this
  relationship holds, or point out why it is suspect if the document does not
  actually support it.
- Quote or closely paraphrase the supporting passage where possible.
- Do not introduce outside knowledge.

# Background Data
Document:
%s

# Output Formatting
Return only the justification text.
`

// AnswerPrompt synthesizes a cited answer from retrieved passages.
// Slots: question, numbered passages.
const AnswerPrompt = `
# Task Context
You are a research assistant answering a question from retrieved evidence.

# Background Data
Question: %s

Passages:
%s

# Detailed Task Description & Rules
- Answer the question using only the passages above.
- Reference passages by their number where they support a statement.
- If the passages do not answer the question, say so plainly.
- Score the answer on three 1-5 scales: faithfulness (how strictly it sticks
  to the passages), factual_correctness, and confidence.

# Output Formatting
Return a JSON object matching the provided schema.
`

// CredibilityPrompt grades the credibility of retrieved sources.
// Slot: newline-separated "index. url — excerpt" lines.
const CredibilityPrompt = `
# Task Context
You are assessing the credibility of web sources cited in a research run.

# Background Data
Sources:
%s

# Detailed Task Description & Rules
- Grade each source LOW, MEDIUM, or HIGH.
- HIGH: primary sources, regulators, filings, established news organizations.
- MEDIUM: industry press, company blogs, well-maintained references.
- LOW: forums, content farms, anonymous or promotional pages.
- Give a one-sentence reasoning per source.
- Return exactly one assessment per input source, in input order.

# Output Formatting
Return a JSON object matching the provided schema.
`

package retrieval

import (
	"context"

	"github.com/csmizzle/conductor/pkg/common"
)

// Retriever answers a natural-language question with ranked, cited evidence.
// Implementations must return a non-nil Answer with a non-nil (possibly
// empty) Documents slice on success; "no match" is an empty document list,
// never an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*common.Answer, error)
}

package graph

// GraphClient is the main client for running relationship-graph extraction.
// It controls retrieval fan-out, concurrent AI requests, and retry behavior.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	parallelQueries    int
	parallelAiRequests int
	maxRetries         int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// ParallelQueries controls how many triple-type queries are retrieved in
// parallel. ParallelAiRequests controls how many extraction and reasoning
// calls can be in flight concurrently. MaxRetries bounds retries on the
// boundary calls to the retriever and the AI client.
type NewGraphClientParams struct {
	ParallelQueries    int
	ParallelAiRequests int
	MaxRetries         int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	params := graph.NewGraphClientParams{
//		ParallelQueries:    4,
//		ParallelAiRequests: 25,
//	}
//	client, err := graph.NewGraphClient(params)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Returns a pointer to GraphClient and an error if initialization fails.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	parallelQueries := params.ParallelQueries
	if parallelQueries <= 0 {
		parallelQueries = 4
	}
	parallelAiRequests := params.ParallelAiRequests
	if parallelAiRequests <= 0 {
		parallelAiRequests = 16
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	g := &GraphClient{
		parallelQueries:    parallelQueries,
		parallelAiRequests: parallelAiRequests,
		maxRetries:         maxRetries,
	}

	return g, nil
}

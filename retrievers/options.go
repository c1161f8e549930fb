package retrievers

const (
	DefaultOutputK        = 10
	DefaultRerankPoolSize = 50
	DefaultRerankFast     = true
)

// QueryOptions controls a single query.
type QueryOptions struct {
	OutputK        int
	RerankPoolSize int
	RerankFast     bool
}

// QueryOption defines a function type for configuring a query.
type QueryOption func(*QueryOptions)

func defaultQueryOptions() QueryOptions {
	return QueryOptions{
		OutputK:        DefaultOutputK,
		RerankPoolSize: DefaultRerankPoolSize,
		RerankFast:     DefaultRerankFast,
	}
}

// WithOutputK bounds the number of returned documents.
func WithOutputK(k int) QueryOption {
	return func(o *QueryOptions) {
		o.OutputK = k
	}
}

// WithRerankPoolSize sets how many candidates are reranked. It should not
// be smaller than the output size; this is not checked locally.
func WithRerankPoolSize(size int) QueryOption {
	return func(o *QueryOptions) {
		o.RerankPoolSize = size
	}
}

// WithRerankFast selects the faster rerank model.
func WithRerankFast(fast bool) QueryOption {
	return func(o *QueryOptions) {
		o.RerankFast = fast
	}
}

// ParseQueryOptions applies opts on top of the defaults.
func ParseQueryOptions(opts ...QueryOption) QueryOptions {
	options := defaultQueryOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

package retrievers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/onecontext/knowledgebase"
	"github.com/sevigo/onecontext/schema"
)

// queryRequest is the body of a query call. Rerank parameters are sent
// only when reranking is enabled.
type queryRequest struct {
	Query              string   `json:"query"`
	OutputK            int      `json:"output_k"`
	KnowledgeBaseNames []string `json:"knowledge_base_names"`
	Rerank             bool     `json:"rerank"`
	RerankPoolSize     *int     `json:"rerank_pool_size,omitempty"`
	RerankFast         *bool    `json:"rerank_fast,omitempty"`
}

type queryResponse struct {
	Documents []schema.Document `json:"documents"`
}

// Retriever queries a fixed set of knowledge bases. It does not own them.
type Retriever struct {
	client         *knowledgebase.Client
	knowledgeBases []*knowledgebase.KnowledgeBase
	defaults       []QueryOption
	logger         *slog.Logger
}

var _ schema.Retriever = (*Retriever)(nil)

// New creates a retriever over kbs. defaults apply to GetRelevantDocuments.
func New(client *knowledgebase.Client, kbs []*knowledgebase.KnowledgeBase, defaults ...QueryOption) *Retriever {
	return &Retriever{
		client:         client,
		knowledgeBases: kbs,
		defaults:       defaults,
		logger:         client.Logger().With("component", "retriever"),
	}
}

// KnowledgeBaseNames returns the names the retriever scopes its queries to.
func (r *Retriever) KnowledgeBaseNames() []string {
	names := make([]string, len(r.knowledgeBases))
	for i, kb := range r.knowledgeBases {
		names[i] = kb.Name()
	}
	return names
}

// Query runs a reranked similarity search. Documents come back in the
// order chosen by the service, normally descending score.
func (r *Retriever) Query(ctx context.Context, query string, opts ...QueryOption) ([]schema.Document, error) {
	options := ParseQueryOptions(opts...)
	req := queryRequest{
		Query:              query,
		OutputK:            options.OutputK,
		KnowledgeBaseNames: r.KnowledgeBaseNames(),
		Rerank:             true,
		RerankPoolSize:     &options.RerankPoolSize,
		RerankFast:         &options.RerankFast,
	}
	return r.postQuery(ctx, req)
}

// QueryNoRerank runs a similarity search without reranking. Only
// WithOutputK is honoured.
func (r *Retriever) QueryNoRerank(ctx context.Context, query string, opts ...QueryOption) ([]schema.Document, error) {
	options := ParseQueryOptions(opts...)
	req := queryRequest{
		Query:              query,
		OutputK:            options.OutputK,
		KnowledgeBaseNames: r.KnowledgeBaseNames(),
		Rerank:             false,
	}
	return r.postQuery(ctx, req)
}

// GetRelevantDocuments runs Query with the retriever's default options.
func (r *Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.Query(ctx, query, r.defaults...)
}

func (r *Retriever) postQuery(ctx context.Context, req queryRequest) ([]schema.Document, error) {
	var resp queryResponse
	if err := r.client.Transport().Post(ctx, r.client.URLs().Query(), req, &resp); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	r.logger.Debug("query completed",
		"knowledge_bases", req.KnowledgeBaseNames,
		"rerank", req.Rerank,
		"output_k", req.OutputK,
		"documents", len(resp.Documents),
	)

	if resp.Documents == nil {
		return []schema.Document{}, nil
	}
	return resp.Documents, nil
}

package retrievers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/onecontext/api"
	"github.com/sevigo/onecontext/api/fake"
	"github.com/sevigo/onecontext/knowledgebase"
	"github.com/sevigo/onecontext/retrievers"
	"github.com/sevigo/onecontext/schema"
)

func newRetriever(t *testing.T, names ...string) (*retrievers.Retriever, *fake.Transport, api.URLs) {
	t.Helper()

	urls, err := api.NewURLs("http://onecontext.test")
	require.NoError(t, err)
	tr := fake.NewTransport()
	client := knowledgebase.New(tr, urls)

	kbs := make([]*knowledgebase.KnowledgeBase, 0, len(names))
	for _, name := range names {
		kbs = append(kbs, client.KnowledgeBase(name))
	}
	return retrievers.New(client, kbs), tr, urls
}

func lastPayload(t *testing.T, tr *fake.Transport) map[string]any {
	t.Helper()

	call, ok := tr.LastCall()
	require.True(t, ok)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(call.Body, &payload))
	return payload
}

var sampleDocuments = map[string]any{
	"documents": []map[string]any{
		{"id": "d1", "content": "Go has goroutines.", "file_name": "go.pdf", "file_id": "f1", "page": 3, "score": 0.92},
		{"id": "d2", "content": "Channels connect goroutines.", "file_name": "go.pdf", "file_id": "f1", "page": 4, "score": 0.81},
	},
}

func TestRetriever_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		r, tr, urls := newRetriever(t, "kb1", "kb2")
		tr.On(http.MethodPost, urls.Query(), fake.Response{Body: sampleDocuments})

		docs, err := r.Query(ctx, "concurrency in go")
		require.NoError(t, err)
		require.Len(t, docs, 2)

		assert.Equal(t, schema.Document{
			ID: "d1", Content: "Go has goroutines.", FileName: "go.pdf", FileID: "f1", Page: 3, Score: 0.92,
		}, docs[0])
		assert.Equal(t, "d2", docs[1].ID)

		payload := lastPayload(t, tr)
		assert.Equal(t, map[string]any{
			"query":                "concurrency in go",
			"output_k":             float64(10),
			"knowledge_base_names": []any{"kb1", "kb2"},
			"rerank":               true,
			"rerank_pool_size":     float64(50),
			"rerank_fast":          true,
		}, payload)
	})

	t.Run("Custom options", func(t *testing.T) {
		r, tr, urls := newRetriever(t, "kb1")
		tr.On(http.MethodPost, urls.Query(), fake.Response{Body: sampleDocuments})

		_, err := r.Query(ctx, "x",
			retrievers.WithOutputK(5),
			retrievers.WithRerankPoolSize(20),
			retrievers.WithRerankFast(false),
		)
		require.NoError(t, err)

		payload := lastPayload(t, tr)
		assert.InDelta(t, 5, payload["output_k"], 0)
		assert.InDelta(t, 20, payload["rerank_pool_size"], 0)
		assert.Equal(t, false, payload["rerank_fast"])
	})

	t.Run("Empty result", func(t *testing.T) {
		r, tr, urls := newRetriever(t, "kb1")
		tr.On(http.MethodPost, urls.Query(), fake.Response{Body: map[string]any{"documents": nil}})

		docs, err := r.Query(ctx, "nothing")
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("Service error", func(t *testing.T) {
		r, tr, urls := newRetriever(t, "kb1")
		serviceErr := &api.Error{Op: "post", Method: http.MethodPost, URL: urls.Query(), StatusCode: http.StatusBadGateway}
		tr.On(http.MethodPost, urls.Query(), fake.Response{Err: serviceErr})

		_, err := r.Query(ctx, "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, serviceErr))
		assert.Contains(t, err.Error(), "query failed")
	})
}

func TestRetriever_QueryNoRerank(t *testing.T) {
	r, tr, urls := newRetriever(t, "kb1")
	tr.On(http.MethodPost, urls.Query(), fake.Response{Body: sampleDocuments})

	docs, err := r.QueryNoRerank(context.Background(), "goroutines", retrievers.WithOutputK(2), retrievers.WithRerankPoolSize(99))
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, doc := range docs {
		assert.NotEmpty(t, doc.ID)
		assert.GreaterOrEqual(t, doc.Page, 0)
	}

	payload := lastPayload(t, tr)
	assert.Equal(t, map[string]any{
		"query":                "goroutines",
		"output_k":             float64(2),
		"knowledge_base_names": []any{"kb1"},
		"rerank":               false,
	}, payload)
}

func TestRetriever_GetRelevantDocuments(t *testing.T) {
	urls, err := api.NewURLs("http://onecontext.test")
	require.NoError(t, err)
	tr := fake.NewTransport()
	tr.On(http.MethodPost, urls.Query(), fake.Response{Body: sampleDocuments})

	client := knowledgebase.New(tr, urls)
	var retriever schema.Retriever = retrievers.New(client,
		[]*knowledgebase.KnowledgeBase{client.KnowledgeBase("kb1")},
		retrievers.WithOutputK(3),
	)

	docs, err := retriever.GetRelevantDocuments(context.Background(), "goroutines")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	payload := lastPayload(t, tr)
	assert.InDelta(t, 3, payload["output_k"], 0)
	assert.Equal(t, true, payload["rerank"])
}

func TestRetriever_NoKnowledgeBases(t *testing.T) {
	r, tr, urls := newRetriever(t)
	tr.On(http.MethodPost, urls.Query(), fake.Response{Body: map[string]any{"documents": []any{}}})

	assert.Empty(t, r.KnowledgeBaseNames())

	_, err := r.Query(context.Background(), "x")
	require.NoError(t, err)

	payload := lastPayload(t, tr)
	assert.Equal(t, []any{}, payload["knowledge_base_names"])
}

func TestParseQueryOptions(t *testing.T) {
	opts := retrievers.ParseQueryOptions()
	assert.Equal(t, retrievers.QueryOptions{OutputK: 10, RerankPoolSize: 50, RerankFast: true}, opts)

	opts = retrievers.ParseQueryOptions(retrievers.WithOutputK(1))
	assert.Equal(t, 1, opts.OutputK)
	assert.Equal(t, 50, opts.RerankPoolSize)
}

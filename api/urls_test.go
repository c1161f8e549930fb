package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/onecontext/api"
)

func TestURLs(t *testing.T) {
	urls, err := api.NewURLs("https://api.example.com/v1")
	require.NoError(t, err)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"knowledge base collection", urls.KnowledgeBase(""), "https://api.example.com/v1/knowledge_bases"},
		{"knowledge base item", urls.KnowledgeBase("kb1"), "https://api.example.com/v1/knowledge_bases/kb1"},
		{"knowledge base files", urls.KnowledgeBaseFiles("kb1"), "https://api.example.com/v1/knowledge_bases/kb1/files"},
		{"upload", urls.Upload(), "https://api.example.com/v1/upload"},
		{"file collection", urls.Files(""), "https://api.example.com/v1/files"},
		{"file item", urls.Files("f-42"), "https://api.example.com/v1/files/f-42"},
		{"query", urls.Query(), "https://api.example.com/v1/query"},
		{"name with space", urls.KnowledgeBase("my kb"), "https://api.example.com/v1/knowledge_bases/my%20kb"},
		{"name with slash", urls.KnowledgeBase("a/b"), "https://api.example.com/v1/knowledge_bases/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestURLs_TrailingSlashBase(t *testing.T) {
	urls, err := api.NewURLs("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/query", urls.Query())
	assert.Equal(t, "http://localhost:8000/", urls.Base())
}

func TestNewURLs_Invalid(t *testing.T) {
	for _, raw := range []string{"", "localhost", "://bad", "/relative/path"} {
		_, err := api.NewURLs(raw)
		assert.Error(t, err, "base %q should be rejected", raw)
	}
}

package fake

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/onecontext/api"
)

func TestTransport(t *testing.T) {
	ctx := context.Background()
	tr := NewTransport()
	tr.On(http.MethodGet, "http://svc/knowledge_bases/kb1", Response{Body: map[string]any{"id": "1"}})

	var out map[string]string
	require.NoError(t, tr.Get(ctx, "http://svc/knowledge_bases/kb1", &out))
	assert.Equal(t, "1", out["id"])
	assert.Equal(t, 1, tr.CallCount(http.MethodGet, "http://svc/knowledge_bases/kb1"))

	err := tr.Delete(ctx, "http://svc/unknown", nil)
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.Len(t, tr.Calls(), 2)
}

func TestTransport_Multipart(t *testing.T) {
	tr := NewTransport()
	tr.On(http.MethodPost, "http://svc/upload", Response{})

	form := api.MultipartForm{
		Fields: map[string]string{"knowledge_base_name": "kb1"},
		Files:  []api.FormFile{{FieldName: "files", FileName: "a.txt", Reader: strings.NewReader("abc")}},
	}
	require.NoError(t, tr.PostMultipart(context.Background(), "http://svc/upload", form, nil))

	call, ok := tr.LastCall()
	require.True(t, ok)
	assert.Equal(t, "kb1", call.Fields["knowledge_base_name"])
	assert.Equal(t, []byte("abc"), call.Files["files:a.txt"])
}

func TestTransport_Download(t *testing.T) {
	tr := NewTransport()
	tr.OnDownload("http://storage/f", []byte("payload"))

	var buf bytes.Buffer
	n, err := tr.Download(context.Background(), "http://storage/f", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "payload", buf.String())

	_, err = tr.Download(context.Background(), "http://storage/missing", &buf)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

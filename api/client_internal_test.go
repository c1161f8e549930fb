package api

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareRequestBody_ReleasesBufferOnce(t *testing.T) {
	c := &Client{}

	body, err := c.prepareRequestBody(map[string]string{"query": "hello"})
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"hello"}`, string(data))

	// The transport closes the body; a second close must not hand the
	// buffer to the pool again.
	require.NoError(t, body.Close())
	require.NoError(t, body.Close())

	first := jsonBufferPool.Get()
	second := jsonBufferPool.Get()
	defer jsonBufferPool.Put(first)
	defer jsonBufferPool.Put(second)

	assert.NotSame(t, first, second)
}

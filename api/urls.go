package api

import (
	"errors"
	"fmt"
	"net/url"
)

// URLs builds endpoint addresses relative to the service base URL.
type URLs struct {
	base *url.URL
}

// NewURLs parses rawBase and returns a builder rooted at it.
func NewURLs(rawBase string) (URLs, error) {
	base, err := url.Parse(rawBase)
	if err != nil {
		return URLs{}, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return URLs{}, errors.New("base URL must include scheme and host")
	}
	return URLs{base: base}, nil
}

// Base returns the base URL as a string.
func (u URLs) Base() string {
	if u.base == nil {
		return ""
	}
	return u.base.String()
}

// KnowledgeBase returns the knowledge base collection endpoint when name is
// empty, and the endpoint of the named knowledge base otherwise.
func (u URLs) KnowledgeBase(name string) string {
	if name == "" {
		return u.join("knowledge_bases")
	}
	return u.join("knowledge_bases", name)
}

// KnowledgeBaseFiles returns the endpoint listing the files of a knowledge base.
func (u URLs) KnowledgeBaseFiles(name string) string {
	return u.join("knowledge_bases", name, "files")
}

func (u URLs) Upload() string {
	return u.join("upload")
}

// Files returns the file collection endpoint when fileID is empty, and the
// endpoint of a single file otherwise.
func (u URLs) Files(fileID string) string {
	if fileID == "" {
		return u.join("files")
	}
	return u.join("files", fileID)
}

func (u URLs) Query() string {
	return u.join("query")
}

func (u URLs) join(segments ...string) string {
	if u.base == nil {
		return ""
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	// JoinPath treats its elements as already escaped.
	return u.base.JoinPath(escaped...).String()
}

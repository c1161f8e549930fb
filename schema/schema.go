package schema

import (
	"context"
	"fmt"
)

// SyncStatusSynced is the sync status reported once a knowledge base is fully indexed.
const SyncStatusSynced = "SYNCED"

// Document is a single passage returned by a query.
type Document struct {
	ID       string  `json:"id" yaml:"id"`
	Content  string  `json:"content" yaml:"content"`
	FileName string  `json:"file_name" yaml:"file_name"`
	FileID   string  `json:"file_id" yaml:"file_id"`
	Page     int     `json:"page" yaml:"page"`
	Score    float64 `json:"score" yaml:"score"`
}

func (d Document) String() string {
	return d.Content
}

// Source formats the origin of the passage as "file_name (p. N)".
func (d Document) Source() string {
	return fmt.Sprintf("%s (p. %d)", d.FileName, d.Page)
}

type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]Document, error)
}

// KnowledgeBaseInfo is the wire representation of a knowledge base.
type KnowledgeBaseInfo struct {
	Name       string `json:"name" yaml:"name"`
	ID         string `json:"id" yaml:"id"`
	SyncStatus string `json:"sync_status" yaml:"sync_status"`
}

// FileMetadata is the untyped metadata the service keeps for an uploaded file.
type FileMetadata map[string]any

// Name returns the "name" entry, or "" when it is absent or not a string.
func (m FileMetadata) Name() string {
	return m.stringValue("name")
}

// DownloadURL returns the "download_url" entry, or "" when it is absent or not a string.
func (m FileMetadata) DownloadURL() string {
	return m.stringValue("download_url")
}

// ID returns the "id" entry, or "" when it is absent or not a string.
func (m FileMetadata) ID() string {
	return m.stringValue("id")
}

func (m FileMetadata) stringValue(key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/sevigo/onecontext/api"
	"github.com/sevigo/onecontext/schema"
)

// ErrInvalidMetadata is returned when file metadata lacks a field the client needs.
var ErrInvalidMetadata = errors.New("invalid file metadata")

// ErrEmptyFileID is returned by file operations called without a file ID.
var ErrEmptyFileID = errors.New("file id must not be empty")

// Client binds a transport and an endpoint builder. Knowledge bases created
// from it share both.
type Client struct {
	transport api.Transport
	urls      api.URLs
	logger    *slog.Logger
}

// New creates a client on top of transport. urls must be rooted at the same
// service the transport talks to.
func New(transport api.Transport, urls api.URLs, opts ...Option) *Client {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Client{
		transport: transport,
		urls:      urls,
		logger:    options.logger.With("component", "knowledgebase"),
	}
}

// NewFromAPI creates a client backed by an api.Client.
func NewFromAPI(apiClient *api.Client, opts ...Option) *Client {
	return New(apiClient, apiClient.URLs(), opts...)
}

func (c *Client) Transport() api.Transport {
	return c.transport
}

func (c *Client) URLs() api.URLs {
	return c.urls
}

func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// KnowledgeBase returns a local handle for name. Nothing is sent to the
// service until one of its methods is called.
func (c *Client) KnowledgeBase(name string) *KnowledgeBase {
	return &KnowledgeBase{client: c, name: name}
}

// ListKnowledgeBases returns every knowledge base visible to the caller with
// ID and sync status already populated.
func (c *Client) ListKnowledgeBases(ctx context.Context) ([]*KnowledgeBase, error) {
	var infos []schema.KnowledgeBaseInfo
	if err := c.transport.Get(ctx, c.urls.KnowledgeBase(""), &infos); err != nil {
		return nil, fmt.Errorf("list knowledge bases failed: %w", err)
	}

	kbs := make([]*KnowledgeBase, 0, len(infos))
	for _, info := range infos {
		kbs = append(kbs, &KnowledgeBase{
			client:     c,
			name:       info.Name,
			id:         info.ID,
			syncStatus: info.SyncStatus,
		})
	}
	return kbs, nil
}

// GetFileMetadata returns the metadata the service keeps for fileID.
func (c *Client) GetFileMetadata(ctx context.Context, fileID string) (schema.FileMetadata, error) {
	if fileID == "" {
		return nil, ErrEmptyFileID
	}
	var meta schema.FileMetadata
	if err := c.transport.Get(ctx, c.urls.Files(fileID), &meta); err != nil {
		return nil, fmt.Errorf("get file metadata %q failed: %w", fileID, err)
	}
	return meta, nil
}

// DownloadFile fetches the file's download URL and writes the body to
// downloadDir under the file's name. It returns the written path. The body
// is staged in a temporary file and renamed into place, so a failed download
// leaves an existing file with the same name untouched.
func (c *Client) DownloadFile(ctx context.Context, fileID, downloadDir string) (string, error) {
	meta, err := c.GetFileMetadata(ctx, fileID)
	if err != nil {
		return "", err
	}

	downloadURL := meta.DownloadURL()
	if downloadURL == "" {
		return "", fmt.Errorf("%w: file %q has no download_url", ErrInvalidMetadata, fileID)
	}
	fileName, err := localFileName(meta.Name())
	if err != nil {
		return "", fmt.Errorf("%w: file %q: %v", ErrInvalidMetadata, fileID, err)
	}

	dir, err := expandPath(downloadDir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, fileName)

	file, err := os.CreateTemp(dir, "."+fileName+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpPath := file.Name()

	n, err := c.transport.Download(ctx, downloadURL, file)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write %s: %w", tmpPath, closeErr)
	}
	if err == nil {
		err = os.Rename(tmpPath, target)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("download file %q failed: %w", fileID, err)
	}

	c.logger.Info("file downloaded", "file_id", fileID, "path", target, "bytes", n)
	return target, nil
}

// localFileName reduces a service-provided name to a single NFC-normalised
// path element.
func localFileName(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(norm.NFC.String(name)))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("unusable file name %q", name)
	}
	return base, nil
}

// expandPath applies "~" expansion and makes path absolute.
func expandPath(path string) (string, error) {
	if path == "~" || (len(path) > 1 && path[0] == '~' && os.IsPathSeparator(path[1])) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

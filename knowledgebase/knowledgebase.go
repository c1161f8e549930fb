package knowledgebase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sevigo/onecontext/api"
	"github.com/sevigo/onecontext/schema"
)

const (
	uploadFileField = "files"
	uploadNameField = "knowledge_base_name"
)

// KnowledgeBase is a handle to a named knowledge base on the service.
// Names are unique across the service. ID and SyncStatus cache server state
// and are refreshed by GetInfo.
type KnowledgeBase struct {
	client *Client
	name   string

	mu         sync.RWMutex
	id         string
	syncStatus string

	// infoFetch collapses concurrent lazy GetInfo calls from IsSynced.
	infoFetch singleflight.Group
}

func (kb *KnowledgeBase) Name() string {
	return kb.name
}

// ID returns the cached server-assigned ID, "" until fetched.
func (kb *KnowledgeBase) ID() string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.id
}

// SyncStatus returns the cached sync status, "" until fetched.
func (kb *KnowledgeBase) SyncStatus() string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.syncStatus
}

func (kb *KnowledgeBase) String() string {
	return kb.name
}

// UploadFile sends the file at path to the service in a single multipart
// request. A leading "~" is expanded to the home directory.
func (kb *KnowledgeBase) UploadFile(ctx context.Context, path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}

	file, err := os.Open(resolved)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer file.Close()

	form := api.MultipartForm{
		Fields: map[string]string{uploadNameField: kb.name},
		Files: []api.FormFile{{
			FieldName: uploadFileField,
			FileName:  filepath.Base(resolved),
			Reader:    file,
		}},
	}

	if err := kb.client.transport.PostMultipart(ctx, kb.client.urls.Upload(), form, nil); err != nil {
		return fmt.Errorf("upload %s to knowledge base %q failed: %w", resolved, kb.name, err)
	}

	kb.client.logger.Info("file uploaded", "knowledge_base", kb.name, "path", resolved)
	return nil
}

// ListFiles returns the metadata of every file in the knowledge base as
// reported by the service.
func (kb *KnowledgeBase) ListFiles(ctx context.Context) ([]schema.FileMetadata, error) {
	var files []schema.FileMetadata
	if err := kb.client.transport.Get(ctx, kb.client.urls.KnowledgeBaseFiles(kb.name), &files); err != nil {
		return nil, fmt.Errorf("list files of knowledge base %q failed: %w", kb.name, err)
	}
	return files, nil
}

// GetInfo refreshes ID and SyncStatus from the service. It fails with an
// error matching api.ErrNotFound when the knowledge base does not exist.
func (kb *KnowledgeBase) GetInfo(ctx context.Context) error {
	var info schema.KnowledgeBaseInfo
	if err := kb.client.transport.Get(ctx, kb.client.urls.KnowledgeBase(kb.name), &info); err != nil {
		return fmt.Errorf("get knowledge base %q failed: %w", kb.name, err)
	}

	kb.mu.Lock()
	kb.id = info.ID
	kb.syncStatus = info.SyncStatus
	kb.mu.Unlock()
	return nil
}

// Create creates the knowledge base on the service. It fails with an error
// matching api.ErrConflict when the name is taken.
func (kb *KnowledgeBase) Create(ctx context.Context) error {
	if err := kb.client.transport.Post(ctx, kb.client.urls.KnowledgeBase(kb.name), nil, nil); err != nil {
		return fmt.Errorf("create knowledge base %q failed: %w", kb.name, err)
	}

	kb.client.logger.Info("knowledge base created", "name", kb.name)
	return nil
}

// Delete removes the knowledge base from the service. The handle stays
// usable but refers to nothing until the name is created again.
func (kb *KnowledgeBase) Delete(ctx context.Context) error {
	if err := kb.client.transport.Delete(ctx, kb.client.urls.KnowledgeBase(kb.name), nil); err != nil {
		return fmt.Errorf("delete knowledge base %q failed: %w", kb.name, err)
	}

	kb.client.logger.Info("knowledge base deleted", "name", kb.name)
	return nil
}

// IsSynced reports whether the service has finished indexing the knowledge
// base. When the sync status has not been fetched yet it calls GetInfo
// first; a cached status is returned without a network call. Concurrent
// callers on a fresh handle share a single GetInfo call.
func (kb *KnowledgeBase) IsSynced(ctx context.Context) (bool, error) {
	if kb.SyncStatus() == "" {
		_, err, _ := kb.infoFetch.Do("info", func() (any, error) {
			if kb.SyncStatus() != "" {
				return nil, nil
			}
			return nil, kb.GetInfo(ctx)
		})
		if err != nil {
			return false, err
		}
	}
	return kb.SyncStatus() == schema.SyncStatusSynced, nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

// ErrBackupNotFound is returned when an object key does not exist
var ErrBackupNotFound = errors.New("backup not found")

// BackupObject describes one stored backup file
type BackupObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// BackupRepository defines the interface for backup file storage
type BackupRepository interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]BackupObject, error)
	Delete(ctx context.Context, key string) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// WorkspacePrefix is the key prefix for a workspace's backups
func WorkspacePrefix(root string, workspaceID int32) string {
	return path.Join(root, strconv.Itoa(int(workspaceID))) + "/"
}

// BackupKey builds the object key for a backup taken at t.
// Keys sort lexically in time order.
func BackupKey(root string, workspaceID int32, t time.Time, ext string) string {
	name := fmt.Sprintf("elektrikci-yedek-%s%s", t.UTC().Format("20060102T150405Z"), ext)
	return path.Join(root, strconv.Itoa(int(workspaceID)), name)
}

// SortNewestFirst orders objects by modification time, newest first
func SortNewestFirst(objects []BackupObject) {
	sort.SliceStable(objects, func(i, j int) bool {
		if objects[i].LastModified.Equal(objects[j].LastModified) {
			return objects[i].Key > objects[j].Key
		}
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}

// MemoryBackupRepository keeps backups in memory. Used when no bucket is
// configured and in tests.
type MemoryBackupRepository struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// NewMemoryBackupRepository creates an empty in-memory repository
func NewMemoryBackupRepository() *MemoryBackupRepository {
	return &MemoryBackupRepository{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (r *MemoryBackupRepository) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[key] = memoryObject{data: bytes.Clone(data), modified: r.now()}
	return nil
}

func (r *MemoryBackupRepository) Download(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[key]
	if !ok {
		return nil, ErrBackupNotFound
	}
	return bytes.Clone(obj.data), nil
}

func (r *MemoryBackupRepository) List(ctx context.Context, prefix string) ([]BackupObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BackupObject, 0)
	for key, obj := range r.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, BackupObject{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *MemoryBackupRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, key)
	return nil
}

func (r *MemoryBackupRepository) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.objects[key]; !ok {
		return "", ErrBackupNotFound
	}
	return "memory://" + key, nil
}

// readAll drains an object body
func readAll(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	return io.ReadAll(body)
}

// Package synccache persists the single SyncCacheRecord scalar across
// restarts, writing atomically (tmp+rename) so a crash mid-write never
// corrupts the file.
package synccache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// FileCache implements contracts.SyncCache backed by a single JSON file.
type FileCache struct {
	path string
}

// New constructs a FileCache writing to path.
func New(path string) *FileCache {
	return &FileCache{path: path}
}

var _ contracts.SyncCache = (*FileCache)(nil)

// Load returns the last record, or (nil, nil) when none exists yet.
func (c *FileCache) Load(ctx context.Context) (*models.SyncCacheRecord, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sync cache: %w", err)
	}

	var record models.SyncCacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse sync cache: %w", err)
	}
	return &record, nil
}

// Save writes record atomically: write to a tmp file in the same directory,
// then rename over the target (rename is atomic on the same filesystem).
func (c *FileCache) Save(ctx context.Context, record models.SyncCacheRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create sync cache dir: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sync cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sync cache tmp file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename sync cache tmp file: %w", err)
	}
	return nil
}

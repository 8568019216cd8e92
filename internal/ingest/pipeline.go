// Package ingest implements the Drive→Vector ingestion pipeline: it brings
// the VectorStore's contents into agreement with the current state of a
// named drive folder.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driveagent/driveagent/internal/mimemap"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
)

// batchSize bounds the number of files processed between progress log lines
// and is the pipeline's sole flow-control knob.
const batchSize = 50

// Pipeline reconciles VectorStore contents with a Drive folder's current
// state. One Pipeline instance guards at most one concurrent run per
// rootFolderID via an internal mutex.
type Pipeline struct {
	drive      contracts.DriveClient
	store      contracts.VectorStore
	extractor  contracts.TextExtractor
	cache      contracts.SyncCache
	rootName   string
	maxFolders int

	mu sync.Mutex
}

// Config configures a Pipeline.
type Config struct {
	RootName   string
	MaxFolders int
}

// New constructs a Pipeline from its capability dependencies.
func New(drive contracts.DriveClient, store contracts.VectorStore, extractor contracts.TextExtractor, cache contracts.SyncCache, cfg Config) *Pipeline {
	if cfg.MaxFolders <= 0 {
		cfg.MaxFolders = 10_000
	}
	if cfg.RootName == "" {
		cfg.RootName = "Drive"
	}
	return &Pipeline{
		drive:      drive,
		store:      store,
		extractor:  extractor,
		cache:      cache,
		rootName:   cfg.RootName,
		maxFolders: cfg.MaxFolders,
	}
}

// Run executes one reconciliation pass against rootFolderID. It returns
// RunStats describing the pass; the returned error is non-nil only for
// catastrophic failures (listing the drive tree, loading the stored
// documents, writing the sync cache). A failure to read the sync cache is
// logged and the run proceeds as if no record existed; per-file failures are
// tallied in RunStats.Failed instead.
func (p *Pipeline) Run(ctx context.Context, rootFolderID string) (*models.RunStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	syncStartTime := time.Now().UTC()
	stats := &models.RunStats{SyncedAt: syncStartTime}

	if _, err := p.cache.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load sync cache, proceeding as if absent")
	}

	driveFiles, err := p.drive.ListTree(ctx, rootFolderID, p.maxFolders)
	if err != nil {
		return nil, fmt.Errorf("list drive tree: %w", err)
	}
	stats.FilesSeen = len(driveFiles)

	stored, err := p.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored documents: %w", err)
	}
	storedByID := make(map[string]models.Document, len(stored))
	for _, d := range stored {
		storedByID[d.ID] = d
	}

	driveByID := make(map[string]models.DriveFile, len(driveFiles))
	for _, f := range driveFiles {
		driveByID[f.ID] = f
	}

	var toAdd, toUpdate []models.DriveFile
	for _, f := range driveFiles {
		existing, ok := storedByID[f.ID]
		if !ok {
			toAdd = append(toAdd, f)
			continue
		}
		if existing.Metadata.ModifiedTime != f.ModifiedTime {
			toUpdate = append(toUpdate, f)
		}
	}

	var toDelete []string
	for id := range storedByID {
		if _, ok := driveByID[id]; !ok {
			toDelete = append(toDelete, id)
		}
	}
	stats.Deleted = len(toDelete)

	if len(toAdd) == 0 && len(toUpdate) == 0 && len(toDelete) == 0 {
		return stats, p.writeCache(ctx, syncStartTime, len(driveFiles))
	}

	deleteIDs := append(append([]string{}, toDelete...), idsOf(toUpdate)...)
	if len(deleteIDs) > 0 {
		if err := p.store.DeleteMany(ctx, deleteIDs); err != nil {
			log.Error().Err(err).Int("count", len(deleteIDs)).Msg("failed to delete stale documents before reprocessing")
		}
	}

	addIDs := make(map[string]bool, len(toAdd))
	for _, f := range toAdd {
		addIDs[f.ID] = true
	}
	work := append(append([]models.DriveFile{}, toAdd...), toUpdate...)
	p.processBatches(ctx, work, addIDs, stats)

	if err := p.writeCache(ctx, syncStartTime, len(driveFiles)); err != nil {
		return stats, err
	}
	return stats, nil
}

func (p *Pipeline) processBatches(ctx context.Context, work []models.DriveFile, addIDs map[string]bool, stats *models.RunStats) {
	for start := 0; start < len(work); start += batchSize {
		end := start + batchSize
		if end > len(work) {
			end = len(work)
		}
		batch := work[start:end]

		for _, f := range batch {
			if err := p.processOne(ctx, f); err != nil {
				stats.Failed++
				stats.FailedIDs = append(stats.FailedIDs, f.ID)
				log.Warn().Err(err).Str("fileId", f.ID).Str("name", f.Name).Msg("failed to process file, will re-drive on next sync")
				continue
			}
			if addIDs[f.ID] {
				stats.Added++
			} else {
				stats.Updated++
			}
		}
		log.Info().Int("batchStart", start).Int("batchEnd", end).Int("total", len(work)).Msg("ingestion batch complete")
	}
}

// processOne carries a single file through download → extract → embed →
// upsert. A per-file failure is reported to the caller, never panics.
func (p *Pipeline) processOne(ctx context.Context, f models.DriveFile) error {
	extension := mimemap.ExtensionFor(f.MimeType)

	var text string
	var err error
	if mimemap.IsNativeSpreadsheet(f.MimeType) {
		text, err = p.drive.ReadSheet(ctx, f.ID)
		if err != nil {
			log.Warn().Err(err).Str("fileId", f.ID).Msg("structured sheet read failed, falling back to xlsx export")
			text, err = p.downloadAndExtract(ctx, f, extension)
		}
	} else {
		text, err = p.downloadAndExtract(ctx, f, extension)
	}
	if err != nil {
		return err
	}

	if text == "" {
		return nil // skipped-empty: not an error, simply nothing to index
	}

	metadata := models.DocumentMetadata{
		Name:         f.Name,
		MimeType:     f.MimeType,
		FolderPath:   f.FolderPath,
		ModifiedTime: f.ModifiedTime,
		Extension:    extension,
		GoogleLink:   mimemap.GoogleLink(f.ID, f.MimeType),
	}

	return p.store.AddMany(ctx, []contracts.AddManyInput{{ID: f.ID, Text: text, Metadata: metadata}})
}

func (p *Pipeline) downloadAndExtract(ctx context.Context, f models.DriveFile, extension string) (string, error) {
	var buf bytes.Buffer
	if err := p.drive.Download(ctx, f.ID, f.MimeType, &buf); err != nil {
		return "", fmt.Errorf("download %s: %w", f.ID, err)
	}

	extractMime := f.MimeType
	if exportMime, ok := mimemap.ExportMimeFor(f.MimeType); ok {
		extractMime = exportMime
	}

	text, err := p.extractor.Extract(ctx, &buf, extractMime)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", f.ID, err)
	}
	return text, nil
}

func (p *Pipeline) writeCache(ctx context.Context, syncStartTime time.Time, fileCount int) error {
	record := models.SyncCacheRecord{
		LastSyncTime: syncStartTime.Format(time.RFC3339),
		FileCount:    fileCount,
	}
	if err := p.cache.Save(ctx, record); err != nil {
		return fmt.Errorf("write sync cache: %w", err)
	}
	return nil
}

func idsOf(files []models.DriveFile) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

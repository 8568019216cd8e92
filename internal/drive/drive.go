// Package drive implements the DriveClient capability against the real
// Google Drive and Sheets APIs.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/driveagent/driveagent/internal/mimemap"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client implements contracts.DriveClient via google.golang.org/api.
type Client struct {
	drive  *driveapi.Service
	sheets *sheets.Service
}

// New builds a Client authenticated with the service-account credentials at
// credentialsPath.
func New(ctx context.Context, credentialsPath string) (*Client, error) {
	opts := []option.ClientOption{}
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	driveSvc, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{drive: driveSvc, sheets: sheetsSvc}, nil
}

var _ contracts.DriveClient = (*Client)(nil)

type queueEntry struct {
	folderID     string
	relativePath string
}

// ListTree performs an iterative BFS over rootFolderID, bounded by
// maxFolders, returning only files (folders are traversal nodes only).
func (c *Client) ListTree(ctx context.Context, rootFolderID string, maxFolders int) ([]models.DriveFile, error) {
	if maxFolders <= 0 {
		maxFolders = 10_000
	}

	queue := []queueEntry{{folderID: rootFolderID, relativePath: ""}}
	visited := map[string]bool{rootFolderID: true}
	var files []models.DriveFile
	foldersVisited := 0

	for len(queue) > 0 {
		if foldersVisited >= maxFolders {
			log.Warn().Int("maxFolders", maxFolders).Msg("drive tree walk hit maxFolders bound, returning partial results")
			break
		}
		entry := queue[0]
		queue = queue[1:]
		foldersVisited++

		pageToken := ""
		for {
			call := c.drive.Files.List().
				Q(fmt.Sprintf("'%s' in parents and trashed=false", entry.folderID)).
				Fields("nextPageToken, files(id, name, mimeType, modifiedTime)").
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				PageSize(1000).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			result, err := call.Do()
			if err != nil {
				log.Warn().Err(err).Str("folderId", entry.folderID).Msg("failed to list drive folder, skipping")
				break
			}

			for _, f := range result.Files {
				if mimemap.IsNativeFolder(f.MimeType) {
					if visited[f.Id] {
						continue
					}
					visited[f.Id] = true
					childPath := f.Name
					if entry.relativePath != "" {
						childPath = entry.relativePath + "/" + f.Name
					}
					queue = append(queue, queueEntry{folderID: f.Id, relativePath: childPath})
					continue
				}
				files = append(files, models.DriveFile{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					FolderPath:   entry.relativePath,
					ModifiedTime: f.ModifiedTime,
				})
			}

			if result.NextPageToken == "" {
				break
			}
			pageToken = result.NextPageToken
		}
	}

	return files, nil
}

// Download streams fileID's bytes to dest, exporting to the native-format
// target MIME first when the source is a Drive-native document.
func (c *Client) Download(ctx context.Context, fileID, mimeType string, dest io.Writer) error {
	var resp *driveapi.FileResponse
	var err error

	if exportMime, ok := mimemap.ExportMimeFor(mimeType); ok {
		resp, err = c.drive.Files.Export(fileID, exportMime).Context(ctx).Download()
	} else {
		resp, err = c.drive.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return fmt.Errorf("drive download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return fmt.Errorf("drive download %s: stream copy: %w", fileID, err)
	}
	return nil
}

// ReadSheet performs a structured, sheet-at-a-time read of a native
// spreadsheet, joining cells by tab and prefixing each sheet's text with
// "[Sheet: <name>]".
func (c *Client) ReadSheet(ctx context.Context, fileID string) (string, error) {
	meta, err := c.sheets.Spreadsheets.Get(fileID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read spreadsheet metadata %s: %w", fileID, err)
	}

	var b strings.Builder
	for _, sheet := range meta.Sheets {
		title := sheet.Properties.Title
		valueRange, err := c.sheets.Spreadsheets.Values.Get(fileID, title).Context(ctx).Do()
		if err != nil {
			log.Warn().Err(err).Str("fileId", fileID).Str("sheet", title).Msg("failed to read sheet values, skipping")
			continue
		}

		b.WriteString(fmt.Sprintf("[Sheet: %s]\n", title))
		for _, row := range valueRange.Values {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				cells = append(cells, fmt.Sprintf("%v", cell))
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// Package contracts defines the capability interfaces the agent core depends
// on. Every concrete backend (OpenAI, Qdrant, Drive, SendGrid, ...) lives
// behind one of these; core code never imports a backend package directly.
package contracts

import (
	"context"
	"io"

	"github.com/driveagent/driveagent/pkg/models"
)

// ── Model ────────────────────────────────────────────────────

// Model is the language-model and embedding capability the core consumes.
// OSS implementation: internal/modelsvc (OpenAI-backed).
type Model interface {
	// Chat issues a plain chat completion, returning text only.
	Chat(ctx context.Context, turns []models.ChatMessage) (string, error)

	// ChatWithTools issues a tool-augmented chat completion. The response
	// carries either ToolCalls or Text, never both.
	ChatWithTools(ctx context.Context, turns []models.ChatMessage, tools []models.ToolDeclaration, opts models.ChatOptions) (*models.ModelResponse, error)

	// Embed generates a single embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ── VectorStore ──────────────────────────────────────────────

// AddManyInput is one document submitted to VectorStore.AddMany.
type AddManyInput struct {
	ID       string
	Text     string
	Metadata models.DocumentMetadata
}

// SearchOptions configures VectorStore.Search.
type SearchOptions struct {
	Keyword        string
	MaxDistance    *float64
	MetadataFilter map[string]string
}

// VectorStore is the narrow façade the core depends on (spec §4.1).
// OSS implementations: internal/vectorstore.EmbeddedStore, internal/vectorstore.QdrantStore.
type VectorStore interface {
	// Kind returns a short driver identifier (e.g. "embedded", "qdrant").
	Kind() string

	// AddMany embeds and upserts each input; upserting the same id replaces
	// prior content for that id.
	AddMany(ctx context.Context, docs []AddManyInput) error

	// Search returns up to n rows ordered per spec §4.1's algorithm.
	Search(ctx context.Context, query string, n int, opts SearchOptions) ([]models.SearchResult, error)

	// GetAll returns every stored document — used for sync reconciliation,
	// never for user queries.
	GetAll(ctx context.Context) ([]models.Document, error)

	// DeleteMany removes documents by id.
	DeleteMany(ctx context.Context, ids []string) error

	// GetStats returns the collection count and backend name.
	GetStats(ctx context.Context) (models.VectorStoreStats, error)

	// Reset empties the collection.
	Reset(ctx context.Context) error
}

// ── EmailSender ──────────────────────────────────────────────

// EmailSender is the single-operation capability the sendEmail tool invokes.
// OSS implementation: internal/email (SendGrid-backed).
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ── TextExtractor ────────────────────────────────────────────

// TextExtractor maps (bytes, mimeType) to plain text per the spec §4.2
// dispatch table. Returns "" (not an error) when no text is extractable.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader, mimeType string) (string, error)
}

// ── DriveClient ──────────────────────────────────────────────

// DriveEntry pairs a DriveFile with a folder flag: a file (IsFolder false)
// or a folder (IsFolder true). DriveClient.ListTree does not return it;
// ListTree returns files only, as []models.DriveFile.
type DriveEntry struct {
	models.DriveFile
	IsFolder bool
}

// DriveClient enumerates a remote drive, downloads bytes, and reads
// structured spreadsheets. OSS implementation: internal/drive.
type DriveClient interface {
	// ListTree performs an iterative BFS over rootFolderID, bounded by
	// maxFolders, returning only files (not folders).
	ListTree(ctx context.Context, rootFolderID string, maxFolders int) ([]models.DriveFile, error)

	// Download streams fileID's bytes to dest, performing a server-side
	// export first when mimeType is a native format (to the MIME
	// mimemap.ExportMimeFor gives for it).
	Download(ctx context.Context, fileID, mimeType string, dest io.Writer) error

	// ReadSheet performs a structured, sheet-at-a-time read of a native
	// spreadsheet, returning joined text.
	ReadSheet(ctx context.Context, fileID string) (string, error)
}

// ── SyncCache ────────────────────────────────────────────────

// SyncCache persists the single SyncCacheRecord scalar across restarts.
// OSS implementation: internal/synccache.
type SyncCache interface {
	// Load returns the last record, or (nil, nil) when none exists yet.
	Load(ctx context.Context) (*models.SyncCacheRecord, error)

	// Save writes the record atomically (tmp+rename).
	Save(ctx context.Context, record models.SyncCacheRecord) error
}

// ── ToolRegistry ─────────────────────────────────────────────

// ToolInvoker executes one declared tool given validated parameters.
type ToolInvoker func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)

// ToolRegistry declares tool schemas and binds each to an invoker.
// OSS implementation: internal/tools.
type ToolRegistry interface {
	// Declarations returns every tool in the shape Model.ChatWithTools expects.
	Declarations() []models.ToolDeclaration

	// Invoke runs the named tool. ok is false when name is not registered.
	Invoke(ctx context.Context, name string, params map[string]interface{}) (result map[string]interface{}, ok bool, err error)
}

// ── AgentOrchestrator ────────────────────────────────────────

// AgentOrchestrator drives the bounded iterative tool-use loop (spec §4.6).
// OSS implementation: internal/orchestrator.
type AgentOrchestrator interface {
	// ExecuteTask runs userPrompt to completion or failure, up to maxIterations
	// model↔tool round trips. maxIterations == 0 resolves to the orchestrator's
	// default; values outside 1..MaxAllowedIterations are rejected as BadRequest.
	ExecuteTask(ctx context.Context, userPrompt string, maxIterations int) (*models.AgentTaskResult, error)
}

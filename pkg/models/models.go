// Package models holds the data types shared across the agent runtime and
// the ingestion pipeline.
package models

import "time"

// ── Document ─────────────────────────────────────────────────

// DocumentMetadata is the side information stored alongside a Document's
// embedding. Immutable once written for a given (ID, ModifiedTime) pair.
type DocumentMetadata struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	FolderPath   string `json:"folderPath"`
	ModifiedTime string `json:"modifiedTime"`
	Extension    string `json:"extension"`
	GoogleLink   string `json:"googleLink"`
}

// Document is the stored unit in the vector store. ID is the remote drive
// file identifier and is unique across the collection; (ID, ModifiedTime)
// is the identity sync uses to decide "unchanged".
type Document struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Embedding []float64        `json:"embedding"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// SearchResult is a row returned from VectorStore.Search.
type SearchResult struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	Metadata     DocumentMetadata `json:"metadata"`
	Distance     float64          `json:"distance"`
	Path         string           `json:"path"`
	GoogleLink   string           `json:"googleLink"`
	KeywordCount int              `json:"keywordCount,omitempty"`
}

// VectorStoreStats is returned by VectorStore.GetStats.
type VectorStoreStats struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// ── Drive ────────────────────────────────────────────────────

// DriveFile is an in-memory descriptor produced while walking the drive
// tree. Folders are traversal nodes only and never become DriveFiles.
type DriveFile struct {
	ID           string
	Name         string
	MimeType     string
	FolderPath   string
	ModifiedTime string
}

// SyncCacheRecord is the persistent scalar record of the last successful
// ingestion run, written atomically (tmp+rename) to disk.
type SyncCacheRecord struct {
	LastSyncTime string `json:"lastSyncTime"`
	FileCount    int    `json:"fileCount"`
}

// RunStats summarizes a single IngestionPipeline run. It is a return value
// only, never persisted — SyncCacheRecord is the durable record.
type RunStats struct {
	FilesSeen int
	Added     int
	Updated   int
	Deleted   int
	Failed    int
	FailedIDs []string
	SyncedAt  time.Time
}

// ── Model / conversation ────────────────────────────────────

// ChatMessage is one turn in a plain chat exchange with the Model capability.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is emitted by the Model. Parameters is passed to the tool's
// invoker as-is; no schema validation happens before invocation, and each
// invoker checks its own required fields.
type ToolCall struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ToolResult is a success flag plus payload for a tool's outcome. The tool
// registry's invokers return a plain map instead, which becomes the payload
// of a tool-result ConversationTurn, never an exception.
type ToolResult struct {
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"-"`
}

// ChatOptions configures a ChatWithTools call. ForceToolUse resolves the
// spec's forced-tool-use open question as a structured flag rather than by
// omitting tool declarations.
type ChatOptions struct {
	ForceToolUse bool
}

// ModelResponse is the Model capability's structured reply: either one or
// more ToolCalls, or final Text — never both.
type ModelResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// TurnKind discriminates the variant of a ConversationTurn.
type TurnKind string

const (
	TurnSystemInstruction TurnKind = "system-instruction"
	TurnUserText          TurnKind = "user-text"
	TurnModelText         TurnKind = "model-text"
	TurnModelToolCall     TurnKind = "model-tool-call"
	TurnToolResult        TurnKind = "tool-result"
)

// ConversationTurn is one entry in the orchestrator's per-request turn
// sequence. Only the fields relevant to Kind are populated.
type ConversationTurn struct {
	Kind         TurnKind
	Text         string
	ToolCalls    []ToolCall
	ToolName     string
	ToolPayload  map[string]interface{}
}

// ── Tools ────────────────────────────────────────────────────

// SchemaProperty describes one named parameter of a ToolSchema.
type SchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// ToolSchema is a small reusable JSON-schema subset: an object with named
// properties of primitive types plus a required list. Replaces free-form
// dynamic tool schemas per the spec's re-architecture note.
type ToolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// ToolDeclaration is the shape in which a tool is exposed to Model.ChatWithTools.
type ToolDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolSchema `json:"parameters"`
}

// ── HTTP surface (shape only — see SPEC_FULL §4.7) ──────────

// AgentTaskRequest is the body of POST /agent/task.
type AgentTaskRequest struct {
	Prompt        string `json:"prompt"`
	MaxIterations int    `json:"maxIterations,omitempty"`
}

// AgentTaskResult is the AgentOrchestrator's ExecuteTask return value.
type AgentTaskResult struct {
	Success    bool       `json:"success"`
	Answer     string     `json:"answer,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls"`
	Iterations int        `json:"iterations"`
}

// AgentTaskResponse wraps AgentTaskResult in the external envelope.
type AgentTaskResponse struct {
	Success bool             `json:"success"`
	Data    *AgentTaskResult `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
}

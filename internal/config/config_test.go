package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Drive.RootName != "Drive" {
		t.Errorf("Drive.RootName = %q, want Drive", cfg.Drive.RootName)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("OpenAI.ChatModel = %q, want gpt-4o-mini", cfg.OpenAI.ChatModel)
	}
	if cfg.Vector.Driver != "embedded" {
		t.Errorf("Vector.Driver = %q, want embedded", cfg.Vector.Driver)
	}
	if cfg.Sync.MaxFolders != 10_000 {
		t.Errorf("Sync.MaxFolders = %d, want 10000", cfg.Sync.MaxFolders)
	}
	if cfg.Search.DistanceCutoff != nil {
		t.Errorf("Search.DistanceCutoff = %v, want nil when unset", cfg.Search.DistanceCutoff)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID", "folder-123")
	t.Setenv("SYNC_MAX_FOLDERS", "500")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("SEARCH_DISTANCE_CUTOFF", "0.35")

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.Drive.FolderID != "folder-123" {
		t.Errorf("Drive.FolderID = %q, want folder-123", cfg.Drive.FolderID)
	}
	if cfg.Sync.MaxFolders != 500 {
		t.Errorf("Sync.MaxFolders = %d, want 500", cfg.Sync.MaxFolders)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
	if cfg.Search.DistanceCutoff == nil || *cfg.Search.DistanceCutoff != 0.35 {
		t.Errorf("Search.DistanceCutoff = %v, want 0.35", cfg.Search.DistanceCutoff)
	}
}

func TestLoadIgnoresUnparsableIntFallsBackToDefault(t *testing.T) {
	t.Setenv("SYNC_MAX_FOLDERS", "not-a-number")

	cfg := Load()
	if cfg.Sync.MaxFolders != 10_000 {
		t.Errorf("Sync.MaxFolders = %d, want default 10000 on unparsable override", cfg.Sync.MaxFolders)
	}
}

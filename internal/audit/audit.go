package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/staffmanager/internal/utils"
)

// Snapshot is the on-disk form of an archived record.
type Snapshot struct {
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	ArchivedAt time.Time `json:"archived_at"`
	Record     any       `json:"record"`
}

// Archiver keeps JSON snapshots of deleted records under Dir.
type Archiver struct {
	Dir string
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{Dir: dir}
}

// Archive writes a snapshot to <entity>_<id>_<uuid>.json and returns the
// file name.
func (a *Archiver) Archive(entityType string, entityID uint, record any) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	snapshot := Snapshot{
		EntityType: entityType,
		EntityID:   entityID,
		ArchivedAt: time.Now(),
		Record:     record,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	filename := fmt.Sprintf("%s_%d_%s.json", utils.Slug(entityType), entityID, uuid.NewString())
	if err := os.WriteFile(filepath.Join(a.Dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("Archived %s %d to %s", entityType, entityID, filename)
	return filename, nil
}

// Load reads a snapshot back by file name.
func (a *Archiver) Load(filename string) (*Snapshot, error) {
	if filepath.Base(filename) != filename {
		return nil, fmt.Errorf("invalid snapshot name %q", filename)
	}
	data, err := os.ReadFile(filepath.Join(a.Dir, filename))
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// Prune deletes snapshots last modified before cutoff and returns how many
// were removed. A missing directory means nothing to prune.
func (a *Archiver) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.Dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return removed, err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(a.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

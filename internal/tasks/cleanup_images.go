package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/staffmanager/internal/images"
)

// DefaultOrphanMinAge keeps files this young even when unreferenced, so an
// upload whose record is still being saved survives.
const DefaultOrphanMinAge = time.Hour

// ImageStore lists, locates and deletes stored images.
type ImageStore interface {
	List(category images.Category) ([]string, error)
	Resolve(relPath string) (string, error)
	Delete(relPath string) error
}

// ImageReferences returns every image path a record still points at.
type ImageReferences interface {
	ReferencedImages(ctx context.Context) (map[string]bool, error)
}

// CleanupOrphanImagesTask deletes uploaded images that no member or
// employee references.
type CleanupOrphanImagesTask struct {
	MinAgeMinutes int `json:"min_age_minutes,omitempty"`
}

func (t CleanupOrphanImagesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_images",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanImagesProcessor creates the processor for image cleanup.
// recorder may be nil.
func CleanupOrphanImagesProcessor(store ImageStore, refs ImageReferences, recorder MaintenanceRecorder) backlite.QueueProcessor[CleanupOrphanImagesTask] {
	return func(ctx context.Context, task CleanupOrphanImagesTask) error {
		if store == nil || refs == nil {
			return errNotConfigured("image store")
		}

		minAge := DefaultOrphanMinAge
		if task.MinAgeMinutes > 0 {
			minAge = time.Duration(task.MinAgeMinutes) * time.Minute
		}
		cutoff := time.Now().Add(-minAge)

		referenced, err := refs.ReferencedImages(ctx)
		if err != nil {
			record(recorder, "cleanup_orphan_images", "Image cleanup failed", nil, err)
			return err
		}

		var removed []string
		for _, category := range images.Categories {
			paths, err := store.List(category)
			if err != nil {
				record(recorder, "cleanup_orphan_images", "Image cleanup failed", nil, err)
				return fmt.Errorf("list %s images: %w", category, err)
			}
			for _, p := range paths {
				if referenced[p] || !olderThan(store, p, cutoff) {
					continue
				}
				if err := store.Delete(p); err != nil {
					log.Printf("[TASK] Failed to delete orphan image %s: %v", p, err)
					continue
				}
				removed = append(removed, p)
			}
		}

		summary := fmt.Sprintf("Removed %d orphan image(s)", len(removed))
		log.Printf("[TASK] %s", summary)
		record(recorder, "cleanup_orphan_images", summary, map[string]any{"removed": removed}, nil)
		return nil
	}
}

// NewCleanupOrphanImagesQueue creates a backlite queue for image cleanup.
func NewCleanupOrphanImagesQueue(store ImageStore, refs ImageReferences, recorder MaintenanceRecorder) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanImagesProcessor(store, refs, recorder))
}

func olderThan(store ImageStore, relPath string, cutoff time.Time) bool {
	full, err := store.Resolve(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}

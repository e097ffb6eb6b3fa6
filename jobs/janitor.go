// Package jobs runs background maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/andrewpaige1/flashcards-api/models"
	"github.com/andrewpaige1/flashcards-api/storage"
)

// ImageJanitor removes uploaded images that no flashcard ended up using.
type ImageJanitor struct {
	db        *gorm.DB
	store     storage.ObjectStore
	orphanTTL time.Duration
	now       func() time.Time

	scheduler *gocron.Scheduler
}

func NewImageJanitor(db *gorm.DB, store storage.ObjectStore, orphanTTL time.Duration) *ImageJanitor {
	return &ImageJanitor{
		db:        db,
		store:     store,
		orphanTTL: orphanTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sweep deletes uploads older than the TTL that no flashcard references and
// returns how many were removed. An object is deleted before its record so a
// failed delete is retried on the next sweep.
func (j *ImageJanitor) Sweep(ctx context.Context) (int, error) {
	// created_at is stored in UTC and compared as text on SQLite.
	cutoff := j.now().UTC().Add(-j.orphanTTL)

	var orphans []models.Upload
	err := j.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (?)", j.db.Model(&models.Flashcard{}).Select("1").Where("flashcards.image_url = uploads.public_url")).
		Find(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("find orphaned uploads: %w", err)
	}

	removed := 0
	for _, upload := range orphans {
		if err := j.store.Delete(ctx, upload.Key); err != nil {
			log.Warn().Err(err).Str("key", upload.Key).Msg("ImageJanitor: failed to delete object")
			continue
		}
		if err := j.db.WithContext(ctx).Delete(&models.Upload{}, "id = ?", upload.ID).Error; err != nil {
			log.Warn().Err(err).Str("key", upload.Key).Msg("ImageJanitor: failed to delete upload record")
			continue
		}
		removed++
	}
	return removed, nil
}

// Start runs Sweep every interval until Stop.
func (j *ImageJanitor) Start(interval time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		removed, err := j.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("ImageJanitor: sweep failed")
			return
		}
		if removed > 0 {
			log.Info().Int("removed", removed).Msg("ImageJanitor: removed orphaned images")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule image janitor: %w", err)
	}
	s.StartAsync()
	j.scheduler = s
	return nil
}

func (j *ImageJanitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

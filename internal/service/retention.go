package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/basel-ax/avatargen/internal/repository"
)

// Pruner removes saved images older than a cutoff
type Pruner interface {
	PruneOlderThan(cutoff time.Time) (int, error)
}

// RetentionService deletes avatars and history rows older than the retention period
type RetentionService struct {
	files     Pruner
	history   repository.GenerationRepository
	retention time.Duration
}

// NewRetentionService creates a new retention service. A zero retention disables pruning.
func NewRetentionService(files Pruner, history repository.GenerationRepository, retention time.Duration) *RetentionService {
	if history == nil {
		history = repository.NopGenerationRepository{}
	}
	return &RetentionService{files: files, history: history, retention: retention}
}

// Enabled reports whether pruning does anything
func (r *RetentionService) Enabled() bool {
	return r.retention > 0
}

// Prune removes everything older than now minus the retention period
func (r *RetentionService) Prune(ctx context.Context, now time.Time) error {
	if !r.Enabled() {
		return nil
	}
	cutoff := now.Add(-r.retention)

	files, err := r.files.PruneOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune images: %w", err)
	}

	rows, err := r.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune generation history: %w", err)
	}

	log.Printf("Pruned %d images and %d history rows older than %s", files, rows, cutoff.Format(time.RFC3339))
	return nil
}

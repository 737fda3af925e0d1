package batchService

import (
	"SmoothTrack/internal/api/batch"
	"SmoothTrack/internal/entity"
	"errors"
	"math"
	"time"

	"golang.org/x/net/context"
)

const (
	StreamConnectedMessage = "Real-time processing stream connected"
	StreamCompletedMessage = "Processing completed"

	placeholderCompletion = 0.8
)

// StreamProgress emits a connected event, then one progress_update per tick
// until every job is terminal or the tick limit is reached, then completed.
// Ids with no stored job report placeholder progress.
func (s *batchService) StreamProgress(ctx context.Context, jobIDs []string, emit EmitFunc) error {
	if err := emit(entity.StreamEvent{
		Type:      entity.StreamConnected,
		Message:   StreamConnectedMessage,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	finished := make(map[string]bool)

	for tick := 1; ; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		updates, allTerminal, err := s.snapshot(ctx, jobIDs, finished)
		if err != nil {
			return err
		}

		if err := emit(entity.StreamEvent{
			Type:      entity.StreamProgressUpdate,
			Updates:   updates,
			Timestamp: time.Now().UnixMilli(),
		}); err != nil {
			return err
		}

		if allTerminal || tick >= s.config.StreamMaxTicks {
			return emit(entity.StreamEvent{
				Type:      entity.StreamCompleted,
				Message:   StreamCompletedMessage,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

func (s *batchService) snapshot(ctx context.Context, jobIDs []string, finished map[string]bool) ([]entity.JobProgress, bool, error) {
	now := time.Now().UnixMilli()
	updates := make([]entity.JobProgress, 0, len(jobIDs))
	allTerminal := true

	for _, id := range jobIDs {
		job, err := s.repository.Get(ctx, id)
		switch {
		case err == nil:
			updates = append(updates, entity.JobProgress{
				JobID:     id,
				Progress:  float64(job.Progress),
				Status:    job.Status,
				Timestamp: now,
			})
			if !job.Status.Terminal() {
				allTerminal = false
			}
		case errors.Is(err, batch.ErrJobNotFound):
			update := s.placeholder(id, finished)
			update.Timestamp = now
			updates = append(updates, update)
			if !update.Status.Terminal() {
				allTerminal = false
			}
		default:
			return nil, false, err
		}
	}

	return updates, allTerminal, nil
}

func (s *batchService) placeholder(id string, finished map[string]bool) entity.JobProgress {
	if !finished[id] && s.config.Source.Float64() > placeholderCompletion {
		finished[id] = true
	}
	if finished[id] {
		return entity.JobProgress{JobID: id, Progress: 100, Status: entity.JobStatusCompleted}
	}

	progress := math.Floor(s.config.Source.Float64() * 100)
	return entity.JobProgress{JobID: id, Progress: progress, Status: entity.JobStatusProcessing}
}

package batchService

import (
	"SmoothTrack/internal/api/batch"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/log"
	"SmoothTrack/pkg/worker"
	"context"
	"fmt"
	"time"
)

const (
	progressStarted  = 10
	progressPrepared = 25
	progressYOLO     = 60
	progressEdges    = 85
	progressDone     = 100
)

func (s *batchService) CreateBatch(ctx context.Context, files []batch.UploadedFile) ([]entity.Job, error) {
	if len(files) == 0 {
		return nil, batch.ErrNoImages
	}

	jobs := make([]entity.Job, 0, len(files))
	handles := make([]*worker.Handle, 0, len(files))
	for _, file := range files {
		now := time.Now()
		id, err := s.utils.NewPrefixedID("job", now)
		if err != nil {
			s.abandon(handles)
			return nil, fmt.Errorf("generate job id: %w", err)
		}

		job := entity.Job{
			ID:        id,
			FileName:  file.FileName,
			Status:    entity.JobStatusQueued,
			CreatedAt: now,
		}

		handle, err := s.enqueue(ctx, job, file.Data)
		if err != nil {
			s.abandon(handles)
			return nil, err
		}
		handles = append(handles, handle)

		log.WithRequestID(ctx).WithFields(log.Fields{
			"job_id":    job.ID,
			"file_name": job.FileName,
		}).Debug("[batchService][CreateBatch] job queued")

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// enqueue stores the job and submits it while holding s.mu, so CancelJob
// never observes a stored job whose handle is not yet tracked.
func (s *batchService) enqueue(ctx context.Context, job entity.Job, image []byte) (*worker.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.Put(ctx, job); err != nil {
		return nil, err
	}

	handle, err := s.pool.Submit(job.ID, s.process(job, image))
	if err != nil {
		s.markFailed(context.WithoutCancel(ctx), job, err)
		return nil, fmt.Errorf("submit job %s: %w", job.ID, err)
	}

	s.handles[job.ID] = handle
	go s.untrack(handle)

	return handle, nil
}

// abandon cancels the jobs already accepted from a batch that could not be
// queued in full. The caller only reports the failure, so none of them may
// keep running unseen.
func (s *batchService) abandon(handles []*worker.Handle) {
	for _, handle := range handles {
		handle.Cancel()
	}
	for _, handle := range handles {
		<-handle.Done()
	}
}

func (s *batchService) GetJob(ctx context.Context, id string) (entity.Job, error) {
	return s.repository.Get(ctx, id)
}

func (s *batchService) ListJobs(ctx context.Context) ([]entity.Job, error) {
	return s.repository.ListAll(ctx)
}

func (s *batchService) CancelJob(ctx context.Context, id string) (entity.Job, error) {
	job, err := s.repository.Get(ctx, id)
	if err != nil {
		return entity.Job{}, err
	}
	if job.Status.Terminal() {
		return job, batch.ErrJobFinished
	}

	s.mu.Lock()
	handle, ok := s.handles[id]
	s.mu.Unlock()

	if !ok {
		// The task may have finished since the first read.
		job, err = s.repository.Get(ctx, id)
		if err != nil {
			return entity.Job{}, err
		}
		if job.Status.Terminal() {
			return job, batch.ErrJobFinished
		}

		// Stored by a process that is gone; nothing will ever advance it.
		s.markFailed(context.WithoutCancel(ctx), job, batch.ErrJobOrphaned)
		return s.repository.Get(ctx, id)
	}

	handle.Cancel()
	<-handle.Done()

	return s.repository.Get(ctx, id)
}

func (s *batchService) untrack(handle *worker.Handle) {
	<-handle.Done()
	s.mu.Lock()
	delete(s.handles, handle.ID)
	s.mu.Unlock()
}

// process builds the background task for one job. Store writes ignore task
// cancellation so a cancelled job still records its failure.
func (s *batchService) process(job entity.Job, image []byte) worker.Task {
	return func(ctx context.Context) (err error) {
		store := context.WithoutCancel(ctx)

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job %s panicked: %v", job.ID, r)
				s.markFailed(store, job, err)
			}
		}()

		if err := ctx.Err(); err != nil {
			s.markFailed(store, job, err)
			return err
		}

		start := time.Now()
		job.Status = entity.JobStatusProcessing
		job.StartTime = &start
		if err := s.advance(store, &job, progressStarted); err != nil {
			return err
		}
		if err := s.advance(store, &job, progressPrepared); err != nil {
			return err
		}

		yolo, err := s.pipeline.RunYOLO(ctx, image)
		if err != nil {
			s.markFailed(store, job, err)
			return err
		}
		if err := s.advance(store, &job, progressYOLO); err != nil {
			return err
		}

		edges, err := s.pipeline.RunEdges(ctx, image)
		if err != nil {
			s.markFailed(store, job, err)
			return err
		}
		if err := s.advance(store, &job, progressEdges); err != nil {
			return err
		}

		end := time.Now()
		job.Results = &entity.JobResults{
			YOLO:     yolo,
			OpenCV:   edges,
			Analysis: detector.Compare(len(yolo.Detections), len(edges.Detections)),
		}
		job.Status = entity.JobStatusCompleted
		job.EndTime = &end
		if err := s.advance(store, &job, progressDone); err != nil {
			return err
		}

		s.log.WithFields(log.Fields{
			"job_id":          job.ID,
			"processing_time": job.ProcessingTime().String(),
			"yolo_count":      len(yolo.Detections),
			"opencv_count":    len(edges.Detections),
		}).Info("[batchService][process] job completed")

		return nil
	}
}

func (s *batchService) advance(ctx context.Context, job *entity.Job, progress int) error {
	job.Progress = progress
	if err := s.repository.Put(ctx, *job); err != nil {
		s.log.WithFields(log.Fields{
			"job_id":   job.ID,
			"progress": progress,
			"error":    err.Error(),
		}).Error("[batchService][advance] failed to store job progress")
		s.markFailed(ctx, *job, err)
		return err
	}
	return nil
}

func (s *batchService) markFailed(ctx context.Context, job entity.Job, cause error) {
	end := time.Now()
	job.Status = entity.JobStatusFailed
	job.Progress = 0
	job.Error = cause.Error()
	job.EndTime = &end

	s.log.WithFields(log.Fields{
		"job_id": job.ID,
		"error":  cause.Error(),
	}).Warn("[batchService][process] job failed")

	if err := s.repository.Put(ctx, job); err != nil {
		s.log.WithFields(log.Fields{
			"job_id": job.ID,
			"error":  err.Error(),
		}).Error("[batchService][markFailed] failed to store job failure")
	}
}

package entity

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job in this status will never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type Job struct {
	ID        string      `json:"id"`
	FileName  string      `json:"fileName"`
	Status    JobStatus   `json:"status"`
	Progress  int         `json:"progress"`
	Results   *JobResults `json:"results,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	StartTime *time.Time  `json:"startTime,omitempty"`
	EndTime   *time.Time  `json:"endTime,omitempty"`
}

// ProcessingTime is the wall time between start and end, zero while unfinished.
func (j Job) ProcessingTime() time.Duration {
	if j.StartTime == nil || j.EndTime == nil {
		return 0
	}
	return j.EndTime.Sub(*j.StartTime)
}

type JobResults struct {
	YOLO     YOLORun  `json:"yolo"`
	OpenCV   EdgeRun  `json:"opencv"`
	Analysis Analysis `json:"analysis"`
}

type YOLORun struct {
	Detections     []Detection `json:"detections"`
	ProcessingTime string      `json:"processingTime"`
	Model          string      `json:"model"`
}

type EdgeRun struct {
	Detections     []EdgeDetection `json:"detections"`
	ProcessingTime string          `json:"processingTime"`
	Method         string          `json:"method"`
}

type StreamEventType string

const (
	StreamConnected      StreamEventType = "connected"
	StreamProgressUpdate StreamEventType = "progress_update"
	StreamCompleted      StreamEventType = "completed"
)

type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Message   string          `json:"message,omitempty"`
	Updates   []JobProgress   `json:"updates,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type JobProgress struct {
	JobID     string    `json:"jobId"`
	Progress  float64   `json:"progress"`
	Status    JobStatus `json:"status"`
	Timestamp int64     `json:"timestamp"`
}

package batch

type UploadedFile struct {
	FileName string
	Data     []byte
}

type JobSummary struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type JobListItem struct {
	JobSummary
	ProcessingTime *string `json:"processingTime"`
}

type CreateBatchResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Jobs    []JobSummary `json:"jobs"`
}

type JobListResponse struct {
	Jobs []JobListItem `json:"jobs"`
}

type JobQuery struct {
	JobID string `query:"jobId" validate:"omitempty,max=64"`
}

type CancelJobResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Job     JobSummary `json:"job"`
}

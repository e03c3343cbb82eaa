// Package batch drives server-side batch processing jobs: uploading the
// input files, creating and starting the job, and mirroring the server's
// job list locally.
package batch

import (
	"fmt"
	"time"
)

// Status is the server-side lifecycle state of a batch job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Progress holds a job's aggregate counters.
type Progress struct {
	Processed  int `json:"processed"`
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Validate enforces the progress invariants: processed never exceeds total
// and the outcome counters never exceed processed.
func (p Progress) Validate() error {
	if p.Processed > p.Total {
		return fmt.Errorf("processed (%d) exceeds total (%d)", p.Processed, p.Total)
	}
	if p.Successful+p.Failed > p.Processed {
		return fmt.Errorf("successful+failed (%d) exceeds processed (%d)",
			p.Successful+p.Failed, p.Processed)
	}
	return nil
}

// Job mirrors one server-side batch job. The client never mutates jobs
// locally; each poll replaces the whole snapshot.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Progress   Progress  `json:"progress"`
	TotalFiles int       `json:"total_files"`
	CreatedAt  time.Time `json:"created_at"`
}

package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/calypso/pkg/dca"
)

// AnalysisJobStatus represents the lifecycle of an analysis request.
type AnalysisJobStatus string

const (
	AnalysisJobQueued    AnalysisJobStatus = "queued"
	AnalysisJobRunning   AnalysisJobStatus = "running"
	AnalysisJobCompleted AnalysisJobStatus = "completed"
	AnalysisJobFailed    AnalysisJobStatus = "failed"
)

// AnalysisJob keeps track of an analysis while it runs in the background.
type AnalysisJob struct {
	ID         string            `json:"id"`
	Groups     []string          `json:"groups"`
	Reference  string            `json:"reference,omitempty"`
	Engine     string            `json:"engine"`
	Thresholds dca.Thresholds    `json:"thresholds"`
	Top        int               `json:"top"`
	Status     AnalysisJobStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	results  []dca.Result
	analyser *dca.Analyser
	// exportMu is shared by every copy of the job and serializes its exports.
	exportMu *sync.Mutex
}

// AnalysisJobManager stores analysis job states indexed by job ID.
type AnalysisJobManager struct {
	mu   sync.RWMutex
	jobs map[string]*AnalysisJob
}

// NewAnalysisJobManager constructs a job manager with no jobs.
func NewAnalysisJobManager() *AnalysisJobManager {
	return &AnalysisJobManager{
		jobs: make(map[string]*AnalysisJob),
	}
}

// NewJob registers a queued job comparing groups. An empty reference leaves the
// choice of reference group to the analyser.
func (m *AnalysisJobManager) NewJob(groups []string, reference, engine string, th dca.Thresholds, top int) AnalysisJob {
	now := time.Now()
	job := &AnalysisJob{
		ID:         uuid.NewString(),
		Groups:     append([]string(nil), groups...),
		Reference:  reference,
		Engine:     engine,
		Thresholds: th,
		Top:        top,
		Status:     AnalysisJobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
		exportMu:   &sync.Mutex{},
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return *job
}

// SetRunning marks the job as running.
func (m *AnalysisJobManager) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *AnalysisJob) {
		job.Status = AnalysisJobRunning
	})
}

// CompleteJob stores the analyser and its sorted results and marks the job complete.
func (m *AnalysisJobManager) CompleteJob(jobID string, a *dca.Analyser, results []dca.Result) {
	m.updateJob(jobID, func(job *AnalysisJob) {
		job.Status = AnalysisJobCompleted
		job.analyser = a
		job.results = results
	})
}

// FailJob records a failure and attaches a user-facing error message.
func (m *AnalysisJobManager) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *AnalysisJob) {
		job.Status = AnalysisJobFailed
		job.Error = err.Error()
	})
}

// GetJob returns a copy of the job so callers can read it without holding the lock.
func (m *AnalysisJobManager) GetJob(jobID string) (AnalysisJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return AnalysisJob{}, false
	}
	return *job, true
}

// Results returns the completed job's results. They are never modified after completion.
func (j AnalysisJob) Results() []dca.Result { return j.results }

func (m *AnalysisJobManager) updateJob(jobID string, update func(job *AnalysisJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}

package handler

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/calypso/pkg/dca"
)

func TestAnalysisJobLifecycle(t *testing.T) {
	m := NewAnalysisJobManager()
	job := m.NewJob([]string{"A", "B"}, "", "edger", dca.DefaultThresholds(), 5)
	assert.Equal(t, AnalysisJobQueued, job.Status)
	assert.Len(t, job.ID, 36)

	m.SetRunning(job.ID)
	got, ok := m.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, AnalysisJobRunning, got.Status)
	assert.Nil(t, got.Results())

	results := []dca.Result{{Gene: "g1", Classification: dca.OverCovered}}
	m.CompleteJob(job.ID, nil, results)
	got, _ = m.GetJob(job.ID)
	assert.Equal(t, AnalysisJobCompleted, got.Status)
	assert.Equal(t, results, got.Results())
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	other := m.NewJob([]string{"A", "C"}, "", "fisher", dca.DefaultThresholds(), 0)
	m.FailJob(other.ID, errors.New("no replication"))
	got, _ = m.GetJob(other.ID)
	assert.Equal(t, AnalysisJobFailed, got.Status)
	assert.Equal(t, "no replication", got.Error)

	_, ok = m.GetJob("unknown")
	assert.False(t, ok)

	first, _ := m.GetJob(job.ID)
	second, _ := m.GetJob(job.ID)
	assert.Same(t, first.exportMu, second.exportMu)
	assert.NotSame(t, first.exportMu, got.exportMu)
	m.SetRunning("unknown")
}

func TestAnalysisJobCopiesAreIsolated(t *testing.T) {
	m := NewAnalysisJobManager()
	groups := []string{"A", "B"}
	job := m.NewJob(groups, "", "edger", dca.DefaultThresholds(), 0)
	groups[0] = "changed"

	got, _ := m.GetJob(job.ID)
	assert.Equal(t, []string{"A", "B"}, got.Groups)

	got.Status = AnalysisJobFailed
	again, _ := m.GetJob(job.ID)
	assert.Equal(t, AnalysisJobQueued, again.Status)
}

func TestAnalysisJobManagerConcurrent(t *testing.T) {
	m := NewAnalysisJobManager()
	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := m.NewJob([]string{"A", "B"}, "", "edger", dca.DefaultThresholds(), 0)
			m.SetRunning(job.ID)
			m.CompleteJob(job.ID, nil, nil)
			ids[i] = job.ID
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		got, ok := m.GetJob(id)
		require.True(t, ok)
		assert.Equal(t, AnalysisJobCompleted, got.Status)
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

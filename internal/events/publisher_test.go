package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqcuong/triagebot/internal/jobs"
)

func TestEventJSON(t *testing.T) {
	runAt := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	job := jobs.NewCloseIssue("acme/repo", 42, runAt)

	event := Event{
		ID:           "evt-1",
		Kind:         KindJobScheduled,
		JobID:        job.ID,
		RepoFullName: job.RepoFullName,
		IssueNumber:  job.IssueNumber,
		RunAt:        &runAt,
		At:           time.Now(),
	}

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, "job.scheduled", decoded["kind"])
	assert.Equal(t, "acme/repo@@@42", decoded["job_id"])
	assert.Equal(t, float64(42), decoded["issue_number"])
	assert.NotContains(t, decoded, "error", "empty error must be omitted")
}

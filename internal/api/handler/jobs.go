package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type jobDTO struct {
	JobID        string `json:"job_id"`
	Action       string `json:"action"`
	RepoFullName string `json:"repo_full_name"`
	IssueNumber  int    `json:"issue_number"`
	RunAt        string `json:"run_at"`
}

// ListJobs handles GET /api/v1/jobs
// Returns every pending scheduled job, ordered by run time.
func (h *JobHandler) ListJobs(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	jobsResponse := make([]jobDTO, len(list))
	for i, job := range list {
		jobsResponse[i] = jobDTO{
			JobID:        job.ID,
			Action:       job.Action,
			RepoFullName: job.RepoFullName,
			IssueNumber:  job.IssueNumber,
			RunAt:        job.RunAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs": jobsResponse,
	})
}

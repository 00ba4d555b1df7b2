package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/pkg/response"
)

type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Status handles GET /api/status/:jobID for all job kinds.
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobID")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.jobs.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

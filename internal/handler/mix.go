package handler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/pkg/response"
)

type MixHandler struct {
	service        *service.MixService
	jobs           *service.JobService
	paths          storage.Paths
	maxUploadBytes int64
}

func NewMixHandler(svc *service.MixService, jobs *service.JobService, paths storage.Paths, maxUploadBytes int64) *MixHandler {
	return &MixHandler{
		service:        svc,
		jobs:           jobs,
		paths:          paths,
		maxUploadBytes: maxUploadBytes,
	}
}

// Mix handles POST /api/mix: accept two or more audio files and start a
// mix job over them.
func (h *MixHandler) Mix(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "Invalid multipart form", nil)
	}

	files := form.File["files"]
	if len(files) < 2 {
		return response.ValidationError(c, "At least 2 audio files are required for mixing", nil)
	}
	for _, file := range files {
		if !validAudioExt(file.Filename) {
			return response.ValidationError(c, "Only .mp3 and .wav files are supported", nil)
		}
	}

	token := uploadToken()
	var saved []string
	for i, file := range files {
		dest := h.paths.UploadPath(fmt.Sprintf("%s_%d", token, i), file.Filename)
		if err := saveUpload(c, file, dest, h.maxUploadBytes); err != nil {
			// One oversized or unwritable file voids the whole submission.
			for _, p := range saved {
				os.Remove(p)
			}
			if errors.Is(err, errFileTooLarge) {
				return response.PayloadTooLarge(c, tooLargeMessage(h.maxUploadBytes), nil)
			}
			return response.ServiceError(c, err.Error())
		}
		saved = append(saved, dest)
	}

	job, err := h.service.Start(c.Context(), saved)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.EnqueueResponse{JobID: job.ID})
}

// DownloadMixed handles GET /api/download_mixed/:jobID.
func (h *MixHandler) DownloadMixed(c *fiber.Ctx) error {
	return downloadArtifact(c, h.jobs, h.paths.MixedDir, storage.MixedFileName)
}

// downloadArtifact serves the single output file of a done mix or karaoke
// job. Jobs that are still processing or failed expose nothing.
func downloadArtifact(c *fiber.Ctx, jobs *service.JobService, dir func(string) string, filename string) error {
	jobID := c.Params("jobID")
	if !safePathParam(jobID) {
		return response.ValidationError(c, "Invalid job ID", nil)
	}

	job, err := jobs.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	if job.Status != model.JobStatusDone {
		return response.JobNotReady(c, "Job not completed yet")
	}

	path := filepath.Join(dir(jobID), job.Output)
	if _, err := os.Stat(path); err != nil {
		return response.NotFound(c, "File not found")
	}

	return c.Download(path, filename)
}

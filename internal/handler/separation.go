package handler

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/pkg/response"
)

type SeparationHandler struct {
	service        *service.SeparationService
	paths          storage.Paths
	maxUploadBytes int64
}

func NewSeparationHandler(svc *service.SeparationService, paths storage.Paths, maxUploadBytes int64) *SeparationHandler {
	return &SeparationHandler{
		service:        svc,
		paths:          paths,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload handles POST /api/upload: accept one audio file and start a
// separation job for it.
func (h *SeparationHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}
	if !validAudioExt(file.Filename) {
		return response.ValidationError(c, "Only .mp3 and .wav files are supported", nil)
	}

	dest := h.paths.UploadPath(uploadToken(), file.Filename)
	if err := saveUpload(c, file, dest, h.maxUploadBytes); err != nil {
		if errors.Is(err, errFileTooLarge) {
			return response.PayloadTooLarge(c, tooLargeMessage(h.maxUploadBytes), nil)
		}
		return response.ServiceError(c, err.Error())
	}

	job, err := h.service.Start(c.Context(), dest)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.EnqueueResponse{JobID: job.ID})
}

// Download handles GET /api/download/:jobID/:filename: fetch one produced
// stem file.
func (h *SeparationHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobID")
	filename := c.Params("filename")
	if !safePathParam(jobID) || !safePathParam(filename) {
		return response.ValidationError(c, "Invalid download path", nil)
	}

	path := filepath.Join(h.paths.SeparationDir(jobID), filename)
	if _, err := os.Stat(path); err != nil {
		return response.NotFound(c, "File not found")
	}

	return c.Download(path, filename)
}

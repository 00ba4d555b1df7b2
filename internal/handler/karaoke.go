package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/pkg/response"
)

type KaraokeHandler struct {
	service        *service.KaraokeService
	jobs           *service.JobService
	paths          storage.Paths
	maxUploadBytes int64
}

func NewKaraokeHandler(svc *service.KaraokeService, jobs *service.JobService, paths storage.Paths, maxUploadBytes int64) *KaraokeHandler {
	return &KaraokeHandler{
		service:        svc,
		jobs:           jobs,
		paths:          paths,
		maxUploadBytes: maxUploadBytes,
	}
}

// Karaoke handles POST /api/karaoke: accept one audio file and start a
// vocal-removal job for it.
func (h *KaraokeHandler) Karaoke(c *fiber.Ctx) error {
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

// DownloadKaraoke handles GET /api/download_karaoke/:jobID.
func (h *KaraokeHandler) DownloadKaraoke(c *fiber.Ctx) error {
	return downloadArtifact(c, h.jobs, h.paths.KaraokeDir, storage.KaraokeFileName)
}

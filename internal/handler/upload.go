package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errFileTooLarge marks an upload rejected by the size limit.
var errFileTooLarge = errors.New("file too large")

// validAudioExt reports whether the filename carries an accepted input
// container suffix (.mp3 or .wav, case-insensitive).
func validAudioExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

// uploadToken returns a short token used to keep concurrent uploads apart
// in the shared uploads directory.
func uploadToken() string {
	return uuid.New().String()[:8]
}

// saveUpload writes one multipart file to dest and enforces the size limit
// after the write: the file is saved, measured and deleted on overflow.
func saveUpload(c *fiber.Ctx, file *multipart.FileHeader, dest string, maxBytes int64) error {
	if err := c.SaveFile(file, dest); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to stat upload: %w", err)
	}
	if info.Size() > maxBytes {
		os.Remove(dest)
		return errFileTooLarge
	}
	return nil
}

// safePathParam rejects path parameters that could escape their directory.
func safePathParam(value string) bool {
	return value != "" && value == filepath.Base(value) && !strings.Contains(value, "..")
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Max allowed is %d MB", maxBytes/(1024*1024))
}

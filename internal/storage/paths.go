// Package storage defines the on-disk layout shared by handlers and
// workers: one uploads area plus one output directory per job.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fixed output file names for single-artifact jobs.
const (
	MixedFileName   = "mixed.wav"
	KaraokeFileName = "karaoke.wav"
)

// Paths generates every filesystem location the jobs touch, rooted at a
// single data directory.
type Paths struct {
	Root string
}

func NewPaths(root string) Paths {
	return Paths{Root: root}
}

// EnsureDirs creates the top-level directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.UploadsDir(), p.SeparatedDir(), p.MixedRoot(), p.KaraokeRoot()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (p Paths) UploadsDir() string {
	return filepath.Join(p.Root, "uploads")
}

func (p Paths) SeparatedDir() string {
	return filepath.Join(p.Root, "separated")
}

func (p Paths) MixedRoot() string {
	return filepath.Join(p.Root, "mixed")
}

func (p Paths) KaraokeRoot() string {
	return filepath.Join(p.Root, "karaoke")
}

// UploadPath is where one submitted file is saved. The token keeps uploads
// from unrelated submissions apart.
func (p Paths) UploadPath(token, filename string) string {
	return filepath.Join(p.UploadsDir(), fmt.Sprintf("%s_%s", token, filepath.Base(filename)))
}

// SeparationDir is the per-job output directory for separation stems.
func (p Paths) SeparationDir(jobID string) string {
	return filepath.Join(p.SeparatedDir(), jobID)
}

// KaraokeTempDir is the private separation scratch directory for one
// karaoke job. It is removed once the job's instrumental is produced.
func (p Paths) KaraokeTempDir(jobID string) string {
	return filepath.Join(p.SeparatedDir(), fmt.Sprintf("karaoke_%s", jobID))
}

// MixedDir is the per-job output directory for a mix job.
func (p Paths) MixedDir(jobID string) string {
	return filepath.Join(p.MixedRoot(), jobID)
}

// KaraokeDir is the per-job output directory for a karaoke job.
func (p Paths) KaraokeDir(jobID string) string {
	return filepath.Join(p.KaraokeRoot(), jobID)
}

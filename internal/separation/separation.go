// Package separation wraps the external source-separation model. The model
// is a black box invoked once per call; this package's own job is turning
// its output directory into a canonical set of named stem files.
package separation

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Canonical stem source names produced by the separation model.
const (
	StemDrums  = "drums"
	StemBass   = "bass"
	StemOther  = "other"
	StemVocals = "vocals"
)

// InstrumentalStems are the stems summed for instrumental reconstruction;
// vocals is deliberately excluded.
var InstrumentalStems = []string{StemDrums, StemBass, StemOther}

var knownStems = map[string]bool{
	StemDrums:  true,
	StemBass:   true,
	StemOther:  true,
	StemVocals: true,
}

var audioSuffixes = map[string]bool{
	".wav": true,
	".mp3": true,
}

// Stem is one separated source file.
type Stem struct {
	Name string
	Path string
}

// Separator separates one input file into named stems under outDir.
type Separator interface {
	Separate(ctx context.Context, inputPath, outDir string) ([]Stem, error)
}

// CommandRunner abstracts process execution so the adapter is testable
// without a model install.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DemucsAdapter invokes the demucs CLI for separation.
type DemucsAdapter struct {
	binPath string
	device  string
	runner  CommandRunner
}

var _ Separator = (*DemucsAdapter)(nil)

// NewDemucsAdapter creates an adapter around the demucs binary at binPath,
// running inference on the given device ("cpu" or "cuda").
func NewDemucsAdapter(binPath, device string) *DemucsAdapter {
	return &DemucsAdapter{
		binPath: binPath,
		device:  device,
		runner:  execRunner{},
	}
}

// NewDemucsAdapterWithRunner is like NewDemucsAdapter with a custom runner.
func NewDemucsAdapterWithRunner(binPath, device string, runner CommandRunner) *DemucsAdapter {
	return &DemucsAdapter{
		binPath: binPath,
		device:  device,
		runner:  runner,
	}
}

func (a *DemucsAdapter) Separate(ctx context.Context, inputPath, outDir string) ([]Stem, error) {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve input path %s: %w", inputPath, err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve output dir %s: %w", outDir, err)
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output dir %s: %w", absOut, err)
	}

	args := []string{"-o", absOut, "--mp3", "-d", a.device, "--filename", "{stem}.{ext}", absInput}
	output, err := a.runner.CombinedOutput(ctx, a.binPath, args...)
	if err != nil {
		return nil, fmt.Errorf("separation model failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return CollectStems(absOut)
}

// CollectStems resolves a separation output directory into the canonical
// stem set: files with a recognized audio suffix whose base name matches a
// known source name. Unrelated files are ignored. Results are sorted by
// file name.
func CollectStems(dir string) ([]Stem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read separation output dir: %w", err)
	}

	var stems []Stem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !audioSuffixes[ext] {
			continue
		}

		stemName := strings.TrimSuffix(name, filepath.Ext(name))
		if !knownStems[stemName] {
			continue
		}

		stems = append(stems, Stem{
			Name: stemName,
			Path: filepath.Join(dir, name),
		})
	}

	if len(stems) == 0 {
		return nil, fmt.Errorf("no recognized stems found in %s", dir)
	}

	sort.Slice(stems, func(i, j int) bool {
		return filepath.Base(stems[i].Path) < filepath.Base(stems[j].Path)
	})
	return stems, nil
}

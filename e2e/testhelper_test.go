package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/audiosplit/api/internal/audio"
	"github.com/audiosplit/api/internal/handler"
	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/separation"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/internal/worker"
)

// fakeSeparator stands in for the demucs process and writes constant-valued
// WAV stems into the output dir.
type fakeSeparator struct {
	stems map[string]float64
}

func allStems() map[string]float64 {
	return map[string]float64{
		separation.StemDrums:  0.3,
		separation.StemBass:   0.3,
		separation.StemOther:  0.3,
		separation.StemVocals: 0.6,
	}
}

func (s *fakeSeparator) Separate(ctx context.Context, inputPath, outDir string) ([]separation.Stem, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	for name, value := range s.stems {
		buf := audio.NewBuffer(44100, 2, 200)
		for ch := range buf.Samples {
			for i := range buf.Samples[ch] {
				buf.Samples[ch][i] = value
			}
		}
		if err := audio.WriteWAV(filepath.Join(outDir, name+".wav"), buf); err != nil {
			return nil, err
		}
	}
	return separation.CollectStems(outDir)
}

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	store registry.Store
	paths storage.Paths
}

func setupApp(t *testing.T) *testApp {
	return setupAppWith(t, &fakeSeparator{stems: allStems()}, 100*1024*1024)
}

// setupAppWith creates a Fiber app identical to main.go but in-memory only:
// no Redis, an in-process worker pool, and a fake separation model.
func setupAppWith(t *testing.T, separator separation.Separator, maxUploadBytes int64) *testApp {
	t.Helper()

	paths := storage.NewPaths(t.TempDir())
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("failed to prepare data dirs: %v", err)
	}

	store := registry.NewMemoryStore()

	separationWorker := worker.NewSeparationWorker(store, separator, paths, nil)
	mixWorker := worker.NewMixWorker(store, paths, nil)
	karaokeWorker := worker.NewKaraokeWorker(store, separator, paths, nil)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeSeparation, separationWorker.ProcessTask)
	mux.HandleFunc(queue.TaskTypeMix, mixWorker.ProcessTask)
	mux.HandleFunc(queue.TaskTypeKaraoke, karaokeWorker.ProcessTask)

	dispatcher := queue.NewLocalDispatcher(mux, 4)

	separationService := service.NewSeparationService(store, dispatcher)
	mixService := service.NewMixService(store, dispatcher)
	karaokeService := service.NewKaraokeService(store, dispatcher)
	jobService := service.NewJobService(store)

	separationHandler := handler.NewSeparationHandler(separationService, paths, maxUploadBytes)
	mixHandler := handler.NewMixHandler(mixService, jobService, paths, maxUploadBytes)
	karaokeHandler := handler.NewKaraokeHandler(karaokeService, jobService, paths, maxUploadBytes)
	jobHandler := handler.NewJobHandler(jobService)

	app := fiber.New(fiber.Config{
		BodyLimit: 1024 * 1024 * 1024,
	})

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(model.HealthResponse{Status: "healthy"})
	})

	api.Post("/upload", separationHandler.Upload)
	api.Get("/status/:jobID", jobHandler.Status)
	api.Get("/download/:jobID/:filename", separationHandler.Download)

	api.Post("/mix", mixHandler.Mix)
	api.Get("/download_mixed/:jobID", mixHandler.DownloadMixed)

	api.Post("/karaoke", karaokeHandler.Karaoke)
	api.Get("/download_karaoke/:jobID", karaokeHandler.DownloadKaraoke)

	return &testApp{app: app, store: store, paths: paths}
}

// wavBytes encodes a short stereo buffer so uploads carry decodable audio.
func wavBytes(t *testing.T, rate, frames int, value float64) []byte {
	t.Helper()
	buf := audio.NewBuffer(rate, 2, frames)
	for ch := range buf.Samples {
		for i := range buf.Samples[ch] {
			buf.Samples[ch][i] = value
		}
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := audio.WriteWAV(path, buf); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav: %v", err)
	}
	return data
}

type uploadFile struct {
	field    string
	filename string
	data     []byte
}

// multipartRequest builds a multipart/form-data request with the given files.
func multipartRequest(t *testing.T, path string, files []uploadFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		partHeader := make(textproto.MIMEHeader)
		partHeader.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		partHeader.Set("Content-Type", "audio/wav")
		part, err := writer.CreatePart(partHeader)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// doRequest performs a plain HTTP request against the test app.
func doRequest(app *fiber.App, method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		return nil, err
	}
	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// submitJob posts the request and returns the job id from the response.
func submitJob(t *testing.T, ta *testApp, req *http.Request) string {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected 'job_id' in response, got %v", body)
	}
	return jobID
}

// waitForJob polls the status endpoint until the job reaches a terminal state.
func waitForJob(t *testing.T, ta *testApp, jobID string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := doRequest(ta.app, http.MethodGet, "/api/status/"+jobID)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusOK)
		body := parseJSON(t, resp)
		if status, _ := body["status"].(string); status != string(model.JobStatusProcessing) {
			return body
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return nil
}

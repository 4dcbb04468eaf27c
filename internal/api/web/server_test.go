package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	app "colorify/internal/application"
	"colorify/internal/domain/entity"
	"colorify/internal/infrastructure/observability"
	"colorify/internal/infrastructure/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeColorizer struct {
	ready  bool
	result entity.ColorizeResult
	err    error
	calls  int
	inputs []string
}

func (f *fakeColorizer) Ready() bool { return f.ready }

func (f *fakeColorizer) Colorize(ctx context.Context, path string) (entity.ColorizeResult, error) {
	f.calls++
	f.inputs = append(f.inputs, path)
	return f.result, f.err
}

type fakeModels struct{ info app.ModelInfo }

func (f fakeModels) Info() app.ModelInfo { return f.info }

func newTestServer(t *testing.T, colorizer *fakeColorizer, models fakeModels) (*Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	srv, err := NewServer(Options{
		Colorizer: colorizer,
		Models:    models,
		Results:   storage.NewMemoryResultRepository(),
		Metrics:   observability.NewMetrics().Handler(),
		UploadDir: t.TempDir(),
		Log:       logger,
	})
	require.NoError(t, err)
	return srv, hook
}

func uploadRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/colorize", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestIndex_RendersPage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeColorizer{}, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Colorify")
	require.Contains(t, body, `name="image"`)
	require.Contains(t, body, "Colorize</button>")
}

func TestColorize_NoImageDoesNothing(t *testing.T) {
	colorizer := &fakeColorizer{ready: true}
	srv, _ := newTestServer(t, colorizer, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "", "", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, colorizer.calls)
}

func TestColorize_NotReadyLogsAndLeavesOutput(t *testing.T) {
	colorizer := &fakeColorizer{ready: false}
	srv, hook := newTestServer(t, colorizer, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "image", "bw.png", []byte("png")))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, colorizer.calls)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Model is still loading... Please wait." {
			logged = true
		}
	}
	require.True(t, logged)
}

func TestColorize_SuccessServesResult(t *testing.T) {
	resultPath := filepath.Join(t.TempDir(), "colorify_image.png")
	require.NoError(t, os.WriteFile(resultPath, []byte("\x89PNG fake"), 0o644))

	colorizer := &fakeColorizer{ready: true, result: entity.ColorizeResult{Path: resultPath, Message: entity.MsgSuccess}}
	srv, _ := newTestServer(t, colorizer, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "image", "bw.png", []byte("uploaded-bytes")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Загрузка сохранена во временный файл с исходным именем.
	require.Len(t, colorizer.inputs, 1)
	require.Equal(t, "bw.png", filepath.Base(colorizer.inputs[0]))
	data, err := os.ReadFile(colorizer.inputs[0])
	require.NoError(t, err)
	require.Equal(t, "uploaded-bytes", string(data))

	var resp struct {
		ImageURL *string `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.ImageURL)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, *resp.ImageURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "\x89PNG fake", rec.Body.String())
}

func TestColorize_FailureClearsOutput(t *testing.T) {
	colorizer := &fakeColorizer{
		ready:  true,
		result: entity.ColorizeResult{Message: entity.MsgReadFailed},
		err:    &entity.ColorizeError{Kind: entity.KindDecodeFailed, Err: errors.New("bad")},
	}
	srv, _ := newTestServer(t, colorizer, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "image", "notes.txt", []byte("text")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"image_url": null}`, rec.Body.String())
}

func TestResult_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t, &fakeColorizer{}, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	cases := []struct {
		name  string
		info  app.ModelInfo
		code  int
		state string
	}{
		{"loading", app.ModelInfo{State: entity.StateLoading}, http.StatusServiceUnavailable, "loading"},
		{"ready", app.ModelInfo{State: entity.StateReady, LoadTook: 2 * time.Second}, http.StatusOK, "ready"},
		{"failed", app.ModelInfo{State: entity.StateFailed, Error: "no runtime"}, http.StatusServiceUnavailable, "failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeColorizer{}, fakeModels{info: tc.info})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.code, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.state, body["model_state"])
			if tc.info.Error != "" {
				require.Equal(t, tc.info.Error, body["error"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeColorizer{}, fakeModels{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "colorify_model_state")
}

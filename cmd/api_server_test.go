package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rm-hull/border-filters/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	routerOnce sync.Once
	router     *gin.Engine
	routerRoot string
	routerErr  error
)

// testRouter shares one router across tests since the metrics middleware
// registers its collectors globally.
func testRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	routerOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		routerRoot, routerErr = os.MkdirTemp("", "border-filters-api-*")
		if routerErr != nil {
			return
		}
		opts := DefaultFilterOptions()
		opts.Engine = "native"
		opts.RecordLog = filepath.Join(routerRoot, "FilterRecord.log")
		router, routerErr = NewRouter(routerRoot, false, opts)
	})
	require.NoError(t, routerErr)
	return router, routerRoot
}

func uploadRequest(t *testing.T, url, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func impulsePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(2, 2, color.Gray{Y: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCatalogue(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/filters", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CatalogueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Filters, 2)
	assert.Equal(t, "boxFilter", resp.Filters[0].Name)
	assert.Equal(t, 2, resp.Filters[1].Id)
	require.Len(t, resp.GaussMasks, 11)
	assert.Equal(t, "1x3", resp.GaussMasks[0].Size)
	assert.Equal(t, "15x15", resp.GaussMasks[10].Size)
	assert.Equal(t, []string{"native", "bild"}, resp.Engines)
	assert.Equal(t, 5, resp.Defaults.MaskSize)
}

func TestFilterEndpoint_Impulse(t *testing.T) {
	r, root := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/v1/filter?filter=box&mask_size=3&anchor=1", "impulse.png", impulsePNG(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "native", w.Header().Get("X-Filter-Engine"))
	assert.Equal(t, "/v1/results/boxFilter/impulse_boxFilter.png", w.Header().Get("Content-Location"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(28), gray.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)

	assert.FileExists(t, filepath.Join(root, "boxFilter", "impulse_boxFilter.png"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/results/boxFilter/impulse_boxFilter.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFilterEndpoint_Gauss(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/v1/filter?filter=2&mask_size=4&engine=bild", "dot.png", impulsePNG(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bild", w.Header().Get("X-Filter-Engine"))
	assert.Equal(t, "/v1/results/gaussFilter/dot_gaussFilter.png", w.Header().Get("Content-Location"))
}

func TestFilterEndpoint_Errors(t *testing.T) {
	r, _ := testRouter(t)

	tests := []struct {
		name     string
		url      string
		filename string
		body     []byte
		want     int
	}{
		{"bad mask size", "/v1/filter?mask_size=five", "a.png", impulsePNG(t), http.StatusBadRequest},
		{"unknown filter", "/v1/filter?filter=median", "a.png", impulsePNG(t), http.StatusBadRequest},
		{"anchor outside mask", "/v1/filter?mask_size=3&anchor=3", "a.png", impulsePNG(t), http.StatusBadRequest},
		{"unknown engine", "/v1/filter?engine=cuda", "a.png", impulsePNG(t), http.StatusBadRequest},
		{"not an image", "/v1/filter", "notes.txt", []byte("hello"), http.StatusUnsupportedMediaType},
		{"corrupt png", "/v1/filter", "broken.png", []byte("\x89PNG\r\n\x1a\nnope"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, tt.url, tt.filename, tt.body))
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	t.Run("missing upload", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/filter", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWritableDirCheck(t *testing.T) {
	assert.True(t, (&writableDirCheck{dir: t.TempDir()}).Pass())
	assert.False(t, (&writableDirCheck{dir: filepath.Join(t.TempDir(), "missing")}).Pass())
}

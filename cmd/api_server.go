package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rm-hull/border-filters/internal"
	"github.com/rm-hull/border-filters/internal/batch"
	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/convolve"
	"github.com/rm-hull/border-filters/internal/device"
	"github.com/rm-hull/border-filters/internal/filter"
	"github.com/rm-hull/border-filters/internal/imageio"
	"github.com/rm-hull/border-filters/internal/models"
	"github.com/rm-hull/border-filters/internal/pixel"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

func ApiServer(rootDir string, port int, debug bool, opts FilterOptions) {
	internal.ShowVersion()
	internal.EnvironmentVars("FILTER_", "DEVICE_", "GIN_")

	r, err := NewRouter(rootDir, debug, opts)
	if err != nil {
		log.Fatal(err)
	}

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP API Server failed to start on port %d: %v", port, err)
	}
}

// NewRouter builds the HTTP API. Filtered images are written below rootDir
// and served from /v1/results.
func NewRouter(rootDir string, debug bool, opts FilterOptions) (*gin.Engine, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root folder: %w", err)
	}

	h := &filterHandler{
		rootDir: rootDir,
		opts:    opts,
		dev:     opts.NewDevice(),
		record:  batch.NewRecordLog(opts.RecordLog),
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		&writableDirCheck{dir: rootDir},
		&deviceCheck{dev: h.dev},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize healthcheck: %w", err)
	}

	r.GET("/v1/filters", h.catalogue)
	r.POST("/v1/filter", h.filter)
	r.Static("/v1/results", rootDir)

	return r, nil
}

type filterHandler struct {
	rootDir string
	opts    FilterOptions
	dev     *device.Device
	record  *batch.RecordLog
}

func (h *filterHandler) catalogue(c *gin.Context) {
	resp := models.CatalogueResponse{
		Filters: []models.Filter{
			{Id: int(filter.Box), Name: filter.Box.Name(), Description: "mean of a mask-sized window with replicated borders"},
			{Id: int(filter.Gauss), Name: filter.Gauss.Name(), Description: "centred Gaussian kernel with replicated borders"},
		},
		Engines: convolve.Names(),
		Defaults: models.Defaults{
			Filter:   filter.Box.Name(),
			MaskSize: filter.DefaultMaskSize,
			Anchor:   filter.DefaultMaskSize / 2,
			Engine:   h.opts.Engine,
		},
	}
	for _, m := range convolve.MaskSizes() {
		resp.GaussMasks = append(resp.GaussMasks, models.GaussMask{Ordinal: int(m), Size: m.String()})
	}
	for _, f := range codec.Formats() {
		resp.Formats = append(resp.Formats, models.Format{Name: f.String(), CanRead: f.SupportsReading(), CanWrite: f.SupportsWriting()})
	}
	c.JSON(http.StatusOK, resp)
}

// filter accepts a multipart "image" upload and responds with the filtered
// image. Query parameters mirror the command line flags.
func (h *filterHandler) filter(c *gin.Context) {
	opts, err := h.optionsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	cfg, err := opts.Config()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	engine, err := convolve.New(opts.Engine)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	upload, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing image upload: " + err.Error()})
		return
	}

	tmpDir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	in := filepath.Join(tmpDir, filepath.Base(upload.Filename))
	if err := c.SaveUploadedFile(upload, in); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	desc, img, err := imageio.Open(in)
	if err != nil {
		c.JSON(errorStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}

	out := filter.OutputPath(filepath.Join(h.rootDir, filepath.Base(in)), cfg.Type, desc.FileExt)

	processor, err := filter.NewProcessor(cfg, engine, h.dev)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := processor.Process(img, out, desc.Format)
	if err != nil {
		c.JSON(errorStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	if res.Skipped {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "16-bit images are not filtered"})
		return
	}

	if err := h.record.Append(upload.Filename, res.Output, cfg); err != nil {
		log.Printf("Error: %v", err)
	}

	rel, _ := filepath.Rel(h.rootDir, res.Output)
	c.Header("X-Filter-Engine", res.Engine)
	c.Header("Content-Location", "/v1/results/"+filepath.ToSlash(rel))
	c.File(res.Output)
}

func (h *filterHandler) optionsFromQuery(c *gin.Context) (FilterOptions, error) {
	opts := h.opts
	opts.Filter = c.DefaultQuery("filter", opts.Filter)
	opts.Engine = c.DefaultQuery("engine", opts.Engine)

	ints := []struct {
		name string
		dst  *int
	}{
		{"mask_size", &opts.MaskSize},
		{"offset", &opts.SrcOffset},
		{"anchor", &opts.Anchor},
	}
	for _, p := range ints {
		v, ok := c.GetQuery(p.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return FilterOptions{}, fmt.Errorf("invalid %s %q: %w", p.name, v, err)
		}
		*p.dst = n
	}
	return opts, nil
}

func errorStatus(err error) int {
	var (
		formatErr      *codec.UnsupportedFormatError
		decodeErr      *codec.DecodeError
		depthErr       *pixel.UnsupportedDepthError
		deviceAllocErr *device.AllocationError
	)
	switch {
	case errors.As(err, &formatErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &decodeErr), errors.As(err, &depthErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &deviceAllocErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type writableDirCheck struct {
	dir string
}

func (w *writableDirCheck) Pass() bool {
	f, err := os.CreateTemp(w.dir, ".healthz-*")
	if err != nil {
		return false
	}
	_ = f.Close()
	return os.Remove(f.Name()) == nil
}

func (w *writableDirCheck) Name() string {
	return "root-writable"
}

type deviceCheck struct {
	dev *device.Device
}

// Pass reports whether the device has room for another image.
func (d *deviceCheck) Pass() bool {
	limit := d.dev.MemoryLimit()
	if limit == 0 {
		return true
	}
	img, err := d.dev.NewImage(1, 1, 1)
	if err != nil {
		return false
	}
	img.Free()
	return true
}

func (d *deviceCheck) Name() string {
	return "device-memory"
}

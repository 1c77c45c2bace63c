// Package server exposes the comparison pipeline over HTTP.
package server

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benedoc-inc/overlap"
	"github.com/benedoc-inc/overlap/internal/config"
	"github.com/benedoc-inc/overlap/internal/pipeline"
	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

const (
	resultsPrefix   = "/results/"
	requestIDHeader = "X-Request-ID"
)

// Server serves comparisons and the files they produce
type Server struct {
	app     *fiber.App
	cfg     config.Config
	store   storage.Store
	factory func(config.Config) *pipeline.Pipeline
	logger  *zap.Logger
}

// New builds the fiber app. factory returns a pipeline for a request's
// effective configuration; outputs are read back from store.
func New(cfg config.Config, store storage.Store, factory func(config.Config) *pipeline.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, store: store, factory: factory, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "overlap",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Header:    requestIDHeader,
		Generator: uuid.NewString,
	}))
	s.app.Use(s.accessLog)

	s.app.Get("/health", s.health)
	api := s.app.Group("/api/v1")
	api.Post("/compare/text", s.compareText)
	api.Post("/compare/images", s.compareImages)
	s.app.Get(resultsPrefix+"*", s.results)
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on the configured address until Shutdown
func (s *Server) Listen() error {
	s.logger.Info("server listening", zap.String("addr", s.cfg.Server.Addr))
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown stops accepting requests and waits up to timeout for running ones
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", c.GetRespHeader(requestIDHeader)))
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": overlap.Version(),
	})
}

// requestConfig applies per-request overrides from form values
func (s *Server) requestConfig(c *fiber.Ctx) (config.Config, error) {
	cfg := s.cfg
	if v := strings.TrimSpace(c.FormValue("min_length")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, types.WrapError(types.ErrCodeInvalidConfiguration, "min_length must be an integer", err).
				WithContext("value", v)
		}
		cfg.MinLength = n
	}
	if v := c.FormValue("normalizer"); v != "" {
		cfg.Normalizer = v
	}
	return cfg, cfg.Validate()
}

func (s *Server) compareText(c *fiber.Ctx) error {
	cfg, err := s.requestConfig(c)
	if err != nil {
		return err
	}
	a, b, err := uploads(c)
	if err != nil {
		return err
	}

	job := c.GetRespHeader(requestIDHeader)
	out, err := s.factory(cfg).CompareText(c.UserContext(), a, b, job)
	if out == nil {
		return err
	}
	resp := fiber.Map{
		"id":          job,
		"cached":      out.Cached,
		"comparison":  out.Result,
		"annotations": out.Annotations,
		"links":       links(job, out.Outputs, s.store),
	}
	if err != nil {
		resp["errors"] = errorMessages(err)
	}
	return c.JSON(resp)
}

func (s *Server) compareImages(c *fiber.Ctx) error {
	a, b, err := uploads(c)
	if err != nil {
		return err
	}
	setA, err := pipeline.ReadAssets(a)
	if err != nil {
		return err
	}
	setB, err := pipeline.ReadAssets(b)
	if err != nil {
		return err
	}

	job := c.GetRespHeader(requestIDHeader)
	out, err := s.factory(s.cfg).CompareImages(c.UserContext(), setA, setB, job)
	if out == nil {
		return err
	}
	resp := fiber.Map{
		"id":         job,
		"comparison": out.Result,
		"links":      links(job, out.Outputs, s.store),
	}
	if err != nil {
		resp["errors"] = errorMessages(err)
	}
	return c.JSON(resp)
}

func (s *Server) results(c *fiber.Ctx) error {
	p, err := storage.CleanPath(c.Params("*"))
	if err != nil {
		return fiber.ErrNotFound
	}
	ok, err := s.store.Exists(c.UserContext(), p)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.ErrNotFound
	}
	data, err := s.store.ReadFile(c.UserContext(), p)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, storage.ContentType(p))
	return c.Send(data)
}

func uploads(c *fiber.Ctx) (pipeline.Input, pipeline.Input, error) {
	a, err := upload(c, "source")
	if err != nil {
		return a, a, err
	}
	b, err := upload(c, "target")
	return a, b, err
}

func upload(c *fiber.Ctx, field string) (pipeline.Input, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return pipeline.Input{}, fiber.NewError(fiber.StatusBadRequest, "missing file field "+field)
	}
	data, err := readUpload(fh)
	if err != nil {
		return pipeline.Input{}, types.WrapError(types.ErrCodeIOError, "failed to read upload", err).
			WithContext("field", field)
	}
	return pipeline.Input{Name: fh.Filename, Data: data}, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// links maps written outputs to /results URLs. Only outputs below the job
// directory of the serving store are linkable.
func links(job string, outputs []string, store storage.Store) []string {
	var urls []string
	base := store.Location(job)
	for _, o := range outputs {
		rel, ok := strings.CutPrefix(o, base)
		rel = strings.ReplaceAll(strings.TrimLeft(rel, `/\`), `\`, "/")
		if ok && rel != "" {
			urls = append(urls, resultsPrefix+job+"/"+rel)
		}
	}
	return urls
}

func errorMessages(err error) []string {
	var msgs []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, errorMessages(e)...)
		}
		return msgs
	}
	return []string{err.Error()}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	requestID := c.GetRespHeader(requestIDHeader)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"code":       "HTTP_ERROR",
			"status":     fe.Code,
			"request_id": requestID,
		})
	}

	if e, ok := types.AsError(err); ok {
		status := statusFor(e.Code)
		if status >= fiber.StatusInternalServerError {
			s.logger.Error("request failed", zap.String("path", c.Path()), zap.String("request_id", requestID), zap.Error(err))
		}
		resp := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"status":     status,
			"request_id": requestID,
		}
		if len(e.Context) > 0 {
			resp["details"] = e.Context
		}
		return c.Status(status).JSON(resp)
	}

	s.logger.Error("request failed", zap.String("path", c.Path()), zap.String("request_id", requestID), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"status":     fiber.StatusInternalServerError,
		"request_id": requestID,
	})
}

func statusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrCodeInvalidConfiguration:
		return fiber.StatusBadRequest
	case types.ErrCodeUnsupportedFormat:
		return fiber.StatusUnsupportedMediaType
	case types.ErrCodeUnreadableDocument:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

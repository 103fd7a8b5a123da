package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/park285/fenshot/internal/batchstore"
	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/render"
	"github.com/park285/fenshot/pkg/exportdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Options struct {
	// Store serves batch status; nil disables the /v1/batches routes.
	Store  batchstore.Store
	Logger *zap.Logger
	// MaxBodySize caps request bodies; zero uses 64 KiB.
	MaxBodySize int
}

// Server exposes single-board export, FEN validation and batch status over HTTP.
type Server struct {
	exporter export.Exporter
	base     render.Config
	store    batchstore.Store
	logger   *zap.Logger
	maxBody  int
}

func NewServer(exp export.Exporter, base render.Config, opts Options) *Server {
	s := &Server{
		exporter: exp,
		base:     base,
		store:    opts.Store,
		logger:   opts.Logger,
		maxBody:  opts.MaxBodySize,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxBody <= 0 {
		s.maxBody = 64 << 10
	}
	return s
}

func (s *Server) newFastServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "fenshot",
		ReadTimeout:        30 * time.Second,
		MaxRequestBodySize: s.maxBody,
	}
}

// Serve handles connections from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.newFastServer()
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := srv.ShutdownWithContext(context.Background()); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.logger.Info("http_listening", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		path := string(ctx.Path())
		switch {
		case path == "/healthz":
			ctx.SetContentType("text/plain; charset=utf-8")
			ctx.SetBodyString("ok")
		case path == "/v1/render":
			s.handleRender(ctx)
		case path == "/v1/validate":
			s.handleValidate(ctx)
		case path == "/v1/random" && ctx.IsGet():
			writeJSON(ctx, fasthttp.StatusOK, exportdto.RandomResponse{FEN: fen.GenerateRandom()})
		case path == "/v1/batches" && ctx.IsGet():
			s.handleBatchList(ctx)
		case strings.HasPrefix(path, "/v1/batches/") && ctx.IsGet():
			s.handleBatch(ctx, strings.TrimPrefix(path, "/v1/batches/"))
		default:
			writeError(ctx, fasthttp.StatusNotFound, exportdto.DomainError{Code: exportdto.CodeNotFound, Message: "no route for " + path})
		}
		s.logger.Debug("http_request",
			zap.String("method", string(ctx.Method())),
			zap.String("path", path),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) handleRender(ctx *fasthttp.RequestCtx) {
	var req exportdto.RenderRequest
	switch {
	case ctx.IsPost():
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: "invalid JSON body: " + err.Error()})
			return
		}
	case ctx.IsGet():
		var err error
		if req, err = renderRequestFromQuery(ctx.QueryArgs()); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: err.Error()})
			return
		}
	default:
		ctx.Response.Header.Set("Allow", "GET, POST")
		writeError(ctx, fasthttp.StatusMethodNotAllowed, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: "method not allowed"})
		return
	}

	format := export.FormatPNG
	if strings.TrimSpace(req.Format) != "" {
		f, err := export.ParseFormat(req.Format)
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeUnknownFormat, Message: err.Error()})
			return
		}
		format = f
	}
	cfg, err := s.configFor(req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = export.DefaultBaseName
	}

	p, err := export.ExportOne(ctx, s.exporter, export.SinkFunc(func(context.Context, *export.Payload) error { return nil }), cfg, format, name, nil)
	if err != nil {
		s.writeExportError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(p.MIME)
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Filename()))
	if p.Quality.Effective > 0 {
		ctx.Response.Header.Set("X-Quality-Requested", strconv.Itoa(p.Quality.Requested))
		ctx.Response.Header.Set("X-Quality-Effective", strconv.Itoa(p.Quality.Effective))
	}
	if p.Quality.Reduced {
		s.logger.Info("http_quality_reduced", zap.Int("requested", p.Quality.Requested), zap.Int("effective", p.Quality.Effective))
	}
	ctx.SetBody(p.Data)
}

func (s *Server) writeExportError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, fen.ErrInvalidFEN):
		writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidFEN, Message: err.Error()})
	case errors.Is(err, render.ErrInvalidConfig):
		writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: err.Error()})
	case errors.Is(err, render.ErrSurfaceTooLarge):
		writeError(ctx, fasthttp.StatusUnprocessableEntity, exportdto.DomainError{Code: exportdto.CodeSurfaceTooLarge, Message: err.Error()})
	default:
		s.logger.Error("http_export_failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, exportdto.DomainError{Code: exportdto.CodeInternal, Message: "export failed", Retryable: true})
	}
}

// configFor overlays the non-zero request fields on the server's base configuration.
func (s *Server) configFor(req exportdto.RenderRequest) (render.Config, error) {
	cfg := s.base
	cfg.FEN = req.FEN
	if req.BoardSize != 0 {
		cfg.BoardSize = req.BoardSize
	}
	if req.Coordinates != nil {
		cfg.ShowCoordinates = *req.Coordinates
	}
	if req.Flipped {
		cfg.Flipped = true
	}
	if req.Quality != 0 {
		cfg.Quality = req.Quality
	}
	if strings.TrimSpace(req.Target) != "" {
		t, err := render.ParseTarget(req.Target)
		if err != nil {
			return cfg, err
		}
		cfg.Target = t
	}
	if req.LightColor != "" {
		cfg.LightColor = req.LightColor
	}
	if req.DarkColor != "" {
		cfg.DarkColor = req.DarkColor
	}
	if req.BorderColor != "" {
		cfg.BorderColor = req.BorderColor
	}
	return cfg, cfg.Validate()
}

func renderRequestFromQuery(q *fasthttp.Args) (exportdto.RenderRequest, error) {
	req := exportdto.RenderRequest{
		FEN:         string(q.Peek("fen")),
		Format:      string(q.Peek("format")),
		Name:        string(q.Peek("name")),
		Target:      string(q.Peek("target")),
		LightColor:  string(q.Peek("light")),
		DarkColor:   string(q.Peek("dark")),
		BorderColor: string(q.Peek("border")),
		Flipped:     q.GetBool("flipped"),
	}
	if q.Has("coords") {
		v := q.GetBool("coords")
		req.Coordinates = &v
	}
	if v := q.Peek("size"); len(v) > 0 {
		n, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return req, fmt.Errorf("size: %w", err)
		}
		req.BoardSize = n
	}
	if v := q.Peek("quality"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return req, fmt.Errorf("quality: %w", err)
		}
		req.Quality = n
	}
	return req, nil
}

func (s *Server) handleValidate(ctx *fasthttp.RequestCtx) {
	var req exportdto.ValidateRequest
	switch {
	case ctx.IsPost():
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: "invalid JSON body: " + err.Error()})
			return
		}
	case ctx.IsGet():
		req.FEN = string(ctx.QueryArgs().Peek("fen"))
	default:
		writeError(ctx, fasthttp.StatusMethodNotAllowed, exportdto.DomainError{Code: exportdto.CodeInvalidRequest, Message: "method not allowed"})
		return
	}
	resp := exportdto.ValidateResponse{Placement: fen.Validate(req.FEN)}
	if err := fen.ValidateRecord(req.FEN); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Record = true
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleBatchList(ctx *fasthttp.RequestCtx) {
	if s.store == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, exportdto.DomainError{Code: exportdto.CodeUnavailable, Message: "batch store not configured"})
		return
	}
	ids, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("batch_list_failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, exportdto.DomainError{Code: exportdto.CodeInternal, Message: "batch store error", Retryable: true})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, exportdto.BatchListResponse{IDs: ids})
}

func (s *Server) handleBatch(ctx *fasthttp.RequestCtx, id string) {
	if s.store == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, exportdto.DomainError{Code: exportdto.CodeUnavailable, Message: "batch store not configured"})
		return
	}
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		s.logger.Error("batch_load_failed", zap.String("session", id), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, exportdto.DomainError{Code: exportdto.CodeInternal, Message: "batch store error", Retryable: true})
		return
	}
	if snap == nil {
		writeError(ctx, fasthttp.StatusNotFound, exportdto.DomainError{Code: exportdto.CodeNotFound, Message: "unknown batch " + id})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToBatchStatus(snap))
}

// ToBatchStatus converts a stored snapshot to its wire form.
func ToBatchStatus(snap *batchstore.Snapshot) exportdto.BatchStatus {
	out := exportdto.BatchStatus{
		ID:         snap.ID,
		State:      snap.State,
		Total:      snap.Total,
		Succeeded:  snap.Succeeded,
		Failed:     snap.Failed,
		Progress:   snap.Fraction,
		CurrentJob: snap.CurrentJob,
		NotStarted: append([]int(nil), snap.NotStarted...),
		Finished:   snap.Finished(),
		UpdatedAt:  snap.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, j := range snap.Jobs {
		out.Jobs = append(out.Jobs, exportdto.BatchJob{
			Index:     j.Index,
			File:      j.Name + "." + export.Format(j.Format).Extension(),
			OK:        j.OK(),
			Error:     j.Error,
			Requested: j.Requested,
			Effective: j.Effective,
			Bytes:     j.Bytes,
		})
	}
	return out
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, e exportdto.DomainError) {
	writeJSON(ctx, status, e)
}

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/render"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrClipboardUnavailable = errors.New("no clipboard tool available")
)

// Sink delivers a finished payload somewhere outside the process.
type Sink interface {
	Deliver(ctx context.Context, p *Payload) error
}

type SinkFunc func(ctx context.Context, p *Payload) error

func (f SinkFunc) Deliver(ctx context.Context, p *Payload) error { return f(ctx, p) }

// DirSink writes each payload to Dir as {name}.{ext}, replacing existing files.
type DirSink struct {
	Dir string
}

func (d DirSink) Path(p *Payload) string {
	return filepath.Join(d.Dir, filepath.Base(p.Filename()))
}

func (d DirSink) Deliver(_ context.Context, p *Payload) error {
	if d.Dir != "" {
		if err := os.MkdirAll(d.Dir, 0o755); err != nil {
			return permissionError("create output directory", err)
		}
	}
	if err := os.WriteFile(d.Path(p), p.Data, 0o644); err != nil {
		return permissionError("write "+p.Filename(), err)
	}
	return nil
}

func permissionError(action string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: cannot %s: %v", ErrPermissionDenied, action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Clipboard places image bytes on the system clipboard.
type Clipboard interface {
	WriteImage(ctx context.Context, mime string, data []byte) error
}

// CommandClipboard pipes the image into an external clipboard tool.
type CommandClipboard struct {
	Path string
	Args func(mime string) []string
}

var clipboardTools = []struct {
	name string
	args func(mime string) []string
}{
	{"wl-copy", func(mime string) []string { return []string{"--type", mime} }},
	{"xclip", func(mime string) []string { return []string{"-selection", "clipboard", "-t", mime, "-i"} }},
}

// DetectClipboard returns the first supported clipboard tool found on PATH.
func DetectClipboard() (*CommandClipboard, error) {
	for _, tool := range clipboardTools {
		if path, err := exec.LookPath(tool.name); err == nil {
			return &CommandClipboard{Path: path, Args: tool.args}, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

func (c *CommandClipboard) WriteImage(ctx context.Context, mime string, data []byte) error {
	var args []string
	if c.Args != nil {
		args = c.Args(mime)
	}
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return permissionError("write clipboard", fmt.Errorf("%s: %w", msg, err))
	}
	return nil
}

// ExportOne validates cfg.FEN, encodes one image and delivers it.
func ExportOne(ctx context.Context, exp Exporter, sink Sink, cfg render.Config, format Format, name string, progress render.ProgressFunc) (*Payload, error) {
	if err := fen.Check(cfg.FEN); err != nil {
		return nil, err
	}
	p, err := exp.Export(ctx, cfg, format, name, progress)
	if err != nil {
		return nil, err
	}
	if err := sink.Deliver(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// CopyPNG renders cfg as PNG and writes it to the clipboard.
func CopyPNG(ctx context.Context, exp Exporter, clip Clipboard, cfg render.Config) (*Payload, error) {
	return ExportOne(ctx, exp, SinkFunc(func(ctx context.Context, p *Payload) error {
		return clip.WriteImage(ctx, p.MIME, p.Data)
	}), cfg, FormatPNG, "clipboard", nil)
}

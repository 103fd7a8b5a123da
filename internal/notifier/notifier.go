package notifier

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/msgcat"
	"go.uber.org/zap"
)

// Notifier turns export results into user-facing messages and hands them to send.
// It also works as an export.Listener for batch sessions.
type Notifier struct {
	export.NopListener

	cat    *msgcat.Catalog
	send   func(message string) error
	logger *zap.Logger

	mu      sync.Mutex
	total   int
	job     int
	done    int
	started bool
}

func New(cat *msgcat.Catalog, send func(message string) error, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{cat: cat, send: send, logger: logger}
}

func (n *Notifier) deliver(message string) error {
	if n == nil || n.send == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return n.send(message)
}

// Exported reports a delivered single export, plus a notice if quality was reduced.
func (n *Notifier) Exported(p *export.Payload) error {
	if p == nil {
		return nil
	}
	msg := n.cat.Text("export.done", map[string]any{
		"File":   p.Filename(),
		"Format": strings.ToUpper(p.Format.Extension()),
		"Size":   humanSize(len(p.Data)),
	}, "Saved "+p.Filename())
	if err := n.deliver(msg); err != nil {
		return err
	}
	if p.Quality.Reduced {
		return n.deliver(n.qualityReduced(p.Filename(), p.Quality.Requested, p.Quality.Effective))
	}
	return nil
}

// Copied reports the result of a clipboard copy.
func (n *Notifier) Copied(err error) error {
	if err == nil {
		return n.deliver(n.cat.Text("export.clipboard_done", nil, "Copied to clipboard."))
	}
	return n.deliver(n.cat.Text("export.clipboard_failed", map[string]any{"Reason": err.Error()},
		"Clipboard copy failed: "+err.Error()))
}

// ExportFailed reports one failed single export with a reason matched to the error kind.
func (n *Notifier) ExportFailed(file string, err error) error {
	return n.deliver(n.failureText(file, err))
}

func (n *Notifier) failureText(file string, err error) string {
	if err == nil {
		return ""
	}
	data := map[string]any{"File": file, "Reason": err.Error()}
	switch {
	case errors.Is(err, export.ErrPermissionDenied):
		return n.cat.Text("export.permission", data, "Permission denied: "+file)
	case errors.Is(err, fen.ErrInvalidFEN):
		return n.cat.Text("export.invalid_fen", data, "Invalid FEN: "+err.Error())
	}
	return n.cat.Text("export.failed", data, "Export failed: "+err.Error())
}

func (n *Notifier) qualityReduced(file string, requested, effective int) string {
	return n.cat.Text("quality.reduced", map[string]any{
		"File":      file,
		"Requested": requested,
		"Effective": effective,
	}, fmt.Sprintf("%s rendered at %dx", file, effective))
}

// SummaryText renders the end-of-batch outcome, one line per failed job.
func (n *Notifier) SummaryText(s export.Summary) string {
	data := map[string]any{
		"Succeeded":  s.Succeeded(),
		"Failed":     s.Failed(),
		"NotStarted": len(s.NotStarted),
		"Total":      s.Total,
	}
	var b strings.Builder
	if s.Cancelled {
		b.WriteString(n.cat.Text("batch.cancelled", data, "Batch cancelled."))
	} else {
		b.WriteString(n.cat.Text("batch.summary", data, "Batch finished."))
	}
	if reduced := len(s.Reduced()); reduced > 0 {
		b.WriteByte('\n')
		b.WriteString(n.cat.Text("batch.reduced", map[string]any{"Count": reduced},
			fmt.Sprintf("  %d file(s) rendered below the requested quality.", reduced)))
	}
	for _, o := range s.Outcomes {
		if o.OK() {
			continue
		}
		b.WriteByte('\n')
		file := o.Name + "." + o.Format.Extension()
		b.WriteString(n.cat.Text("batch.failure_line", map[string]any{"File": file, "Reason": o.Err.Error()},
			"  - "+file+": "+o.Err.Error()))
	}
	return b.String()
}

func (n *Notifier) StateChanged(_ string, st export.State) {
	var msg string
	switch st {
	case export.StatePaused:
		n.mu.Lock()
		data := map[string]any{"Job": n.job + 1, "Total": n.total}
		n.mu.Unlock()
		msg = n.cat.Text("batch.paused", data, "Batch paused.")
	case export.StateRunning:
		n.mu.Lock()
		resumed := n.total > 0
		n.mu.Unlock()
		if resumed {
			msg = n.cat.Text("batch.resumed", nil, "Batch resumed.")
		}
	}
	n.report(msg)
}

// Progress announces the batch on its first report and otherwise only tracks position.
func (n *Notifier) Progress(p export.Progress) {
	n.mu.Lock()
	n.total, n.job = p.Total, p.Job
	first := !n.started
	n.started = true
	n.mu.Unlock()
	if first {
		n.report(n.cat.Text("batch.started", map[string]any{"Total": p.Total},
			fmt.Sprintf("Exporting %d file(s)...", p.Total)))
	}
}

// JobFinished reports a reduced-quality render and then one progress line per job.
func (n *Notifier) JobFinished(_ string, o export.Outcome) {
	file := o.Name + "." + o.Format.Extension()
	if o.OK() && o.Quality.Reduced {
		n.report(n.qualityReduced(file, o.Quality.Requested, o.Quality.Effective))
	}
	n.mu.Lock()
	n.done++
	done, total := n.done, n.total
	n.mu.Unlock()
	if total <= 0 {
		return
	}
	n.report(n.cat.Text("batch.progress", map[string]any{
		"Percent": done * 100 / total,
		"Job":     done,
		"Total":   total,
		"Format":  strings.ToUpper(o.Format.Extension()),
	}, fmt.Sprintf("%d/%d", done, total)))
}

func (n *Notifier) BatchFinished(s export.Summary) {
	n.report(n.SummaryText(s))
	n.mu.Lock()
	n.total, n.job, n.done, n.started = 0, 0, 0, false
	n.mu.Unlock()
}

// report is deliver for listener callbacks, which cannot return errors.
func (n *Notifier) report(msg string) {
	if err := n.deliver(msg); err != nil {
		n.logger.Warn("notify_failed", zap.Error(err))
	}
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

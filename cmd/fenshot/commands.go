package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/fenshot/internal/batchstore"
	appcfg "github.com/park285/fenshot/internal/config"
	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/httpapi"
	"github.com/park285/fenshot/internal/msgcat"
	"github.com/park285/fenshot/internal/notifier"
	"github.com/park285/fenshot/internal/pieces"
	"github.com/park285/fenshot/internal/render"
	"github.com/park285/fenshot/pkg/exportdto"
	"go.uber.org/zap"
)

type app struct {
	cfg    *appcfg.AppConfig
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// renderFlags are the board options shared by render and batch.
type renderFlags struct {
	size     float64
	coords   bool
	flipped  bool
	quality  int
	target   string
	light    string
	dark     string
	border   string
	outDir   string
	basename string
}

func (a *app) bindRenderFlags(fs *flag.FlagSet) *renderFlags {
	rf := &renderFlags{}
	fs.Float64Var(&rf.size, "size", a.cfg.BoardSize, "board edge in logical pixels")
	fs.BoolVar(&rf.coords, "coords", a.cfg.ShowCoordinates, "draw rank and file labels")
	fs.BoolVar(&rf.flipped, "flipped", a.cfg.Flipped, "view from black's side")
	fs.IntVar(&rf.quality, "quality", a.cfg.Quality, "requested resolution multiplier")
	fs.StringVar(&rf.target, "target", a.cfg.Target, "palette target: export or display")
	fs.StringVar(&rf.light, "light", a.cfg.LightColor, "light square color")
	fs.StringVar(&rf.dark, "dark", a.cfg.DarkColor, "dark square color")
	fs.StringVar(&rf.border, "border", a.cfg.BorderColor, "border color (default depends on target)")
	fs.StringVar(&rf.outDir, "out", a.cfg.OutputDir, "output directory")
	fs.StringVar(&rf.basename, "name", export.DefaultBaseName, "output file base name")
	return rf
}

func (rf *renderFlags) apply(cfg render.Config) (render.Config, error) {
	target, err := render.ParseTarget(rf.target)
	if err != nil {
		return cfg, err
	}
	cfg.BoardSize = rf.size
	cfg.ShowCoordinates = rf.coords
	cfg.Flipped = rf.flipped
	cfg.Quality = rf.quality
	cfg.Target = target
	cfg.LightColor = rf.light
	cfg.DarkColor = rf.dark
	cfg.BorderColor = rf.border
	return cfg, cfg.Validate()
}

func (a *app) pieceSet() (pieces.Set, error) {
	if dir := strings.TrimSpace(a.cfg.PiecesDir); dir != "" {
		return pieces.LoadDir(dir, a.logger)
	}
	return pieces.Builtin()
}

func (a *app) exporter() *export.Encoder {
	r := render.NewRenderer(a.cfg.QualityPolicy(), a.logger)
	return export.NewEncoder(r).WithJPEGQuality(a.cfg.JPEGQuality)
}

func (a *app) baseConfig() (render.Config, error) {
	set, err := a.pieceSet()
	if err != nil {
		return render.Config{}, fmt.Errorf("load pieces: %w", err)
	}
	return a.cfg.RenderConfig(set), nil
}

func (a *app) notifier() (*notifier.Notifier, error) {
	cat, err := msgcat.New(a.cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return notifier.New(cat, func(msg string) error {
		_, err := fmt.Fprintln(a.stderr, msg)
		return err
	}, a.logger), nil
}

// store returns the Redis snapshot store when REDIS_URL is set, otherwise an in-memory one.
func (a *app) store(ctx context.Context) (batchstore.Store, func(), error) {
	if strings.TrimSpace(a.cfg.RedisURL) == "" {
		return batchstore.NewMemoryStore(), func() {}, nil
	}
	rdb, err := batchstore.OpenRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return batchstore.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
}

func (a *app) render(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	rf := a.bindRenderFlags(fs)
	format := fs.String("format", "png", "png, jpeg or svg")
	clipboard := fs.Bool("clipboard", false, "copy a PNG to the clipboard instead of saving")
	remote := fs.String("remote", "", "render on a fenshot server at this base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one FEN argument")
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	n, err := a.notifier()
	if err != nil {
		return err
	}
	if *remote != "" {
		return a.renderRemote(ctx, *remote, rf, f, fs.Arg(0), n)
	}

	base, err := a.baseConfig()
	if err != nil {
		return err
	}
	cfg, err := rf.apply(base)
	if err != nil {
		return err
	}
	cfg.FEN = fs.Arg(0)
	exp := a.exporter()

	if *clipboard {
		clip, err := export.DetectClipboard()
		if err == nil {
			_, err = export.CopyPNG(ctx, exp, clip, cfg)
		}
		_ = n.Copied(err)
		if err != nil {
			return exitError(1)
		}
		return nil
	}

	sink := export.DirSink{Dir: rf.outDir}
	p, err := export.ExportOne(ctx, exp, sink, cfg, f, rf.basename, nil)
	if err != nil {
		_ = n.ExportFailed(rf.basename+"."+f.Extension(), err)
		return exitError(1)
	}
	fmt.Fprintln(a.stdout, sink.Path(p))
	return n.Exported(p)
}

func (a *app) renderRemote(ctx context.Context, baseURL string, rf *renderFlags, f export.Format, fenStr string, n *notifier.Notifier) error {
	coords := rf.coords
	res, err := httpapi.NewClient(baseURL).Render(ctx, exportdto.RenderRequest{
		FEN:         fenStr,
		Format:      string(f),
		Name:        rf.basename,
		BoardSize:   rf.size,
		Coordinates: &coords,
		Flipped:     rf.flipped,
		Quality:     rf.quality,
		Target:      rf.target,
		LightColor:  rf.light,
		DarkColor:   rf.dark,
		BorderColor: rf.border,
	})
	if err != nil {
		_ = n.ExportFailed(rf.basename+"."+f.Extension(), err)
		return exitError(1)
	}
	name := strings.TrimSuffix(res.Filename, filepath.Ext(res.Filename))
	if name == "" {
		name = rf.basename
	}
	p := &export.Payload{Name: name, Format: f, MIME: res.MIME, Data: res.Data, Quality: res.Quality}
	sink := export.DirSink{Dir: rf.outDir}
	if err := sink.Deliver(ctx, p); err != nil {
		_ = n.ExportFailed(p.Filename(), err)
		return exitError(1)
	}
	fmt.Fprintln(a.stdout, sink.Path(p))
	return n.Exported(p)
}

func (a *app) batch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	rf := a.bindRenderFlags(fs)
	formats := fs.String("formats", "png", "comma-separated formats, e.g. png,svg")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one input file (use - for stdin)")
	}
	fmts, err := export.ParseFormats(*formats)
	if err != nil {
		return err
	}
	positions, err := readPositions(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return fmt.Errorf("no positions in %s", fs.Arg(0))
	}

	base, err := a.baseConfig()
	if err != nil {
		return err
	}
	cfg, err := rf.apply(base)
	if err != nil {
		return err
	}
	n, err := a.notifier()
	if err != nil {
		return err
	}
	store, closeStore, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	recorder := batchstore.NewRecorder(store, a.logger)

	session := export.NewSession(a.exporter(), export.DirSink{Dir: rf.outDir}, cfg, export.Options{
		PollInterval: a.cfg.PollInterval(),
		Listener:     export.Listeners(n, recorder),
		Logger:       a.logger,
	})
	fmt.Fprintf(a.stderr, "batch %s (pid %d)\n", session.ID(), os.Getpid())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopSignals := watchSignals(session, cancel, a.logger)
	defer stopSignals()

	summary, err := session.Start(runCtx, export.PlanJobs(positions, fmts, rf.basename))
	if err != nil {
		return err
	}
	if summary.Failed() > 0 || summary.Cancelled {
		return exitError(1)
	}
	return nil
}

// readPositions reads one FEN per record from a CSV file; extra columns and '#' lines are ignored.
func readPositions(path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(rec[0]))
	}
	return out, nil
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.cfg.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	base, err := a.baseConfig()
	if err != nil {
		return err
	}
	opts := httpapi.Options{Logger: a.logger}
	if strings.TrimSpace(a.cfg.RedisURL) != "" {
		store, closeStore, err := a.store(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		opts.Store = store
	}
	srv := httpapi.NewServer(a.exporter(), base, opts)
	a.logger.Info("http_listen", zap.String("addr", *addr))
	return srv.ListenAndServe(ctx, *addr)
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	remote := fs.String("remote", "", "query a fenshot server instead of Redis")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(fs.Arg(0))

	if *remote != "" {
		client := httpapi.NewClient(*remote)
		if id == "" {
			ids, err := client.Batches(ctx)
			if err != nil {
				return err
			}
			printIDs(a.stdout, ids)
			return nil
		}
		st, err := client.Batch(ctx, id)
		if err != nil {
			return err
		}
		printStatus(a.stdout, *st)
		return nil
	}

	if strings.TrimSpace(a.cfg.RedisURL) == "" {
		return fmt.Errorf("status needs REDIS_URL or -remote")
	}
	store, closeStore, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	if id == "" {
		ids, err := store.List(ctx)
		if err != nil {
			return err
		}
		printIDs(a.stdout, ids)
		return nil
	}
	snap, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("batch %s not found", id)
	}
	printStatus(a.stdout, httpapi.ToBatchStatus(snap))
	return nil
}

func printIDs(w io.Writer, ids []string) {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

func printStatus(w io.Writer, st exportdto.BatchStatus) {
	fmt.Fprintf(w, "%s  %s  %d/%d ok, %d failed  %.0f%%  updated %s\n",
		st.ID, st.State, st.Succeeded, st.Total, st.Failed, st.Progress*100, st.UpdatedAt)
	for _, j := range st.Jobs {
		if !j.OK {
			fmt.Fprintf(w, "  #%d %s: %s\n", j.Index+1, j.File, j.Error)
		}
	}
	if len(st.NotStarted) > 0 {
		fmt.Fprintf(w, "  not started: %d job(s)\n", len(st.NotStarted))
	}
}

func (a *app) validate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected at least one FEN")
	}
	bad := 0
	for _, s := range args {
		switch {
		case fen.ValidateRecord(s) == nil:
			fmt.Fprintf(a.stdout, "ok\t%s\n", s)
		case fen.Validate(s):
			fmt.Fprintf(a.stdout, "placement\t%s\n", s)
		default:
			bad++
			fmt.Fprintf(a.stdout, "invalid\t%s\n", s)
		}
	}
	if bad > 0 {
		return exitError(1)
	}
	return nil
}

func (a *app) random() error {
	_, err := fmt.Fprintln(a.stdout, fen.GenerateRandom())
	return err
}

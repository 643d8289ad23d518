// Command htmltree parses HTML and prints its offset-annotated tree.
//
// Usage:
//
//	htmltree [flags] dump [file]
//	htmltree [flags] xml [file]
//	htmltree [flags] json [file]
//	htmltree [flags] query <expression> [file]
//	htmltree [flags] serve
//
// Without a file the source is read from stdin. Diagnostics are written to stderr.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/dpotapov/go-htmltree"
)

var errUsage = errors.New("usage: htmltree [flags] dump|xml|json|query <expression>|serve [file]")

func LoggerMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request", "method", r.Method, "url", r.URL)
		next.ServeHTTP(w, r)
	})
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is a configured command invocation.
type app struct {
	cfg    config
	opts   htmltree.Options
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("htmltree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML configuration `file`")
		mode       = fs.String("mode", "", "parse mode: fragment or document")
		maxDiags   = fs.Int("max-diagnostics", 0, "maximum number of diagnostics to report, 0 for all")
		listen     = fs.String("listen", "", "serve address")
		logLevel   = fs.String("log-level", "", "log level: debug, info, warn or error")
		context    = fs.Int("context", -1, "source `lines` to show around each diagnostic, -1 for none")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "max-diagnostics":
			cfg.MaxDiagnostics = *maxDiags
		case "listen":
			cfg.Listen = *listen
		case "log-level":
			cfg.LogLevel = *logLevel
		case "context":
			cfg.ContextLines = *context
		}
	})

	a, err := newApp(cfg, stdin, stdout, stderr)
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, rest := rest[0], rest[1:]
	switch cmd {
	case "dump", "xml", "json":
		return a.print(cmd, rest)
	case "query":
		if len(rest) == 0 {
			return errUsage
		}
		return a.query(rest[0], rest[1:])
	case "serve":
		return a.serve()
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func newApp(cfg config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	mode, err := cfg.mode()
	if err != nil {
		return nil, err
	}
	level, err := cfg.level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return &app{
		cfg: cfg,
		opts: htmltree.Options{
			Mode:           mode,
			Logger:         logger,
			MaxDiagnostics: cfg.MaxDiagnostics,
		},
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// parse reads the source from the file named in args, or stdin, and parses it.
func (a *app) parse(args []string) (*htmltree.Result, error) {
	var (
		src []byte
		err error
	)
	switch len(args) {
	case 0:
		src, err = io.ReadAll(a.stdin)
	case 1:
		src, err = os.ReadFile(args[0])
	default:
		return nil, errUsage
	}
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	res := htmltree.Parse(string(src), a.opts)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(a.stderr, "%s: %s: %v\n", htmltree.PositionOf(res.Tree.Source(), d.Offset), d.Kind, d.Err)
		if a.cfg.ContextLines >= 0 {
			ctx := htmltree.SourceContextOf(res.Tree.Source(), d.Offset, d.Offset+1, a.cfg.ContextLines)
			if err := ctx.Format(a.stderr); err != nil {
				return nil, err
			}
		}
	}
	if res.Recovered {
		a.logger.Warn("Tree construction failed, only the root is available")
	}
	return res, nil
}

func (a *app) print(format string, args []string) error {
	res, err := a.parse(args)
	if err != nil {
		return err
	}
	switch format {
	case "xml":
		_, err = htmltree.ToXML(res.Tree).WriteTo(a.stdout)
		if err == nil {
			_, err = io.WriteString(a.stdout, "\n")
		}
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(htmltree.ToJSON(res))
	default:
		err = htmltree.Dump(a.stdout, res.Tree)
	}
	return err
}

func (a *app) query(expression string, args []string) error {
	q, err := htmltree.Compile(expression)
	if err != nil {
		return err
	}
	res, err := a.parse(args)
	if err != nil {
		return err
	}
	ids, err := q.Select(res.Tree)
	if err != nil {
		return err
	}
	t := res.Tree
	for _, id := range ids {
		from := t.From(id)
		if from < 0 {
			fmt.Fprintf(a.stdout, "-\t<%s>\n", t.Name(id))
			continue
		}
		fmt.Fprintf(a.stdout, "%s\t%q\n", htmltree.PositionOf(t.Source(), from), t.Text(id))
	}
	return nil
}

func (a *app) serve() error {
	h := &htmltree.Handler{
		Options: a.opts,
		Logger:  a.logger,
	}

	a.logger.Info("Starting HTTP server", "address", a.cfg.Listen)

	err := http.ListenAndServe(a.cfg.Listen, LoggerMiddleware(h, a.logger))

	a.logger.Error("HTTP server error", "error", err)
	return err
}

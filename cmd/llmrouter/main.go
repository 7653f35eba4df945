package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/germanamz/llmrouter/pkg/dispatch"
	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	modelName   string
	prompt      string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	metricsAddr string
	logLevel    string
	plain       bool

	// Explicitly set parameter flags; unset ones fall back to model defaults.
	setTemperature bool
	setMaxTokens   bool
}

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "models" {
		modelsCmd := flag.NewFlagSet("models", flag.ExitOnError)
		modelsCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: llmrouter models [flags]\n\nList configured models in declaration order.\n\nFlags:\n")
			modelsCmd.PrintDefaults()
		}
		cfgPath := modelsCmd.String("config", "models_config.json", "path to the model catalog (JSON or YAML)")
		envFile := modelsCmd.String("env", ".env", "path to .env file (ignored if missing)")
		_ = modelsCmd.Parse(os.Args[2:])

		if err := loadDotEnv(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		listModels(os.Stdout, registry.LoadFile(*cfgPath, registry.WithLogger(log)))

		return
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llmrouter [flags]\n       llmrouter models [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  models  List configured models\n")
	}

	var opts options

	flag.StringVar(&opts.configPath, "config", "models_config.json", "path to the model catalog (JSON or YAML)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	flag.StringVar(&opts.modelName, "model", "", "model to use (default: first configured model)")
	flag.Float64Var(&opts.temperature, "temperature", model.DefaultTemperature, "sampling temperature (0-2)")
	flag.IntVar(&opts.maxTokens, "max-tokens", model.DefaultMaxTokens, "maximum tokens to generate")
	flag.StringVar(&opts.prompt, "prompt", "", "prompt text (omit for the interactive form)")
	flag.DurationVar(&opts.timeout, "timeout", dispatch.DefaultTimeout, "per-request timeout (0 disables)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.BoolVar(&opts.plain, "plain", false, "print the answer without markdown rendering")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "temperature":
			opts.setTemperature = true
		case "max-tokens":
			opts.setMaxTokens = true
		}
	})

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, err := newLogger(os.Stderr, opts.logLevel)
	if err != nil {
		return err
	}

	reg := registry.LoadFile(opts.configPath, registry.WithLogger(log))

	clientOpts := []dispatch.Option{
		dispatch.WithLogger(log),
		dispatch.WithTimeout(opts.timeout),
	}

	if opts.metricsAddr != "" {
		m, err := dispatch.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("llmrouter: metrics: %w", err)
		}
		clientOpts = append(clientOpts, dispatch.WithMetrics(m))

		stop := serveMetrics(opts.metricsAddr, log)
		defer stop()
	}

	client := dispatch.New(reg, clientOpts...)

	plain := opts.plain || !term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec

	if opts.prompt == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec
			return errNoPrompt
		}

		return runInteractive(ctx, opts, client, plain)
	}

	comp, err := client.Generate(ctx, flagRequest(opts))
	if err != nil {
		return errors.New(dispatch.Render(err))
	}

	fmt.Fprintln(os.Stdout, renderAnswer(comp.Text, plain, terminalWidth()))

	return nil
}

var errNoPrompt = errors.New("llmrouter: no prompt given (use -prompt or run in a terminal)")

// flagRequest builds a request from -prompt and -model. Parameter flags are
// sent only when set explicitly, so model defaults still apply otherwise.
func flagRequest(opts options) dispatch.Request {
	req := dispatch.Request{Prompt: opts.prompt, Model: opts.modelName}
	if opts.setTemperature {
		req.Overrides.Temperature = &opts.temperature
	}
	if opts.setMaxTokens {
		req.Overrides.MaxTokens = &opts.maxTokens
	}

	return req
}

// runInteractive collects the inputs with a form and prints whatever text
// the client returns, answer or rendered failure.
func runInteractive(ctx context.Context, opts options, client *dispatch.Client, plain bool) error {
	in := formInput{
		Model:       opts.modelName,
		Temperature: formatFloat(opts.temperature),
		MaxTokens:   fmt.Sprint(opts.maxTokens),
	}
	if in.Model == "" {
		in.Model, _ = client.DefaultModel()
	}

	if err := runForm(&in, client.Models()); err != nil {
		return err
	}

	out, err := in.answer(ctx, client)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, renderAnswer(out, plain, terminalWidth()))

	return nil
}

// serveMetrics exposes the default Prometheus registry on addr and returns
// a function that shuts the server down.
func serveMetrics(addr string, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()

	log.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// listModels prints the catalog, marking the default model.
func listModels(w io.Writer, reg *registry.Registry) {
	names := reg.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no models configured"))
		return
	}

	def, _ := reg.Default()

	for _, name := range names {
		cfg, _ := reg.Lookup(name)

		marker := "  "
		if name == def {
			marker = defaultMarkerStyle.Render("* ")
		}

		fmt.Fprintf(w, "%s%s %s\n", marker, nameStyle.Render(name),
			dimStyle.Render(fmt.Sprintf("(%s, %s)", cfg.Provider, cfg.ModelOr("default model"))))
	}
}

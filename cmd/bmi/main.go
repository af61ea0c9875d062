package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/apiclient"
	"github.com/burenotti/go_bmi_backend/internal/app/form"
	"github.com/burenotti/go_bmi_backend/internal/config"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage:
  bmi calc -age AGE -height CM -weight KG [-o table|json|yaml]
  bmi history [-o table|json|yaml]

environment:
  BMI_API_URL      backend base url (default http://localhost:8080)
  BMI_API_TIMEOUT  request timeout (default 10s)
  BMI_VERBOSE      log requests to stderr
`

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := initLogger(cfg)

	client := apiclient.New(cfg.API.URL, cfg.API.Timeout, logger)
	f := form.New(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, f, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, f *form.Form, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "calc":
		return runCalc(ctx, f, args[1:], stdout, stderr)
	case "history":
		return runHistory(ctx, f, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

func runCalc(ctx context.Context, f *form.Form, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	age := fs.String("age", "", "age in years (2-120)")
	height := fs.String("height", "", "height in centimeters (50-250)")
	weight := fs.String("weight", "", "weight in kilograms (2-500)")
	output := fs.String("o", formatTable, "output format: table, json or yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	r, err := newRenderer(*output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	// a stale history is still worth printing if the save succeeds
	_ = f.Load(ctx)

	_, submitErr := f.Submit(ctx, *age, *height, *weight)
	printMessage(f, stdout, stderr)
	if submitErr != nil {
		return 1
	}

	if err := r.render(stdout, f.History); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runHistory(ctx context.Context, f *form.Form, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", formatTable, "output format: table, json or yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	r, err := newRenderer(*output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := f.Load(ctx); err != nil {
		printMessage(f, stdout, stderr)
		return 1
	}

	if err := r.render(stdout, f.History); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func printMessage(f *form.Form, stdout, stderr io.Writer) {
	if f.Message == nil {
		return
	}
	if f.Message.Kind == form.KindError {
		fmt.Fprintln(stderr, f.Message.Text)
		return
	}
	fmt.Fprintln(stdout, f.Message.Text)
}

func initLogger(cfg *config.ClientConfig) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

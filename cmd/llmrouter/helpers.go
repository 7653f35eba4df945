package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// newLogger builds the stderr text logger at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("llmrouter: invalid log level %q", level)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return 100
	}

	return w
}

// renderAnswer formats the model's answer for the terminal. Plain output is
// the answer verbatim.
func renderAnswer(text string, plain bool, width int) string {
	if plain {
		return text
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}

func renderError(err error) string {
	return errorBlockStyle.Render(err.Error())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func validateTemperature(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 2 {
		return fmt.Errorf("must be a number between 0 and 2")
	}

	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}

	return nil
}

func validatePrompt(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/llmrouter/pkg/dispatch"
)

// formInput holds the interactive form's raw field values.
type formInput struct {
	Prompt      string
	Model       string
	Temperature string
	MaxTokens   string
}

// runForm asks for the prompt, model and generation parameters.
func runForm(in *formInput, models []string) error {
	fields := []huh.Field{
		huh.NewText().Title("Prompt").Value(&in.Prompt).Validate(validatePrompt),
	}

	if len(models) > 0 {
		opts := make([]huh.Option[string], len(models))
		for i, n := range models {
			opts[i] = huh.NewOption(n, n)
		}
		fields = append(fields, huh.NewSelect[string]().Title("Model").Options(opts...).Value(&in.Model))
	}

	fields = append(fields,
		huh.NewInput().Title("Temperature (0-2)").Value(&in.Temperature).Validate(validateTemperature),
		huh.NewInput().Title("Max tokens").Value(&in.MaxTokens).Validate(validatePositiveInt),
	)

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// answer sends the form values through client.Text. Both parameters are
// always sent.
func (in formInput) answer(ctx context.Context, client *dispatch.Client) (string, error) {
	temp, err := strconv.ParseFloat(strings.TrimSpace(in.Temperature), 64)
	if err != nil {
		return "", fmt.Errorf("llmrouter: temperature: %w", err)
	}

	maxTokens, err := strconv.Atoi(strings.TrimSpace(in.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("llmrouter: max tokens: %w", err)
	}

	return client.Text(ctx, in.Prompt, in.Model, temp, maxTokens), nil
}

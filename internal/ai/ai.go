// Package ai wraps the hosted generative model and the parsing of what it
// returns.
//
// Every feature talks to the model through the Model interface, so services
// are tested with a scripted fake and production uses Gemini.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sakif/codeminder/internal/apperror"
)

// Format tells the model what shape of answer to produce.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

type Model interface {
	Generate(ctx context.Context, prompt string, format Format) (string, error)
}

// ErrNotConfigured is the cause reported when no API key is set.
var ErrNotConfigured = errors.New("ai: no API key configured")

// Gemini is a Model backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini client. An empty apiKey yields a Model whose
// calls fail with apperror.ErrUpstream, so the server still starts.
func NewGemini(ctx context.Context, apiKey, model string) (Model, error) {
	if apiKey == "" {
		return unconfigured{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, format Format) (string, error) {
	var cfg *genai.GenerateContentConfig
	if format == FormatJSON {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", apperror.Upstream("ai model", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperror.Upstream("ai model", errors.New("empty response"))
	}
	return text, nil
}

type unconfigured struct{}

func (unconfigured) Generate(context.Context, string, Format) (string, error) {
	return "", apperror.Upstream("ai model", ErrNotConfigured)
}

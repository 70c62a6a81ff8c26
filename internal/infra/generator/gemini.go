package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/resilience/circuitbreaker"
	"market-pulse/internal/resilience/retry"
)

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates text with Google's Gemini API.
// With search grounding enabled the reply carries the web sources Gemini used.
type Gemini struct {
	models contentGenerator
	model  string
	guard  *guard
}

// NewGemini creates a Gemini generator from cfg.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	slog.Info("Initialized Gemini generator", slog.String("model", cfg.model()))
	return newGemini(client.Models, cfg, NewPrometheusMetrics()), nil
}

func newGemini(models contentGenerator, cfg Config, m MetricsRecorder) *Gemini {
	return &Gemini{
		models: models,
		model:  cfg.model(),
		guard:  newGuard(string(ProviderGemini), cfg.model(), cfg.Timeout, circuitbreaker.GeminiAPIConfig(), m),
	}
}

// Generate implements newsfetch.Generator.
func (g *Gemini) Generate(ctx context.Context, prompt, instruction string, useSearchGrounding bool) (*entity.RawResponse, error) {
	return g.guard.run(ctx, func(ctx context.Context) (*entity.RawResponse, error) {
		return g.doGenerate(ctx, prompt, instruction, useSearchGrounding)
	})
}

// doGenerate performs the API call without circuit breaking.
func (g *Gemini) doGenerate(ctx context.Context, prompt, instruction string, useSearchGrounding bool) (*entity.RawResponse, error) {
	config := &genai.GenerateContentConfig{}
	if instruction != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
	}
	if useSearchGrounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, geminiError(err)
	}

	raw := rawFromGemini(resp)
	if raw.Text == "" && resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		slog.WarnContext(ctx, "gemini returned no text",
			slog.String("finish_reason", string(resp.Candidates[0].FinishReason)))
	}
	return raw, nil
}

// rawFromGemini concatenates the text parts of the first candidate and
// collects its web grounding chunks.
func rawFromGemini(resp *genai.GenerateContentResponse) *entity.RawResponse {
	raw := &entity.RawResponse{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return raw
	}
	cand := resp.Candidates[0]

	if cand.Content != nil {
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
		raw.Text = b.String()
	}

	if gm := cand.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			raw.Citations = append(raw.Citations, entity.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return raw
}

// geminiError converts SDK errors carrying a status code into *retry.HTTPError.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &retry.HTTPError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}

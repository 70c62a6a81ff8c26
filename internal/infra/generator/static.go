package generator

import (
	"context"
	"encoding/json"

	"market-pulse/internal/domain/entity"
)

// Static returns a fixed reply without calling any service.
// It is useful for local development and for running the dashboard offline.
type Static struct {
	Text      string
	Citations []entity.Citation
}

// NewStatic creates a Static generator with a neutral placeholder reply.
func NewStatic() *Static {
	b, _ := json.Marshal(entity.ParsedResult{
		Summary:   "Live market news is unavailable; the dashboard is running with the static AI provider.",
		Sentiment: entity.SentimentNeutral,
	})
	return &Static{Text: string(b)}
}

// Generate implements newsfetch.Generator.
func (s *Static) Generate(ctx context.Context, _, _ string, _ bool) (*entity.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	citations := make([]entity.Citation, len(s.Citations))
	copy(citations, s.Citations)
	return &entity.RawResponse{Text: s.Text, Citations: citations}, nil
}

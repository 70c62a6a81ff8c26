package news

import (
	"context"
	"strings"

	"market-pulse/internal/domain/entity"
	"market-pulse/internal/usecase/newsfetch"
)

// Fetcher sends a prompt and reports the parsed outcome.
// *newsfetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, prompt string, maxAttempts int) newsfetch.Outcome
}

// Service provides news summary use cases.
// MaxAttempts <= 0 uses the fetcher's default budget.
type Service struct {
	Fetcher     Fetcher
	Prompts     Prompts
	MaxAttempts int
}

// NewService creates a Service with the built-in prompts.
func NewService(f Fetcher, maxAttempts int) *Service {
	return &Service{Fetcher: f, Prompts: DefaultPrompts(), MaxAttempts: maxAttempts}
}

// FetchNewsSummary fetches a summary with its sentiment and sources.
func (s *Service) FetchNewsSummary(ctx context.Context, prompt string) (entity.NewsData, error) {
	out := s.Fetcher.Fetch(ctx, prompt, s.MaxAttempts)
	if !out.OK() {
		return entity.NewsData{}, &FetchError{prefix: summaryFailurePrefix, Err: out.Failure}
	}
	return newsData(out), nil
}

// FetchMarketMover is FetchNewsSummary plus the ticker of the biggest mover.
func (s *Service) FetchMarketMover(ctx context.Context, prompt string) (entity.NewsData, error) {
	out := s.Fetcher.Fetch(ctx, prompt, s.MaxAttempts)
	if !out.OK() {
		return entity.NewsData{}, &FetchError{prefix: moverFailurePrefix, Err: out.Failure}
	}
	data := newsData(out)
	data.StockTicker = out.Result.Ticker
	return data, nil
}

// FetchCategory refreshes one dashboard category with its configured prompt.
func (s *Service) FetchCategory(ctx context.Context, c entity.NewsCategory) (entity.NewsData, error) {
	prompt := s.Prompts.For(c)
	if c == entity.CategoryMarketMovers {
		return s.FetchMarketMover(ctx, prompt)
	}
	return s.FetchNewsSummary(ctx, prompt)
}

// Search summarizes news for a ticker or topic. StockTicker is set only
// when the reply identified a stock.
func (s *Service) Search(ctx context.Context, query string) (entity.NewsData, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return entity.NewsData{}, ErrEmptyQuery
	}

	out := s.Fetcher.Fetch(ctx, SearchPrompt(query), s.MaxAttempts)
	if !out.OK() {
		return entity.NewsData{}, &FetchError{prefix: searchFailurePrefix, Err: out.Failure}
	}
	data := newsData(out)
	if out.Result.Ticker != "" {
		data.StockTicker = out.Result.Ticker
	}
	return data, nil
}

func newsData(out newsfetch.Outcome) entity.NewsData {
	sources := out.Sources
	if sources == nil {
		sources = []entity.Source{}
	}
	return entity.NewsData{
		Content:   out.Result.Summary,
		Sources:   sources,
		Sentiment: out.Result.Sentiment,
	}
}

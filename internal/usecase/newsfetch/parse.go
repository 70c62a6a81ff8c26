package newsfetch

import (
	"encoding/json"
	"fmt"
	"regexp"

	"market-pulse/internal/domain/entity"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSON returns the content of the first ```json fenced block in text,
// or text unchanged when there is none.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// reply mirrors the JSON object a generator is asked to return.
// Pointers distinguish absent keys from empty values.
type reply struct {
	Summary   *string `json:"summary"`
	Sentiment *string `json:"sentiment"`
	Ticker    *string `json:"ticker"`
}

// ParseResult decodes the generated text into a ParsedResult.
// Errors wrap ErrInvalidFormat.
func ParseResult(text string) (entity.ParsedResult, error) {
	payload := ExtractJSON(text)

	var r reply
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return entity.ParsedResult{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if r.Summary == nil {
		return entity.ParsedResult{}, fmt.Errorf("%w: missing summary", ErrInvalidFormat)
	}

	res := entity.ParsedResult{Summary: *r.Summary}
	if r.Sentiment != nil {
		res.Sentiment = entity.Sentiment(*r.Sentiment)
	}
	if r.Ticker != nil {
		res.Ticker = *r.Ticker
	}
	return res, nil
}

// ExtractSources keeps citations with both a URI and a title, dropping
// repeated URIs. The first occurrence wins and order is preserved.
func ExtractSources(citations []entity.Citation) []entity.Source {
	sources := make([]entity.Source, 0, len(citations))
	seen := make(map[string]struct{}, len(citations))
	for _, c := range citations {
		if c.URI == "" || c.Title == "" {
			continue
		}
		if _, dup := seen[c.URI]; dup {
			continue
		}
		seen[c.URI] = struct{}{}
		sources = append(sources, entity.Source{URI: c.URI, Title: c.Title})
	}
	return sources
}

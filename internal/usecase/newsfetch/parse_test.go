package newsfetch

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/domain/entity"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "fenced block",
			text: "```json\n{\"summary\":\"x\"}\n```",
			want: `{"summary":"x"}`,
		},
		{
			name: "fenced block with surrounding prose",
			text: "Here is the data:\n```json   {\"summary\":\"x\"}   ```\nHope it helps.",
			want: `{"summary":"x"}`,
		},
		{
			name: "first of two fenced blocks",
			text: "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```",
			want: `{"a":1}`,
		},
		{
			name: "unfenced text is returned as-is",
			text: "  {\"summary\":\"x\"}\n",
			want: "  {\"summary\":\"x\"}\n",
		},
		{
			name: "unlabelled fence is not extracted",
			text: "```\n{\"summary\":\"x\"}\n```",
			want: "```\n{\"summary\":\"x\"}\n```",
		},
		{
			name: "multiline content",
			text: "```json\n{\n  \"summary\": \"line\"\n}\n```",
			want: "{\n  \"summary\": \"line\"\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.text))
		})
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    entity.ParsedResult
		wantErr bool
	}{
		{
			name: "all fields",
			text: `{"summary":"Nifty rallies","sentiment":"Positive","ticker":"RELIANCE.NS"}`,
			want: entity.ParsedResult{Summary: "Nifty rallies", Sentiment: entity.SentimentPositive, Ticker: "RELIANCE.NS"},
		},
		{
			name: "optional fields absent",
			text: "```json\n{\"summary\":\"RBI holds rates\"}\n```",
			want: entity.ParsedResult{Summary: "RBI holds rates"},
		},
		{
			name: "unknown sentiment passed through",
			text: `{"summary":"s","sentiment":"Bullish"}`,
			want: entity.ParsedResult{Summary: "s", Sentiment: "Bullish"},
		},
		{
			name: "extra keys ignored",
			text: `{"summary":"s","confidence":0.9}`,
			want: entity.ParsedResult{Summary: "s"},
		},
		{name: "not JSON", text: "The market is up today.", wantErr: true},
		{name: "truncated JSON", text: `{"summary":"s"`, wantErr: true},
		{name: "missing summary", text: `{"sentiment":"Neutral"}`, wantErr: true},
		{name: "null document", text: `null`, wantErr: true},
		{name: "array document", text: `[{"summary":"s"}]`, wantErr: true},
		{name: "summary of wrong type", text: `{"summary":42}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFormat), "expected ErrInvalidFormat, got %v", err)
				assert.Equal(t, KindInvalidFormat, Classify(err))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseResult() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractSources_FirstOccurrenceWins(t *testing.T) {
	got := ExtractSources([]entity.Citation{
		{URI: "a", Title: "A"},
		{URI: "a", Title: "A2"},
		{URI: "b", Title: "B"},
	})

	want := []entity.Source{{URI: "a", Title: "A"}, {URI: "b", Title: "B"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSources() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSources_DropsIncompleteCitations(t *testing.T) {
	got := ExtractSources([]entity.Citation{
		{URI: "", Title: "No URI"},
		{URI: "https://x", Title: ""},
		{URI: "https://y", Title: "Y"},
		{URI: "https://x", Title: "X later"},
	})

	want := []entity.Source{{URI: "https://y", Title: "Y"}, {URI: "https://x", Title: "X later"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSources() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSources_Empty(t *testing.T) {
	got := ExtractSources(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractSources_NeverRepeatsURI(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 9))
	for round := 0; round < 100; round++ {
		citations := make([]entity.Citation, r.IntN(30))
		for i := range citations {
			citations[i] = entity.Citation{
				URI:   "u" + strconv.Itoa(r.IntN(8)),
				Title: []string{"", "t"}[r.IntN(2)],
			}
		}

		seen := map[string]bool{}
		for _, s := range ExtractSources(citations) {
			require.False(t, seen[s.URI], "duplicate uri %q in round %d", s.URI, round)
			require.NotEmpty(t, s.Title)
			seen[s.URI] = true
		}
	}
}

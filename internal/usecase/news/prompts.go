package news

import (
	"fmt"

	"market-pulse/internal/domain/entity"
)

const (
	marketMoversPrompt = "Summarize the latest, most significant news regarding the Indian stock market (NSE/BSE). " +
		"Identify the single most significant stock mover and provide its NSE or BSE ticker symbol. " +
		"Return this as a JSON object with three keys: 'summary' (your text summary), " +
		"'ticker' (the stock symbol as a string, e.g., 'RELIANCE.NS'), and 'sentiment' ('Positive', 'Negative', or 'Neutral')."

	globalMacroPrompt = "Summarize the most impactful global and Indian domestic news affecting India's financial markets, " +
		"including recent RBI decisions, government policy changes, geopolitical developments impacting India, " +
		"and significant commodity price shifts. " +
		"Return this as a JSON object with two keys: 'summary' (your text summary) and 'sentiment' ('Positive', 'Negative', or 'Neutral')."

	intradayPulsePrompt = "Provide a concise summary of the top trending news stories and fastest-moving assets on the Indian market " +
		"(stocks, derivatives, commodities) right now, capturing the immediate market sentiment in India. " +
		"Return this as a JSON object with two keys: 'summary' (your text summary) and 'sentiment' ('Positive', 'Negative', or 'Neutral')."
)

const searchPromptFormat = `
  User is searching for: "%s".
  Analyze the query. Determine if it's an Indian stock ticker (e.g., 'TCS.NS', 'RELIANCE.BSE') or a general news topic.

  1.  **If it is a stock ticker:** Provide a concise summary of the most recent, impactful news specifically for that stock. Include its performance, any recent announcements, and market sentiment.
  2.  **If it is a news topic:** Provide a concise summary of the latest developments regarding that topic, focusing on its impact on the Indian financial markets.

  **CRITICAL:** Respond with a JSON object with the following structure:
  - 'summary': (string) Your detailed summary. Use single quotes instead of double quotes within the text.
  - 'sentiment': (string) 'Positive', 'Negative', or 'Neutral'.
  - 'ticker': (string, optional) If a specific stock was identified, include its ticker symbol here. Otherwise, omit this key.
`

// Prompts maps each category to the prompt used to refresh it.
type Prompts map[entity.NewsCategory]string

// DefaultPrompts returns the built-in category prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		entity.CategoryMarketMovers:  marketMoversPrompt,
		entity.CategoryGlobalMacro:   globalMacroPrompt,
		entity.CategoryIntradayPulse: intradayPulsePrompt,
	}
}

// For returns the prompt for c, falling back to the built-in one when p has none.
func (p Prompts) For(c entity.NewsCategory) string {
	if s, ok := p[c]; ok && s != "" {
		return s
	}
	return DefaultPrompts()[c]
}

// Merge returns a copy of p with the non-empty entries of overrides applied.
func (p Prompts) Merge(overrides Prompts) Prompts {
	out := make(Prompts, len(p)+len(overrides))
	for c, s := range p {
		out[c] = s
	}
	for c, s := range overrides {
		if s != "" {
			out[c] = s
		}
	}
	return out
}

// SearchPrompt builds the prompt for a free-text query, which may be a
// ticker symbol or a news topic.
func SearchPrompt(query string) string {
	return fmt.Sprintf(searchPromptFormat, query)
}

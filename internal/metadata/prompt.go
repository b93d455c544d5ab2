package metadata

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"NewsAggregator/internal/domain"
)

const (
	charsPerToken  = 4
	truncateMarker = "..."
)

// Budget reserves room in the model context for the template and the answer.
type Budget struct {
	MaxContextTokens int
	PromptOverhead   int
	ResponseReserve  int
}

// DefaultBudget fits comfortably inside an 8k-token context window.
var DefaultBudget = Budget{MaxContextTokens: 8000, PromptOverhead: 500, ResponseReserve: 500}

// EstimateTokens approximates token usage as characters / 4.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// fitContent trims content so that title, description and content together
// stay inside the budget. A trimmed content ends with "...".
func (b Budget) fitContent(title, description, content string) string {
	available := b.MaxContextTokens - b.PromptOverhead - b.ResponseReserve -
		EstimateTokens(title) - EstimateTokens(description)
	if available <= 0 {
		return ""
	}

	maxChars := available * charsPerToken
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	return string(runes[:maxChars]) + truncateMarker
}

func systemPrompt() string {
	categories := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		categories = append(categories, string(c))
	}
	languages := make([]string, 0, len(domain.Languages()))
	for _, l := range domain.Languages() {
		languages = append(languages, string(l))
	}

	var sb strings.Builder
	sb.WriteString("You are a professional content analyzer for a news aggregator. ")
	sb.WriteString("Analyze the article and respond with a single JSON object with exactly these fields:\n")
	sb.WriteString(`{"summary": string, "category": string, "language": string, "keywords": [string, string, string, string, string]}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- summary: 2-4 sentences capturing the key points. Start directly with the content, ")
	sb.WriteString(`no preamble such as "Here is a summary" or "This article discusses".` + "\n")
	sb.WriteString(fmt.Sprintf("- category: exactly one of %s\n", strings.Join(categories, ", ")))
	sb.WriteString(fmt.Sprintf("- language: exactly one of %s\n", strings.Join(languages, ", ")))
	sb.WriteString("- keywords: an array of exactly 5 relevant keywords\n")
	sb.WriteString("- Return ONLY valid JSON, no other text.")
	return sb.String()
}

// buildPrompt returns the user message, or "" when there is nothing to analyze.
func (b Budget) buildPrompt(title, description, content string) string {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	content = strings.TrimSpace(content)
	if title == "" && description == "" && content == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following article.\n\n")
	if title != "" {
		sb.WriteString("Title: " + title + "\n")
	}
	if description != "" {
		sb.WriteString("Description: " + description + "\n")
	}
	if content != "" {
		if fitted := b.fitContent(title, description, content); fitted != "" {
			sb.WriteString("Full Content: " + fitted + "\n")
		}
	}
	return sb.String()
}

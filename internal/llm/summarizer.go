package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dwisetya/recase/internal/model"
)

const summarySystem = "You are a shopping assistant summarizing phone recommendations. " +
	"You must only mention phones from the provided list and only repeat " +
	"specifications given there. Never invent phones, prices, or specs."

// urlRe catches links in generated text; the summary should not cite
// external sources at all.
var urlRe = regexp.MustCompile(`https?://\S+`)

// Summarizer renders a recommendation response as a short narrative.
// Output is decorative and verified: phones outside the result set and
// external links downgrade to warnings on the summary, never errors on
// the response.
type Summarizer struct {
	provider Provider
}

// NewSummarizer wraps a provider. A nil provider yields a nil
// summarizer, which callers treat as "summaries off".
func NewSummarizer(provider Provider) *Summarizer {
	if provider == nil {
		return nil
	}
	return &Summarizer{provider: provider}
}

// Summarize generates the narrative for a finished response.
func (s *Summarizer) Summarize(ctx context.Context, resp *model.RecommendResponse) (*model.LLMSummary, error) {
	if len(resp.Recommendations) == 0 {
		return nil, fmt.Errorf("nothing to summarize")
	}

	gen, err := s.provider.Generate(ctx, GenerateRequest{
		System: summarySystem,
		Prompt: BuildPrompt(resp),
	})
	if err != nil {
		return nil, err
	}

	summary := &model.LLMSummary{
		Provider:  s.provider.Name(),
		Model:     gen.Model,
		SummaryMD: gen.Text,
		Warnings:  verifySummary(gen.Text, resp.Recommendations),
	}
	return summary, nil
}

// BuildPrompt lists the ranked results with the specs the narrative is
// allowed to use.
func BuildPrompt(resp *model.RecommendResponse) string {
	var b strings.Builder

	b.WriteString("Summarize these phone recommendations in 3-4 sentences for the shopper.\n")
	b.WriteString("Mention the top pick by name and what makes it fit; you may contrast it with the runners-up.\n\n")

	if len(resp.QuerySummary) > 0 {
		b.WriteString("The shopper asked for:\n")
		for field, value := range resp.QuerySummary {
			fmt.Fprintf(&b, "- %s: %s\n", field, value)
		}
		b.WriteString("\n")
	}

	b.WriteString("Recommendations (the ONLY phones you may mention):\n")
	for _, rec := range resp.Recommendations {
		p := rec.Phone
		fmt.Fprintf(&b, "%d. %s (%s, %s) - price %s, %g GB RAM, %g GB storage, %s mAh, rating %g, camera %s - match %.1f%%\n",
			rec.Rank, p.Name, p.Brand, p.OS,
			model.GroupDigits(p.Price), p.RAM, p.Storage,
			model.GroupDigits(p.Battery), p.Rating, p.CameraLabel,
			rec.Percentage)
	}

	b.WriteString("\nDo not mention any other phone and do not cite external sources.")
	return b.String()
}

// verifySummary checks generated text against the result set. The
// summary still ships when a check trips; the warnings tell the caller
// not to trust the narrative blindly.
func verifySummary(text string, recs []model.Recommendation) []string {
	var warnings []string

	mentioned := false
	for _, rec := range recs {
		if rec.Phone.Name != "" && strings.Contains(strings.ToLower(text), strings.ToLower(rec.Phone.Name)) {
			mentioned = true
			break
		}
	}
	if !mentioned {
		warnings = append(warnings, "summary does not mention any recommended phone")
	}

	if urls := urlRe.FindAllString(text, -1); len(urls) > 0 {
		warnings = append(warnings, fmt.Sprintf("summary cites external links: %s", strings.Join(urls, ", ")))
	}

	return warnings
}

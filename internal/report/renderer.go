// Package report renders recommendation and evaluation results as
// JSON or Markdown for the CLI.
package report

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dwisetya/recase/internal/model"
)

// Renderer formats results. The footer is a short provenance line the
// config can turn off.
type Renderer struct {
	includeFooter bool
}

// NewRenderer builds a renderer from the output config.
func NewRenderer(cfg model.OutputConfig) *Renderer {
	return &Renderer{includeFooter: cfg.IncludeFooter}
}

// RenderJSON marshals any result as indented JSON.
func (r *Renderer) RenderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// RenderRecommendationsMD renders a recommendation response as Markdown.
func (r *Renderer) RenderRecommendationsMD(resp *model.RecommendResponse) string {
	var b strings.Builder

	b.WriteString("# Phone Recommendations\n\n")
	fmt.Fprintf(&b, "%s\n\n", resp.Message)

	if len(resp.QuerySummary) > 0 {
		b.WriteString("## Your Preferences\n\n")
		for _, field := range []string{"budget", "ram", "storage", "screen", "battery", "rating", "camera", "brands", "os"} {
			if value, ok := resp.QuerySummary[field]; ok {
				fmt.Fprintf(&b, "- **%s**: %s\n", field, value)
			}
		}
		b.WriteString("\n")
	}

	for _, rec := range resp.Recommendations {
		p := rec.Phone
		fmt.Fprintf(&b, "## %d. %s (%.1f%% match)\n\n", rec.Rank, p.Name, rec.Percentage)
		fmt.Fprintf(&b, "%s · %s · %s · %g GB RAM · %g GB storage · %s mAh · rating %g · %s\n\n",
			p.Brand, p.OS, model.GroupDigits(p.Price), p.RAM, p.Storage,
			model.GroupDigits(p.Battery), p.Rating, p.CameraLabel)

		if len(rec.Highlights) > 0 {
			for _, h := range rec.Highlights {
				fmt.Fprintf(&b, "- %s\n", h)
			}
			b.WriteString("\n")
		}

		if len(rec.Explanations) > 0 {
			b.WriteString("| Preference | You asked | This phone | Match |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, e := range rec.Explanations {
				fmt.Fprintf(&b, "| %s | %s | %s | %.0f%% |\n",
					e.Attribute, e.UserValue, e.PhoneValue, e.MatchScore*100)
			}
			b.WriteString("\n")
		}
	}

	if resp.LLM != nil && resp.LLM.SummaryMD != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(resp.LLM.SummaryMD)
		b.WriteString("\n")
		for _, w := range resp.LLM.Warnings {
			fmt.Fprintf(&b, "\n> ⚠ %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n%d results · generated %s\n",
			resp.TotalResults, resp.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	}

	return b.String()
}

// RenderEvaluationMD renders an evaluation comparison as Markdown.
func (r *Renderer) RenderEvaluationMD(c *model.EvaluationComparison) string {
	var b strings.Builder

	b.WriteString("# Evaluation Results\n\n")
	fmt.Fprintf(&b, "Run `%s` · best scenario: **%s**\n\n", c.RunID, c.BestScenario)

	b.WriteString("| Scenario | Train | Test | Accuracy | Precision | Recall | F1 |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, s := range c.Scenarios {
		fmt.Fprintf(&b, "| %s | %d | %d | %.2f%% | %.2f%% | %.2f%% | %.2f%% |\n",
			s.Scenario, s.TrainSize, s.TestSize,
			s.Metrics.AccuracyPct, s.Metrics.PrecisionPct,
			s.Metrics.RecallPct, s.Metrics.F1Pct)
	}
	b.WriteString("\n")

	for _, s := range c.Scenarios {
		fmt.Fprintf(&b, "## Confusion Matrix (%s)\n\n", s.Scenario)
		b.WriteString("| true \\ predicted |")
		for _, l := range s.Confusion.Labels {
			fmt.Fprintf(&b, " %s |", l)
		}
		b.WriteString("\n|---|")
		for range s.Confusion.Labels {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for i, l := range s.Confusion.Labels {
			fmt.Fprintf(&b, "| %s |", l)
			for j := range s.Confusion.Labels {
				fmt.Fprintf(&b, " %d |", s.Confusion.Matrix[i][j])
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\n%d correct, %d misclassified\n\n",
			s.Confusion.Correct, s.Confusion.Misclassified)
	}

	fmt.Fprintf(&b, "Average accuracy %.2f%% · average F1 %.2f%% across %d scenarios\n",
		c.Summary.AvgAccuracyPct, c.Summary.AvgF1Pct, c.Summary.TotalScenarios)

	if r.includeFooter {
		b.WriteString("\n---\nk-NN majority vote over stratified splits\n")
	}

	return b.String()
}

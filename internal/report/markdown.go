// Package report provides Markdown report generation.
package report

import (
	"fmt"
	"io"
)

// MarkdownGenerator generates Markdown reports. IncludeDetails controls
// whether per-member distance annotations are rendered or just the payload
// list.
type MarkdownGenerator struct {
	IncludeDetails bool
}

// Generate generates a Markdown report
func (g *MarkdownGenerator) Generate(report *Report, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", report.Title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "## Statistics\n\n"); err != nil {
		return err
	}
	stats := report.Statistics
	rows := []struct {
		label string
		value interface{}
	}{
		{"Mode", stats.Mode},
		{"Radius", stats.Radius},
		{"Min group size", stats.MinGroupSize},
		{"Items ingested", stats.ItemsIngested},
		{"Hard-link deduped", stats.Deduped},
		{"Decode failed", stats.DecodeFailed},
		{"Degenerate images", stats.Degenerate},
		{"Groups found", stats.GroupsFound},
		{"Duration", stats.Duration},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "- **%s:** %v\n", row.label, row.value); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n## Duplicate Groups (%d)\n\n", len(report.Groups)); err != nil {
		return err
	}

	if len(report.Groups) == 0 {
		_, err := fmt.Fprintf(w, "No duplicate groups found.\n")
		return err
	}

	for _, group := range report.Groups {
		if _, err := fmt.Fprintf(w, "### Group %d (%d members)\n\n", group.ID, group.Size()); err != nil {
			return err
		}
		for _, m := range group.Members {
			var err error
			if g.IncludeDetails {
				_, err = fmt.Fprintf(w, "- `%s` (distance %d)\n", m.Payload, m.Hamming)
			} else {
				_, err = fmt.Fprintf(w, "- `%s`\n", m.Payload)
			}
			if err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension
func (g *MarkdownGenerator) Extension() string {
	return "md"
}

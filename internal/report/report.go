// Package report renders a session's duplicate groups into a file format a
// human (or another tool) can consume: JSON, HTML, or Markdown. It knows
// nothing about how the groups were found; it only formats what it is handed.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Member is one payload within a duplicate group, annotated with its
// distance from the group's representative (member 0) so a viewer can tell
// near-duplicates from exact ones at a glance.
type Member struct {
	Payload    types.PayloadRef `json:"payload"`
	Hamming    int              `json:"hamming_distance"`
	Width      int              `json:"fingerprint_width"`
	ContentHex string           `json:"content_hash,omitempty"`
}

// Group is a rendering of a types.DuplicateGroup with payload references and
// distances resolved, ready to format.
type Group struct {
	ID      int      `json:"id"`
	Members []Member `json:"members"`
}

// Size returns the number of members in the group.
func (g Group) Size() int {
	return len(g.Members)
}

// Statistics summarizes a run for display alongside the groups themselves.
type Statistics struct {
	Mode          string        `json:"mode"`
	Radius        uint8         `json:"radius"`
	MinGroupSize  uint16        `json:"min_group_size"`
	ItemsIngested int64         `json:"items_ingested"`
	Deduped       int64         `json:"hard_link_deduped"`
	DecodeFailed  int           `json:"decode_failed"`
	Degenerate    int           `json:"degenerate_image"`
	GroupsFound   int           `json:"groups_found"`
	Duration      time.Duration `json:"duration"`
}

// MarshalJSON renders Duration as a human-readable string rather than a raw
// nanosecond count.
func (s Statistics) MarshalJSON() ([]byte, error) {
	type Alias Statistics
	return json.Marshal(&struct {
		Alias
		Duration string `json:"duration"`
	}{
		Alias:    Alias(s),
		Duration: s.Duration.String(),
	})
}

// UnmarshalJSON reads back the string Duration form MarshalJSON writes.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	type Alias Statistics
	aux := struct {
		*Alias
		Duration string `json:"duration"`
	}{Alias: (*Alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d, err := time.ParseDuration(aux.Duration)
	s.Duration = d
	return err
}

// Report is the top-level document a Generator renders.
type Report struct {
	Title       string     `json:"title"`
	GeneratedAt time.Time  `json:"generated_at"`
	Statistics  Statistics `json:"statistics"`
	Groups      []Group    `json:"groups"`
}

// NewReport creates an empty report with the given title.
func NewReport(title string) *Report {
	return &Report{
		Title:       title,
		GeneratedAt: time.Now(),
		Groups:      make([]Group, 0),
	}
}

// AddGroup appends a rendered group and keeps Statistics.GroupsFound in sync.
func (r *Report) AddGroup(g Group) {
	r.Groups = append(r.Groups, g)
	r.Statistics.GroupsFound = len(r.Groups)
}

// SetStatistics overwrites the summary counters, preserving GroupsFound as
// derived from the groups already added.
func (r *Report) SetStatistics(stats Statistics) {
	stats.GroupsFound = len(r.Groups)
	r.Statistics = stats
}

// LargestGroup returns the group with the most members, or false if there
// are none.
func (r *Report) LargestGroup() (Group, bool) {
	if len(r.Groups) == 0 {
		return Group{}, false
	}
	largest := r.Groups[0]
	for _, g := range r.Groups[1:] {
		if g.Size() > largest.Size() {
			largest = g
		}
	}
	return largest, true
}

// Generator is the interface every output format implements.
type Generator interface {
	Generate(report *Report, w io.Writer) error
	Extension() string
}

// Manager dispatches report generation by format name and owns the output
// directory reports are written under.
type Manager struct {
	generators map[string]Generator
	outputDir  string
}

// NewManager creates a new report manager with the default JSON/HTML/Markdown
// generators registered.
func NewManager(outputDir string) *Manager {
	m := &Manager{
		generators: make(map[string]Generator),
		outputDir:  outputDir,
	}

	m.RegisterGenerator("json", &JSONGenerator{Indent: true})
	m.RegisterGenerator("html", NewHTMLGenerator())
	m.RegisterGenerator("markdown", &MarkdownGenerator{})
	m.RegisterGenerator("md", &MarkdownGenerator{})

	return m
}

// RegisterGenerator registers a generator under a format name.
func (m *Manager) RegisterGenerator(format string, gen Generator) {
	m.generators[format] = gen
}

// GetGenerator returns a generator by format name.
func (m *Manager) GetGenerator(format string) (Generator, bool) {
	gen, ok := m.generators[format]
	return gen, ok
}

// Generate writes a report in the given format to a timestamped file under
// the manager's output directory and returns the path written.
func (m *Manager) Generate(report *Report, format string) (string, error) {
	gen, ok := m.generators[format]
	if !ok {
		return "", fmt.Errorf("unknown report format: %s", format)
	}

	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("dedup_%s.%s", timestamp, gen.Extension())
	path := filepath.Join(m.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := gen.Generate(report, f); err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	return path, nil
}

// GenerateAll writes a report in every registered format, skipping formats
// that share a file extension with one already written (md and markdown).
func (m *Manager) GenerateAll(report *Report) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for format, gen := range m.generators {
		ext := gen.Extension()
		if seen[ext] {
			continue
		}
		seen[ext] = true

		path, err := m.Generate(report, format)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// WriteToWriter generates a report directly to w without touching disk.
func (m *Manager) WriteToWriter(report *Report, format string, w io.Writer) error {
	gen, ok := m.generators[format]
	if !ok {
		return fmt.Errorf("unknown report format: %s", format)
	}

	return gen.Generate(report, w)
}

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleGroup(id int, payloads ...string) Group {
	members := make([]Member, len(payloads))
	for i, p := range payloads {
		members[i] = Member{Payload: p, Hamming: i, Width: 64}
	}
	return Group{ID: id, Members: members}
}

func TestNewReport(t *testing.T) {
	r := NewReport("Test Report")

	if r == nil {
		t.Fatal("NewReport returned nil")
	}
	if r.Title != "Test Report" {
		t.Errorf("Expected title 'Test Report', got '%s'", r.Title)
	}
	if len(r.Groups) != 0 {
		t.Errorf("expected a fresh report to have no groups, got %d", len(r.Groups))
	}
}

func TestReport_AddGroup(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))

	if len(r.Groups) != 1 {
		t.Errorf("Expected 1 group, got %d", len(r.Groups))
	}
	if r.Statistics.GroupsFound != 1 {
		t.Errorf("Expected GroupsFound to track added groups, got %d", r.Statistics.GroupsFound)
	}
}

func TestReport_SetStatisticsPreservesGroupsFound(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))
	r.AddGroup(sampleGroup(1, "c.png"))

	r.SetStatistics(Statistics{ItemsIngested: 10, GroupsFound: 999})

	if r.Statistics.GroupsFound != 2 {
		t.Errorf("expected SetStatistics to derive GroupsFound from the group count, got %d", r.Statistics.GroupsFound)
	}
	if r.Statistics.ItemsIngested != 10 {
		t.Errorf("expected the rest of Statistics to pass through, got %+v", r.Statistics)
	}
}

func TestReport_LargestGroup(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png"))
	r.AddGroup(sampleGroup(1, "b.png", "c.png", "d.png"))
	r.AddGroup(sampleGroup(2, "e.png", "f.png"))

	largest, ok := r.LargestGroup()
	if !ok {
		t.Fatal("expected LargestGroup to find a group")
	}
	if largest.ID != 1 {
		t.Errorf("expected group 1 (3 members) to be largest, got group %d", largest.ID)
	}
}

func TestReport_LargestGroupEmpty(t *testing.T) {
	r := NewReport("Test")
	if _, ok := r.LargestGroup(); ok {
		t.Error("expected LargestGroup to report false on an empty report")
	}
}

func TestJSONGenerator(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))

	gen := &JSONGenerator{Indent: true}
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode generated JSON: %v", err)
	}
	if decoded.Title != "Test" {
		t.Errorf("expected title to round-trip, got %q", decoded.Title)
	}
	if len(decoded.Groups) != 1 || len(decoded.Groups[0].Members) != 2 {
		t.Errorf("expected groups to round-trip, got %+v", decoded.Groups)
	}
	if gen.Extension() != "json" {
		t.Errorf("expected extension json, got %s", gen.Extension())
	}
}

func TestJSONGenerator_GenerateBytes(t *testing.T) {
	r := NewReport("Test")
	gen := &JSONGenerator{Indent: false}
	out, err := gen.GenerateBytes(r)
	if err != nil {
		t.Fatalf("GenerateBytes failed: %v", err)
	}
	if !strings.Contains(string(out), `"title":"Test"`) {
		t.Errorf("expected compact JSON without indent spaces, got %s", out)
	}
}

func TestHTMLGenerator(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))

	gen := NewHTMLGenerator()
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "a.png") {
		t.Error("expected the HTML output to mention the payload")
	}
	if !strings.Contains(out, "Test") {
		t.Error("expected the HTML output to mention the report title")
	}
	if gen.Extension() != "html" {
		t.Errorf("expected extension html, got %s", gen.Extension())
	}
}

func TestHTMLGenerator_NoGroups(t *testing.T) {
	r := NewReport("Test")
	gen := NewHTMLGenerator()
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No duplicate groups found") {
		t.Error("expected the empty-state message when there are no groups")
	}
}

func TestCustomHTMLGenerator(t *testing.T) {
	gen, err := CustomHTMLGenerator("{{.Title}}")
	if err != nil {
		t.Fatalf("CustomHTMLGenerator failed: %v", err)
	}
	var buf bytes.Buffer
	if err := gen.Generate(NewReport("Custom"), &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if buf.String() != "Custom" {
		t.Errorf("got %q, want %q", buf.String(), "Custom")
	}
}

func TestMarkdownGenerator(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))

	gen := &MarkdownGenerator{IncludeDetails: true}
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# Test\n") {
		t.Errorf("expected the title as an H1, got %q", out[:20])
	}
	if !strings.Contains(out, "distance") {
		t.Error("expected distance annotations when IncludeDetails is set")
	}
	if gen.Extension() != "md" {
		t.Errorf("expected extension md, got %s", gen.Extension())
	}
}

func TestMarkdownGenerator_NoDetails(t *testing.T) {
	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png"))

	gen := &MarkdownGenerator{}
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(buf.String(), "distance") {
		t.Error("expected no distance annotations when IncludeDetails is unset")
	}
}

func TestMarkdownGenerator_NoGroups(t *testing.T) {
	r := NewReport("Test")
	gen := &MarkdownGenerator{}
	var buf bytes.Buffer
	if err := gen.Generate(r, &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No duplicate groups found") {
		t.Error("expected the empty-state message when there are no groups")
	}
}

func TestManager_Generate(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	r := NewReport("Test")
	r.AddGroup(sampleGroup(0, "a.png", "b.png"))

	path, err := m.Generate(r, "json")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Errorf("expected a .json file, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected the report file to exist: %v", err)
	}
}

func TestManager_GenerateUnknownFormat(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Generate(NewReport("Test"), "yaml"); err == nil {
		t.Error("expected an error for an unregistered format")
	}
}

func TestManager_GenerateAllSkipsDuplicateExtensions(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	r := NewReport("Test")

	paths, err := m.GenerateAll(r)
	if err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}
	// json, html, md (markdown shares .md's extension and is skipped).
	if len(paths) != 3 {
		t.Errorf("expected 3 distinct-extension files, got %d: %v", len(paths), paths)
	}
}

func TestManager_WriteToWriter(t *testing.T) {
	m := NewManager(t.TempDir())
	r := NewReport("Test")

	var buf bytes.Buffer
	if err := m.WriteToWriter(r, "json", &buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected WriteToWriter to produce output")
	}
}

func TestManager_WriteToWriterUnknownFormat(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.WriteToWriter(NewReport("Test"), "yaml", &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unregistered format")
	}
}

func TestStatisticsMarshalJSONFormatsDuration(t *testing.T) {
	stats := Statistics{Duration: 90 * time.Second}
	out, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), `"duration":"1m30s"`) {
		t.Errorf("expected a human-readable duration string, got %s", out)
	}
}

func BenchmarkMarkdownGenerator(b *testing.B) {
	r := NewReport("Bench")
	for i := 0; i < 20; i++ {
		r.AddGroup(sampleGroup(i, "a.png", "b.png", "c.png"))
	}
	gen := &MarkdownGenerator{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		gen.Generate(r, &buf)
	}
}

// Package report provides HTML report generation.
package report

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// HTMLGenerator generates HTML reports
type HTMLGenerator struct {
	template *template.Template
}

var htmlFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
	"formatDuration": func(d time.Duration) string {
		return d.String()
	},
	"sizeClass": func(n int) string {
		switch {
		case n >= 10:
			return "large"
		case n >= 4:
			return "medium"
		default:
			return "small"
		}
	},
}

// NewHTMLGenerator creates a new HTML generator
func NewHTMLGenerator() *HTMLGenerator {
	tmpl := template.Must(template.New("report").Funcs(htmlFuncs).Parse(htmlTemplate))
	return &HTMLGenerator{template: tmpl}
}

// Generate generates an HTML report
func (g *HTMLGenerator) Generate(report *Report, w io.Writer) error {
	return g.template.Execute(w, report)
}

// Extension returns the file extension
func (g *HTMLGenerator) Extension() string {
	return "html"
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - pixeldedup Report</title>
    <style>
        :root {
            --bg-dark: #0D0D0D;
            --bg-panel: #1A1A2E;
            --bg-header: #16213E;
            --text-primary: #E0E0E0;
            --text-dim: #666666;
            --cyan: #00FFFF;
            --magenta: #FF00FF;
            --green: #00FF00;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', 'Roboto', 'Helvetica Neue', sans-serif;
            background: var(--bg-dark);
            color: var(--text-primary);
            line-height: 1.6;
            min-height: 100vh;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        header {
            background: var(--bg-header);
            padding: 30px;
            border-radius: 10px;
            margin-bottom: 30px;
            border: 1px solid var(--cyan);
        }

        h1 {
            color: var(--cyan);
            font-size: 2.5em;
            margin-bottom: 10px;
            text-shadow: 0 0 10px var(--cyan);
        }

        .meta {
            color: var(--text-dim);
            font-size: 0.9em;
        }

        .meta span {
            margin-right: 20px;
        }

        .section {
            background: var(--bg-panel);
            border-radius: 10px;
            padding: 20px;
            margin-bottom: 20px;
            border: 1px solid var(--magenta);
        }

        h2 {
            color: var(--magenta);
            margin-bottom: 20px;
            font-size: 1.5em;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
        }

        .stat-card {
            background: var(--bg-header);
            padding: 20px;
            border-radius: 8px;
            text-align: center;
            border: 1px solid var(--cyan);
        }

        .stat-value {
            font-size: 2em;
            font-weight: bold;
            color: var(--cyan);
        }

        .stat-label {
            color: var(--text-dim);
            font-size: 0.9em;
            margin-top: 5px;
        }

        .group-list {
            list-style: none;
        }

        .group-item {
            background: var(--bg-header);
            padding: 15px;
            margin-bottom: 15px;
            border-radius: 8px;
            border-left: 4px solid var(--cyan);
        }

        .group-item.large { border-left-color: var(--magenta); }

        .group-header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 10px;
        }

        .group-title {
            font-weight: bold;
            color: var(--text-primary);
        }

        .member-list {
            font-size: 0.9em;
            list-style: none;
        }

        .member-list li code {
            background: var(--bg-dark);
            padding: 2px 6px;
            border-radius: 4px;
            font-family: 'Fira Code', 'Consolas', monospace;
            color: var(--cyan);
        }

        .no-groups {
            text-align: center;
            padding: 40px;
            color: var(--green);
            font-size: 1.2em;
        }

        footer {
            text-align: center;
            color: var(--text-dim);
            padding: 20px;
            font-size: 0.9em;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{.Title}}</h1>
            <div class="meta">
                <span>Mode: <strong>{{.Statistics.Mode}}</strong></span>
                <span>Radius: <strong>{{.Statistics.Radius}}</strong></span>
                <span>Generated: {{formatTime .GeneratedAt}}</span>
            </div>
        </header>

        <section class="section">
            <h2>Statistics</h2>
            <div class="stats-grid">
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.ItemsIngested}}</div>
                    <div class="stat-label">Items Ingested</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.Deduped}}</div>
                    <div class="stat-label">Hard-link Deduped</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.GroupsFound}}</div>
                    <div class="stat-label">Groups Found</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.DecodeFailed}}</div>
                    <div class="stat-label">Decode Failed</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.Degenerate}}</div>
                    <div class="stat-label">Degenerate Images</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{formatDuration .Statistics.Duration}}</div>
                    <div class="stat-label">Duration</div>
                </div>
            </div>
        </section>

        <section class="section">
            <h2>Duplicate Groups ({{len .Groups}})</h2>

            {{if .Groups}}
            <ul class="group-list">
                {{range .Groups}}
                <li class="group-item {{sizeClass .Size}}">
                    <div class="group-header">
                        <span class="group-title">Group {{.ID}} &mdash; {{.Size}} members</span>
                    </div>
                    <ul class="member-list">
                        {{range .Members}}
                        <li><code>{{.Payload}}</code> (distance {{.Hamming}})</li>
                        {{end}}
                    </ul>
                </li>
                {{end}}
            </ul>
            {{else}}
            <div class="no-groups">
                No duplicate groups found.
            </div>
            {{end}}
        </section>

        <footer>
            Generated by pixeldedup
        </footer>
    </div>
</body>
</html>`

// SetTemplate sets a custom template
func (g *HTMLGenerator) SetTemplate(tmpl *template.Template) {
	g.template = tmpl
}

// GetDefaultTemplate returns the default HTML template string
func GetDefaultTemplate() string {
	return htmlTemplate
}

// CustomHTMLGenerator creates a generator with a custom template
func CustomHTMLGenerator(templateStr string) (*HTMLGenerator, error) {
	tmpl, err := template.New("report").Funcs(htmlFuncs).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &HTMLGenerator{template: tmpl}, nil
}

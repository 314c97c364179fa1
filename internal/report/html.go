package report

import (
	"fmt"
	"html/template"
	"io"
	"maps"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"deepscan/internal/forensics"
)

const maxCellRunes = 100

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Deepfake Detection Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; color: #333; background-color: #f8f9fa; }
.container { max-width: 900px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
.header { text-align: center; border-bottom: 2px solid #1f77b4; padding-bottom: 20px; margin-bottom: 20px; }
.case-id { font-size: 12px; color: #666; margin-top: 10px; }
.result-box { color: white; padding: 15px; border-radius: 5px; margin: 20px 0; font-size: 18px; text-align: center; font-weight: bold; }
.result-box.fake { background-color: #dc3545; }
.result-box.authentic { background-color: #28a745; }
.confidence { font-size: 16px; margin-top: 10px; }
.section { margin: 25px 0; padding: 15px; background-color: #f0f5f9; border-left: 4px solid #1f77b4; }
.section-title { font-size: 16px; font-weight: bold; color: #1f77b4; margin-bottom: 10px; }
table.report-table { width: 100%; border-collapse: collapse; margin-top: 10px; }
table.report-table th, table.report-table td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
table.report-table th { background-color: #1f77b4; color: white; }
.timestamp { text-align: right; color: #999; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Deepfake Detection Report</h1>
<div class="case-id">Case ID: {{.CaseID}}</div>
</div>
<div class="result-box {{.VerdictClass}}">
{{.Verdict}}
<div class="confidence">Confidence: {{.Confidence}}</div>
</div>
{{range .Sections}}<div class="section">
<div class="section-title">{{.Title}}</div>
{{.Table}}
</div>
{{end}}<div class="timestamp">Report generated on {{.Generated}}</div>
</div>
</body>
</html>
`))

type htmlSection struct {
	Title string
	Table template.HTML
}

type htmlPage struct {
	CaseID       string
	Verdict      string
	VerdictClass string
	Confidence   string
	Sections     []htmlSection
	Generated    string
}

func writeHTML(w io.Writer, r *Report) error {
	page := htmlPage{
		CaseID:       r.CaseID,
		Verdict:      "AUTHENTIC",
		VerdictClass: "authentic",
		Confidence:   percent(r.Analysis.AverageConfidence),
		Generated:    r.GeneratedAt.Format("2006-01-02 15:04:05"),
	}
	if r.Analysis.IsDeepfake {
		page.Verdict = "LIKELY DEEPFAKE"
		page.VerdictClass = "fake"
	}

	title := cases.Title(language.Und)
	page.Sections = append(page.Sections, htmlSection{
		Title: "File Information",
		Table: renderHTMLTable([]string{"Property", "Value"}, [][]string{
			{"Filename", r.Analysis.Filename},
			{"Media Type", title.String(string(r.Analysis.MediaType))},
			{"Analysis Time", page.Generated},
		}),
	})

	predictionRows := make([][]string, 0, len(r.Analysis.ModelPredictions))
	for _, name := range slices.Sorted(maps.Keys(r.Analysis.ModelPredictions)) {
		verdict := "Authentic"
		if r.Analysis.ModelPredictions[name] {
			verdict = "Deepfake"
		}
		predictionRows = append(predictionRows, []string{name, verdict, percent(r.Analysis.ModelConfidences[name])})
	}
	page.Sections = append(page.Sections, htmlSection{
		Title: "Model Predictions",
		Table: renderHTMLTable([]string{"Model", "Result", "Confidence"}, predictionRows),
	})

	page.Sections = append(page.Sections, htmlSection{
		Title: "Metadata",
		Table: renderHTMLTable([]string{"Key", "Value"}, anyRows(r.Analysis.Metadata)),
	})

	if r.Forensics != nil {
		page.Sections = append(page.Sections, forensicSections(r.Forensics)...)
	}

	return pageTemplate.Execute(w, page)
}

func forensicSections(fr *forensics.Report) []htmlSection {
	var sections []htmlSection

	findings := [][]string{}
	for _, flag := range fr.Flags() {
		findings = append(findings, []string{flag, "flagged"})
	}
	if len(findings) == 0 {
		findings = append(findings, []string{"none", "no heuristic fired"})
	}
	sections = append(sections, htmlSection{
		Title: "Forensic Findings",
		Table: renderHTMLTable([]string{"Heuristic", "Status"}, findings),
	})

	if fr.FileHeaders != nil {
		h := fr.FileHeaders
		sections = append(sections, htmlSection{
			Title: "File Headers",
			Table: renderHTMLTable([]string{"Property", "Value"}, [][]string{
				{"Magic Bytes", h.MagicBytes},
				{"Magic ASCII", h.MagicASCII},
				{"Detected Type", h.DetectedExtension},
				{"Detected MIME", h.DetectedMIME},
				{"Extension Mismatch", fmt.Sprintf("%t", h.ExtensionMismatch)},
			}),
		})
	}

	if len(fr.Metadata) > 0 {
		rows := make([][]string, 0, len(fr.Metadata))
		for _, key := range slices.Sorted(maps.Keys(fr.Metadata)) {
			rows = append(rows, []string{key, truncate(fr.Metadata[key])})
		}
		sections = append(sections, htmlSection{
			Title: "EXIF Metadata",
			Table: renderHTMLTable([]string{"Tag", "Value"}, rows),
		})
	}

	if len(fr.Errors) > 0 {
		rows := make([][]string, 0, len(fr.Errors))
		for _, key := range slices.Sorted(maps.Keys(fr.Errors)) {
			rows = append(rows, []string{key, truncate(fr.Errors[key])})
		}
		sections = append(sections, htmlSection{
			Title: "Forensic Errors",
			Table: renderHTMLTable([]string{"Section", "Error"}, rows),
		})
	}
	return sections
}

func renderHTMLTable(headers []string, rows [][]string) template.HTML {
	tw := table.NewWriter()
	style := table.StyleDefault
	style.HTML = table.HTMLOptions{
		CSSClass:    "report-table",
		EmptyColumn: "&nbsp;",
		EscapeText:  true,
		Newline:     "<br/>",
	}
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	// go-pretty escapes cell text when EscapeText is set.
	return template.HTML(tw.RenderHTML())
}

func anyRows(values map[string]any) [][]string {
	rows := make([][]string, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		rows = append(rows, []string{key, truncate(fmt.Sprint(values[key]))})
	}
	return rows
}

func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxCellRunes {
		return value
	}
	return string(runes[:maxCellRunes])
}

func percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}

package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/eqv/internal"
	"github.com/gnoswap-labs/eqv/internal/equiv"
)

const padding = "  "

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	okStyle         = color.New(color.FgGreen, color.Bold)
	labelStyle      = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

// resultFormatter is the interface that wraps the ResultTemplate method.
// Implementations render one kind of outcome.
type resultFormatter interface {
	ResultTemplate() string
}

func getResultFormatter(r *internal.Result) resultFormatter {
	switch {
	case r.Err != nil:
		return &FailureFormatter{}
	case r.Report.Verdict == equiv.CounterexampleFound:
		return &CounterexampleFormatter{}
	case r.Report.Verdict == equiv.BoundExhausted:
		return &BoundExhaustedFormatter{}
	default:
		return &EquivalentFormatter{}
	}
}

// GenerateFormattedResult renders results in order as human-readable
// text.
func GenerateFormattedResult(results []*internal.Result) string {
	var builder strings.Builder
	for _, r := range results {
		builder.WriteString(buildResult(r, getResultFormatter(r)))
	}
	return builder.String()
}

/***** Result Formatter Builder *****/

type ResultData struct {
	Severity    string
	Label       string
	Filename    string
	Bound       int
	Attempts    int
	Cached      bool
	Message     string
	Divergences []equiv.Divergence
	Inputs      []equiv.Input
	IR          *equiv.IRReport
	Padding     string
}

func buildResult(r *internal.Result, formatter resultFormatter) string {
	data := ResultData{
		Filename: r.Filename,
		Cached:   r.Cached,
		Padding:  padding,
	}
	switch {
	case r.Err != nil:
		data.Severity, data.Label, data.Message = "ERROR", "check failed", r.Err.Error()
	case r.Report != nil:
		data.Bound = r.Report.Bound
		data.Attempts = len(r.Report.Steps)
		data.Divergences = r.Report.Divergences
		data.Inputs = r.Report.Inputs
		data.IR = r.Report.IR
		data.Message = r.Report.Reason.String()
		switch r.Report.Verdict {
		case equiv.CounterexampleFound:
			data.Severity, data.Label = "ERROR", "counterexample"
		case equiv.BoundExhausted:
			data.Severity, data.Label = "WARNING", "bound exhausted"
			data.Message = firstLine(r.Report.Detail)
		default:
			data.Severity, data.Label = "OK", "equivalent"
			data.Message = firstLine(r.Report.Detail)
		}
	}

	funcMap := template.FuncMap{
		"header":      header,
		"message":     message,
		"divergences": divergences,
		"inputs":      inputs,
		"ir":          ir,
	}

	tmpl := template.Must(template.New("result").Funcs(funcMap).Parse(formatter.ResultTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting result: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(severity, label, filename string, bound, attempts int, cached bool) string {
	var endString string
	switch severity {
	case "ERROR":
		endString = errorStyle.Sprint("error: ")
	case "WARNING":
		endString = warningStyle.Sprint("warning: ")
	default:
		endString = okStyle.Sprint("ok: ")
	}
	endString += labelStyle.Sprintf("%s\n", label)
	endString += lineStyle.Sprint(" --> ")
	endString += fileStyle.Sprint(filename)

	var info []string
	if bound > 0 {
		info = append(info, fmt.Sprintf("bound %d", bound))
	}
	if attempts > 1 {
		info = append(info, fmt.Sprintf("%d attempts", attempts))
	}
	if cached {
		info = append(info, "cached")
	}
	if len(info) > 0 {
		endString += " (" + strings.Join(info, ", ") + ")"
	}
	return endString + "\n"
}

func message(msg, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", msg)
}

func divergences(ds []equiv.Divergence, padding string) string {
	var endString string
	for _, d := range ds {
		endString += lineStyle.Sprintf("%s| ", padding)
		endString += fmt.Sprintf("%s: original %d, transformed %d\n", d.Name, d.Original, d.Transformed)
	}
	return endString
}

func inputs(in []equiv.Input, padding string) string {
	var endString string
	for _, v := range in {
		endString += lineStyle.Sprintf("%s| ", padding)
		endString += suggestionStyle.Sprint("input ") + fmt.Sprintf("%s = %d\n", v.Name, v.Value)
	}
	return endString
}

func ir(report *equiv.IRReport, padding string) string {
	if report == nil {
		return ""
	}
	var endString string
	endString += suggestionStyle.Sprint("IR(original):\n")
	endString += indent(report.Original, padding)
	endString += suggestionStyle.Sprint("IR(transformed):\n")
	endString += indent(report.Transformed, padding)
	return endString
}

func indent(s, padding string) string {
	if s == "" {
		return lineStyle.Sprintf("%s| ", padding) + "(empty)\n"
	}
	var endString string
	for _, line := range strings.Split(s, "\n") {
		endString += lineStyle.Sprintf("%s| ", padding) + line + "\n"
	}
	return endString
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

package equiv

import (
	"strings"

	"github.com/gnoswap-labs/eqv/internal/encode"
)

// IRReport captures the clauses of both encodings.
type IRReport struct {
	Original    string
	Transformed string
}

func (c *Checker) withDebugIR(report *Report, qr *query) *Report {
	if !c.opts.DebugIR {
		return report
	}

	ir := IRReport{
		Original:    formatEncodingIR(qr.original),
		Transformed: formatEncodingIR(qr.transformed),
	}
	report.IR = &ir

	report.Detail = strings.TrimSpace(report.Detail)
	if report.Detail != "" {
		report.Detail += "\n"
	}
	report.Detail += "IR(original):\n" + indentIR(ir.Original) + "\nIR(transformed):\n" + indentIR(ir.Transformed)
	return report
}

func formatEncodingIR(enc *encode.Encoding) string {
	var sb strings.Builder
	for _, c := range enc.Clauses {
		sb.WriteString(c.String() + "\n")
	}
	for _, r := range enc.Residuals {
		sb.WriteString("residual " + r.String() + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func indentIR(s string) string {
	if s == "" {
		return "  (empty)"
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

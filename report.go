package gdtools

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteText prints diagnostics in the canonical one-per-line form:
// <path>:<line>:<col>: <severity>: <message> [<rule-id>]
func WriteText(w io.Writer, diags []FileDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n",
			d.Path, d.Line, d.Col, d.Severity, d.Message, d.Rule)
	}
}

type jsonDiagnostic struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Rule      string `json:"rule"`
}

// WriteJSON prints diagnostics as a JSON array, empty input included, so
// the output is always valid to parse.
func WriteJSON(w io.Writer, diags []FileDiagnostic) error {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, jsonDiagnostic{
			Path:      d.Path,
			Line:      d.Line,
			Column:    d.Col,
			EndLine:   d.EndLine,
			EndColumn: d.EndCol,
			Severity:  d.Severity.String(),
			Message:   d.Message,
			Rule:      d.Rule,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

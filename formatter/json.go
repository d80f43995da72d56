package formatter

import (
	"encoding/json"

	"github.com/gnoswap-labs/eqv/internal"
)

type jsonResult struct {
	Verdict     string      `json:"verdict"`
	Reason      string      `json:"reason,omitempty"`
	Bound       int         `json:"bound,omitempty"`
	Divergences interface{} `json:"divergences,omitempty"`
	Inputs      interface{} `json:"inputs,omitempty"`
	Error       string      `json:"error,omitempty"`
	Cached      bool        `json:"cached,omitempty"`
}

// JSON renders results as an object keyed by file name.
func JSON(results []*internal.Result) ([]byte, error) {
	out := make(map[string]jsonResult, len(results))
	for _, r := range results {
		if r.Err != nil {
			out[r.Filename] = jsonResult{Verdict: "Error", Error: r.Err.Error()}
			continue
		}
		jr := jsonResult{
			Verdict: r.Report.Verdict.String(),
			Reason:  r.Report.Reason.String(),
			Bound:   r.Report.Bound,
			Cached:  r.Cached,
		}
		if len(r.Report.Divergences) > 0 {
			jr.Divergences = r.Report.Divergences
		}
		if len(r.Report.Inputs) > 0 {
			jr.Inputs = r.Report.Inputs
		}
		out[r.Filename] = jr
	}
	return json.Marshal(out)
}

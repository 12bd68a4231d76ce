// Package check smoke-tests the prediction backend by calling the
// first-wave endpoints with fixed sample values.
package check

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/edcb/wellbeing/internal/predict"
)

// Probe is one endpoint call made by Run
type Probe struct {
	Name     string
	Endpoint predict.Endpoint
	Params   []string
}

// DefaultProbes are the sample calls used by `wellbeing check`
var DefaultProbes = []Probe{
	{Name: "Addiction prediction", Endpoint: predict.EndpointAddiction, Params: []string{"6", "5"}},
	{Name: "Academic performance prediction", Endpoint: predict.EndpointPerformance, Params: []string{"6", "5"}},
	{Name: "Mental health prediction", Endpoint: predict.EndpointMentalHealth, Params: []string{"7", "2"}},
}

// Outcome is the result of one probe
type Outcome struct {
	Probe
	URL  string
	Body json.RawMessage
	Err  error
}

// Summary aggregates every probe outcome
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// SuccessRate is the share of probes that succeeded, in percent
func (s Summary) SuccessRate() float64 {
	total := s.Succeeded + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(total) * 100
}

// Run calls each probe in order and writes a report to w
func Run(ctx context.Context, client *predict.Client, probes []Probe, w io.Writer) Summary {
	var sum Summary

	for _, p := range probes {
		o := Outcome{Probe: p, URL: client.BuildURL(p.Endpoint, p.Params...)}
		fmt.Fprintf(w, "\nTesting: %s\nURL: %s\n", p.Name, o.URL)

		var body json.RawMessage
		if err := client.Get(ctx, p.Endpoint, &body, p.Params...); err != nil {
			o.Err = err
			sum.Failed++
			fmt.Fprintf(w, "FAILED: %v\n", err)
		} else {
			o.Body = body
			sum.Succeeded++
			fmt.Fprintf(w, "OK: %s\n", summarize(body))
		}
		sum.Outcomes = append(sum.Outcomes, o)
	}

	fmt.Fprintf(w, "\nSummary\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(w, "Succeeded: %d\nFailed: %d\nSuccess rate: %.1f%%\n", sum.Succeeded, sum.Failed, sum.SuccessRate())
	if sum.Failed > 0 {
		fmt.Fprintln(w, "\nFailing endpoints:")
		for _, o := range sum.Outcomes {
			if o.Err != nil {
				fmt.Fprintf(w, "- %s: %v\n", o.Name, o.Err)
			}
		}
	}
	return sum
}

// summarize lists the top-level keys of a JSON object; chart payloads are
// too large to print.
func summarize(body json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return fmt.Sprintf("%d bytes", len(body))
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "fields: " + strings.Join(keys, ", ")
}

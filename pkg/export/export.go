// Package export writes run reports in the formats downstream tooling
// consumes: a flat CSV of per-scenario symbol values, or the full report as
// JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/wyattarnold/StageLP-WSOP/app"
)

// WriteJSON writes the full report to w in JSON format.
func WriteJSON(w io.Writer, report *app.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteCSV writes one row per scenario symbol: stage costs first, then every
// variable in sorted order.
func WriteCSV(w io.Writer, report *app.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "probability", "symbol", "value"}); err != nil {
		return err
	}
	for _, sc := range report.Scenarios {
		prob := strconv.FormatFloat(sc.Probability, 'f', -1, 64)
		write := func(symbol string, v float64) error {
			return cw.Write([]string{sc.Scenario, prob, symbol, strconv.FormatFloat(v, 'f', -1, 64)})
		}
		if err := write("Objective", sc.Objective); err != nil {
			return err
		}
		for _, name := range sortedNames(sc.StageCosts) {
			if err := write(name, sc.StageCosts[name]); err != nil {
				return err
			}
		}
		for _, name := range sortedNames(sc.Values) {
			if err := write(name, sc.Values[name]); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedNames(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

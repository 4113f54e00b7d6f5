package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/wyattarnold/StageLP-WSOP/app"
)

func sampleReport() *app.Report {
	return &app.Report{
		RunID:        "run-1",
		Model:        "two_stage",
		ExpectedCost: 280,
		Scenarios: []app.ScenarioResult{
			{
				Scenario:    "S1",
				Probability: 0.7,
				Status:      "optimal",
				Objective:   400,
				StageCosts:  map[string]float64{"FirstStageCost": 400, "SecondStageCost": 0},
				Values:      map[string]float64{"LT_ACTION[LS_RETRO]": 80, "ST_Q[LS_RESTRICT]": 0},
			},
			{
				Scenario:    "S2",
				Probability: 0.3,
				Status:      "optimal",
				Objective:   0,
				StageCosts:  map[string]float64{"FirstStageCost": 0, "SecondStageCost": 0},
				Values:      map[string]float64{"LT_ACTION[LS_RETRO]": 0, "ST_Q[LS_RESTRICT]": 0},
			},
		},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got app.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if got.RunID != "run-1" || got.ExpectedCost != 280 || len(got.Scenarios) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Scenarios[0].Values["LT_ACTION[LS_RETRO]"] != 80 {
		t.Fatalf("values lost: %+v", got.Scenarios[0].Values)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Header plus 5 rows per scenario: objective, two stage costs, two values.
	if len(rows) != 1+2*5 {
		t.Fatalf("row count %d", len(rows))
	}
	header := rows[0]
	want := []string{"scenario", "probability", "symbol", "value"}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("header %v", header)
		}
	}
	if rows[1][0] != "S1" || rows[1][2] != "Objective" || rows[1][3] != "400" {
		t.Fatalf("first data row %v", rows[1])
	}
	// Stage costs precede variables, both in sorted order.
	if rows[2][2] != "FirstStageCost" || rows[4][2] != "LT_ACTION[LS_RETRO]" {
		t.Fatalf("row ordering: %v / %v", rows[2], rows[4])
	}
}

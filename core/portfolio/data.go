// Package portfolio defines the four water-supply portfolio planning models:
// decision variables for long-term capital actions, mid-term exploitation,
// and short-term recourse, coupled through shortage-coverage and capacity
// constraints, with scenario data loaded from JSON.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// TwoStageData is the input document of the two-stage models. Key names
// mirror the bundled data files and must not change.
type TwoStageData struct {
	LTMax     map[string]float64            `json:"LT_MAX"`
	LTQF      map[string]float64            `json:"LT_QF"`
	CLT       map[string]float64            `json:"C_LT"`
	STMax     map[string]float64            `json:"ST_MAX"`
	CST       map[string]float64            `json:"C_ST"`
	ShortageQ map[string]map[string]float64 `json:"SHORTAGE_Q"`
	ShortageP map[string]float64            `json:"SHORTAGE_P"`
}

// ThreeStageScenarioData is the input document of the three-stage scenario
// model. Shortage quantities and weights are nested per projection node.
type ThreeStageScenarioData struct {
	LTMax       map[string]float64                       `json:"LT_MAX"`
	LTQF        map[string]float64                       `json:"LT_QF"`
	CLT         map[string]float64                       `json:"C_LT"`
	MTMax       map[string]float64                       `json:"MT_MAX"`
	CMT         map[string]float64                       `json:"C_MT"`
	STMax       map[string]float64                       `json:"ST_MAX"`
	CST         map[string]float64                       `json:"C_ST"`
	ProjectionP map[string]float64                       `json:"PROJECTION_P"`
	ShortageQ   map[string]map[string]map[string]float64 `json:"SHORTAGE_Q"`
	ShortageP   map[string]map[string]float64            `json:"SHORTAGE_P"`
}

// ExpansionSite holds the economics of one long-term expansion option: a
// one-off permit cost, a power-law marginal construction cost
// p*multiplier*x^(p-1), and the operating-cost structure of the built
// capacity.
type ExpansionSite struct {
	PermitCost         float64 `json:"permit_cost"`
	P                  float64 `json:"p"`
	Multiplier         float64 `json:"multiplier"`
	ExpMax             float64 `json:"exp_max"`
	BaselineOpMinRatio float64 `json:"baseline_op_min_ratio"`
	BaselineOpCost     float64 `json:"baseline_op_cost"`
	VariableOpCost     float64 `json:"variable_op_cost"`
}

// ThreeStageData is the input document of the three-stage stochastic model.
type ThreeStageData struct {
	LTMin       map[string]float64                       `json:"LT_MIN"`
	LTMax       map[string]float64                       `json:"LT_MAX"`
	CLT         map[string]float64                       `json:"C_LT"`
	STMin       map[string]float64                       `json:"ST_MIN"`
	STMax       map[string]float64                       `json:"ST_MAX"`
	CST         map[string]float64                       `json:"C_ST"`
	LTExp       map[string]ExpansionSite                 `json:"LT_EXP"`
	ShortQMax   map[string]map[string]float64            `json:"SHORT_Q_MAX"`
	ShortCost   map[string]map[string]float64            `json:"SHORT_COST"`
	ProjectionP map[string]float64                       `json:"PROJECTION_P"`
	ShortageQ   map[string]map[string]map[string]float64 `json:"SHORTAGE_Q"`
	ShortageP   map[string]map[string]float64            `json:"SHORTAGE_P"`
}

// decodeStrict unmarshals raw into out after checking the document's
// top-level keys match exactly the required set: a missing key is named
// rather than surfacing later as a zero map, and an unknown key is rejected
// instead of being silently ignored.
func decodeStrict(raw []byte, required []string, out any) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return fmt.Errorf("portfolio: parse data: %w", err)
	}
	for _, k := range required {
		if _, ok := top[k]; !ok {
			return fmt.Errorf("portfolio: data missing required key %q", k)
		}
	}
	want := make(map[string]bool, len(required))
	for _, k := range required {
		want[k] = true
	}
	for k := range top {
		if !want[k] {
			return fmt.Errorf("portfolio: data has unknown key %q", k)
		}
	}
	return json.Unmarshal(raw, out)
}

var twoStageKeys = []string{"LT_MAX", "LT_QF", "C_LT", "ST_MAX", "C_ST", "SHORTAGE_Q", "SHORTAGE_P"}

// RequiredTwoStageKeys returns the exact top-level key set of a two-stage
// data document.
func RequiredTwoStageKeys() []string { return append([]string(nil), twoStageKeys...) }

// LoadTwoStageData reads and validates a two-stage data file.
func LoadTwoStageData(path string) (*TwoStageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("portfolio: read %s: %w", path, err)
	}
	return ParseTwoStageData(raw)
}

// ParseTwoStageData decodes and validates a two-stage data document.
func ParseTwoStageData(raw []byte) (*TwoStageData, error) {
	var d TwoStageData
	if err := decodeStrict(raw, twoStageKeys, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks non-negativity and key agreement across the maps.
func (d *TwoStageData) Validate() error {
	if err := sameKeys("LT_MAX", d.LTMax, "LT_QF", d.LTQF); err != nil {
		return err
	}
	if err := sameKeys("LT_MAX", d.LTMax, "C_LT", d.CLT); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "C_ST", d.CST); err != nil {
		return err
	}
	if err := nonNegative("LT_MAX", d.LTMax); err != nil {
		return err
	}
	if err := nonNegative("ST_MAX", d.STMax); err != nil {
		return err
	}
	for sc := range d.ShortageQ {
		if _, ok := d.ShortageP[sc]; !ok {
			return fmt.Errorf("portfolio: scenario %s has SHORTAGE_Q but no SHORTAGE_P weight", sc)
		}
	}
	for sc := range d.ShortageP {
		if _, ok := d.ShortageQ[sc]; !ok {
			return fmt.Errorf("portfolio: scenario %s has SHORTAGE_P but no SHORTAGE_Q entry", sc)
		}
	}
	return nil
}

var threeStageScenarioKeys = []string{
	"LT_MAX", "LT_QF", "C_LT", "MT_MAX", "C_MT", "ST_MAX", "C_ST",
	"PROJECTION_P", "SHORTAGE_Q", "SHORTAGE_P",
}

// RequiredThreeStageScenarioKeys returns the exact top-level key set of a
// three-stage scenario data document.
func RequiredThreeStageScenarioKeys() []string {
	return append([]string(nil), threeStageScenarioKeys...)
}

// LoadThreeStageScenarioData reads and validates a three-stage scenario data
// file.
func LoadThreeStageScenarioData(path string) (*ThreeStageScenarioData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("portfolio: read %s: %w", path, err)
	}
	return ParseThreeStageScenarioData(raw)
}

// ParseThreeStageScenarioData decodes and validates a three-stage scenario
// data document.
func ParseThreeStageScenarioData(raw []byte) (*ThreeStageScenarioData, error) {
	var d ThreeStageScenarioData
	if err := decodeStrict(raw, threeStageScenarioKeys, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks non-negativity, key agreement and the per-projection
// nesting of the stochastic maps.
func (d *ThreeStageScenarioData) Validate() error {
	if err := sameKeys("LT_MAX", d.LTMax, "LT_QF", d.LTQF); err != nil {
		return err
	}
	if err := sameKeys("LT_MAX", d.LTMax, "C_LT", d.CLT); err != nil {
		return err
	}
	if err := sameKeys("MT_MAX", d.MTMax, "C_MT", d.CMT); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "C_ST", d.CST); err != nil {
		return err
	}
	for _, m := range []struct {
		name string
		vals map[string]float64
	}{{"LT_MAX", d.LTMax}, {"MT_MAX", d.MTMax}, {"ST_MAX", d.STMax}} {
		if err := nonNegative(m.name, m.vals); err != nil {
			return err
		}
	}
	for proj := range d.ProjectionP {
		if _, ok := d.ShortageQ[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORTAGE_Q block", proj)
		}
		if _, ok := d.ShortageP[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORTAGE_P block", proj)
		}
	}
	for proj, block := range d.ShortageP {
		for sc := range block {
			if _, ok := d.ShortageQ[proj][sc]; !ok {
				return fmt.Errorf("portfolio: scenario %s under %s has a weight but no SHORTAGE_Q entry", sc, proj)
			}
		}
	}
	return nil
}

var threeStageKeys = []string{
	"LT_MIN", "LT_MAX", "C_LT", "ST_MIN", "ST_MAX", "C_ST", "LT_EXP",
	"SHORT_Q_MAX", "SHORT_COST", "PROJECTION_P", "SHORTAGE_Q", "SHORTAGE_P",
}

// RequiredThreeStageKeys returns the exact top-level key set of the
// three-stage stochastic data document.
func RequiredThreeStageKeys() []string { return append([]string(nil), threeStageKeys...) }

// LoadThreeStageData reads and validates a three-stage stochastic data file.
func LoadThreeStageData(path string) (*ThreeStageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("portfolio: read %s: %w", path, err)
	}
	return ParseThreeStageData(raw)
}

// ParseThreeStageData decodes and validates a three-stage stochastic data
// document.
func ParseThreeStageData(raw []byte) (*ThreeStageData, error) {
	var d ThreeStageData
	if err := decodeStrict(raw, threeStageKeys, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks non-negativity, expansion-site economics and the per-node
// shortage bucket tables.
func (d *ThreeStageData) Validate() error {
	if err := sameKeys("LT_MAX", d.LTMax, "LT_MIN", d.LTMin); err != nil {
		return err
	}
	if err := sameKeys("LT_MAX", d.LTMax, "C_LT", d.CLT); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "ST_MIN", d.STMin); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "C_ST", d.CST); err != nil {
		return err
	}
	if err := nonNegative("LT_MAX", d.LTMax); err != nil {
		return err
	}
	if err := nonNegative("ST_MAX", d.STMax); err != nil {
		return err
	}
	for site, e := range d.LTExp {
		if e.P <= 1 {
			return fmt.Errorf("portfolio: expansion site %s needs power-law exponent above 1, got %g", site, e.P)
		}
		if e.Multiplier < 0 || e.PermitCost < 0 || e.BaselineOpCost < 0 || e.VariableOpCost < 0 {
			return fmt.Errorf("portfolio: expansion site %s has a negative cost", site)
		}
		if e.ExpMax <= 0 {
			return fmt.Errorf("portfolio: expansion site %s needs a positive exp_max", site)
		}
		if e.BaselineOpMinRatio < 0 || e.BaselineOpMinRatio > 1 {
			return fmt.Errorf("portfolio: expansion site %s baseline_op_min_ratio %g outside [0,1]", site, e.BaselineOpMinRatio)
		}
	}
	projs := sortedKeys(d.ProjectionP)
	for _, proj := range projs {
		if _, ok := d.ShortQMax[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORT_Q_MAX block", proj)
		}
		if _, ok := d.ShortCost[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORT_COST block", proj)
		}
		if _, ok := d.ShortageQ[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORTAGE_Q block", proj)
		}
		if _, ok := d.ShortageP[proj]; !ok {
			return fmt.Errorf("portfolio: projection %s has no SHORTAGE_P block", proj)
		}
	}
	// Every projection must carry the same shortage buckets; a gap here would
	// otherwise instantiate a zero cap and zero cost instead of failing.
	for i, proj := range projs {
		if err := sameKeys("SHORT_Q_MAX["+proj+"]", d.ShortQMax[proj], "SHORT_COST["+proj+"]", d.ShortCost[proj]); err != nil {
			return err
		}
		if i > 0 {
			ref := projs[0]
			if err := sameKeys("SHORT_Q_MAX["+ref+"]", d.ShortQMax[ref], "SHORT_Q_MAX["+proj+"]", d.ShortQMax[proj]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Buckets returns the shortage bucket names, taken from an arbitrary
// projection block since every block must carry the same set.
func (d *ThreeStageData) Buckets() []string {
	for _, block := range d.ShortQMax {
		return sortedKeys(block)
	}
	return nil
}

func sameKeys(nameA string, a map[string]float64, nameB string, b map[string]float64) error {
	for k := range a {
		if _, ok := b[k]; !ok {
			return fmt.Errorf("portfolio: key %s present in %s but missing from %s", k, nameA, nameB)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return fmt.Errorf("portfolio: key %s present in %s but missing from %s", k, nameB, nameA)
		}
	}
	return nil
}

func nonNegative(name string, m map[string]float64) error {
	for k, v := range m {
		if v < 0 {
			return fmt.Errorf("portfolio: %s[%s] is negative (%g)", name, k, v)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

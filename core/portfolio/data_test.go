package portfolio

import (
	"strings"
	"testing"
)

const twoStageDoc = `{
  "LT_MAX": {"LS_RETRO": 100, "OPTION": 150},
  "LT_QF": {"LS_RETRO": 1, "OPTION": 1},
  "C_LT": {"LS_RETRO": 5, "OPTION": 2},
  "ST_MAX": {"LS_RESTRICT": 50, "EX_OPTION": 150},
  "C_ST": {"LS_RESTRICT": 20, "EX_OPTION": 9},
  "SHORTAGE_Q": {"S1": {"SH": 0}, "S2": {"SH": 80}},
  "SHORTAGE_P": {"S1": 0.6, "S2": 0.4}
}`

func TestParseTwoStageData(t *testing.T) {
	d, err := ParseTwoStageData([]byte(twoStageDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.LTMax["LS_RETRO"] != 100 || d.CST["EX_OPTION"] != 9 {
		t.Fatalf("unexpected values: %+v", d)
	}
	if d.ShortageQ["S2"]["SH"] != 80 {
		t.Fatalf("shortage block wrong: %+v", d.ShortageQ)
	}
}

func TestParseTwoStageDataMissingKey(t *testing.T) {
	doc := strings.Replace(twoStageDoc, `"C_ST"`, `"COST_ST"`, 1)
	_, err := ParseTwoStageData([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "C_ST") {
		t.Fatalf("expected named missing-key error, got %v", err)
	}
}

func TestParseTwoStageDataUnknownKey(t *testing.T) {
	doc := strings.Replace(twoStageDoc, "}\n}", `},
  "EXTRA": 1
}`, 1)
	_, err := ParseTwoStageData([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "EXTRA") {
		t.Fatalf("expected unknown-key error, got %v", err)
	}
}

func TestTwoStageDataKeyAgreement(t *testing.T) {
	doc := strings.Replace(twoStageDoc, `"LT_QF": {"LS_RETRO": 1, "OPTION": 1}`, `"LT_QF": {"LS_RETRO": 1}`, 1)
	if _, err := ParseTwoStageData([]byte(doc)); err == nil {
		t.Fatal("expected key-agreement error between LT_MAX and LT_QF")
	}
}

func TestTwoStageDataOrphanScenario(t *testing.T) {
	doc := strings.Replace(twoStageDoc, `"SHORTAGE_P": {"S1": 0.6, "S2": 0.4}`, `"SHORTAGE_P": {"S1": 0.6, "S2": 0.3, "S3": 0.1}`, 1)
	if _, err := ParseTwoStageData([]byte(doc)); err == nil {
		t.Fatal("expected error for weight without a shortage entry")
	}
}

func TestRequiredKeySets(t *testing.T) {
	if got := len(RequiredTwoStageKeys()); got != 7 {
		t.Fatalf("two-stage key count %d", got)
	}
	if got := len(RequiredThreeStageScenarioKeys()); got != 10 {
		t.Fatalf("three-stage scenario key count %d", got)
	}
	if got := len(RequiredThreeStageKeys()); got != 12 {
		t.Fatalf("three-stage key count %d", got)
	}
}

func TestLoadBundledDataFiles(t *testing.T) {
	if _, err := LoadTwoStageData("../../data/two_stage_data_dict.json"); err != nil {
		t.Fatalf("two-stage data: %v", err)
	}
	if _, err := LoadTwoStageData("../../data/two_stage_template_data.json"); err != nil {
		t.Fatalf("template data: %v", err)
	}
	if _, err := LoadThreeStageScenarioData("../../data/three_stage_scenario_data_dict.json"); err != nil {
		t.Fatalf("three-stage scenario data: %v", err)
	}
	if _, err := LoadThreeStageData("../../data/model_data.json"); err != nil {
		t.Fatalf("three-stage data: %v", err)
	}
}

func TestExpansionSiteValidation(t *testing.T) {
	base := func() *ThreeStageData {
		d, err := LoadThreeStageData("../../data/model_data.json")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return d
	}

	d := base()
	s := d.LTExp["DESAL"]
	s.P = 1
	d.LTExp["DESAL"] = s
	if err := d.Validate(); err == nil {
		t.Fatal("expected p<=1 to fail validation")
	}

	d = base()
	s = d.LTExp["DESAL"]
	s.ExpMax = 0
	d.LTExp["DESAL"] = s
	if err := d.Validate(); err == nil {
		t.Fatal("expected zero exp_max to fail validation")
	}

	d = base()
	s = d.LTExp["DESAL"]
	s.BaselineOpMinRatio = 1.5
	d.LTExp["DESAL"] = s
	if err := d.Validate(); err == nil {
		t.Fatal("expected out-of-range baseline ratio to fail validation")
	}
}

func TestBuckets(t *testing.T) {
	d, err := LoadThreeStageData("../../data/model_data.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := d.Buckets()
	if len(got) != 2 || got[0] != "UNMET_AG" || got[1] != "UNMET_MUNI" {
		t.Fatalf("buckets %v", got)
	}
}

func TestThreeStageBucketMismatchRejected(t *testing.T) {
	d, err := LoadThreeStageData("../../data/model_data.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	delete(d.ShortCost["P2"], "UNMET_AG")
	if err := d.Validate(); err == nil || !strings.Contains(err.Error(), "UNMET_AG") {
		t.Fatalf("SHORT_COST bucket gap should be rejected, got %v", err)
	}

	d, err = LoadThreeStageData("../../data/model_data.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	delete(d.ShortQMax["P3"], "UNMET_MUNI")
	if err := d.Validate(); err == nil || !strings.Contains(err.Error(), "UNMET_MUNI") {
		t.Fatalf("SHORT_Q_MAX bucket gap should be rejected, got %v", err)
	}
}

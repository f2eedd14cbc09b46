package capability

import "testing"

func TestNormalize_FencedJSON(t *testing.T) {
	out, ok := Normalize("```json\n{\"a\":1}\n```")
	if !ok {
		t.Fatal("Expected ok for fenced JSON")
	}
	if out["a"] != float64(1) {
		t.Errorf("Expected a=1, got %v", out["a"])
	}
}

func TestNormalize_ProseWrapped(t *testing.T) {
	out, ok := Normalize(`Sure! {"a":1} Thanks.`)
	if !ok {
		t.Fatal("Expected ok for prose-wrapped JSON")
	}
	if out["a"] != float64(1) {
		t.Errorf("Expected a=1, got %v", out["a"])
	}
}

func TestNormalize_NotJSON(t *testing.T) {
	out, ok := Normalize("not json at all")
	if ok {
		t.Error("Expected ok=false for garbage input")
	}
	if out == nil || len(out) != 0 {
		t.Errorf("Expected empty map, got %v", out)
	}
}

func TestNormalize_CleanJSON(t *testing.T) {
	out, ok := Normalize(`{"risks": [{"risk": "Unlimited liability", "severity": "CRITICAL"}]}`)
	if !ok {
		t.Fatal("Expected ok for clean JSON")
	}
	if _, present := out["risks"]; !present {
		t.Error("Expected risks key")
	}
}

func TestNormalize_NestedBracesInProse(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"outer\": {\"inner\": 2}}\n```\nLet me know if you need more."
	out, ok := Normalize(raw)
	if !ok {
		t.Fatal("Expected ok")
	}
	inner, ok := out["outer"].(map[string]any)
	if !ok || inner["inner"] != float64(2) {
		t.Errorf("Unexpected nested value: %v", out)
	}
}

func TestNormalize_EmptyString(t *testing.T) {
	if _, ok := Normalize(""); ok {
		t.Error("Expected ok=false for empty string")
	}
}

func TestDecodeInto(t *testing.T) {
	record := map[string]any{
		"risks": []any{
			map[string]any{"risk": "No liability cap", "severity": "HIGH", "risk_type": "MISSING_CLAUSE"},
		},
		"unknown_field": "ignored",
	}

	var out struct {
		Risks []struct {
			Risk     string `json:"risk"`
			Severity string `json:"severity"`
		} `json:"risks"`
	}
	if err := DecodeInto(record, &out); err != nil {
		t.Fatalf("DecodeInto failed: %v", err)
	}
	if len(out.Risks) != 1 || out.Risks[0].Severity != "HIGH" {
		t.Errorf("Unexpected decode result: %+v", out)
	}
}

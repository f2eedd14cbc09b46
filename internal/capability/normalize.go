// Package capability is the single chokepoint through which every external
// analysis call passes: it normalizes raw model replies into structured
// records and drives completions with uniform retry, rate-limit, and
// state-isolation policy.
package capability

import (
	"encoding/json"
	"log"
	"strings"
)

// Normalize turns a raw capability reply into a validated structured record.
// The input is either a clean JSON object or free text containing one,
// possibly wrapped in code fences or surrounded by prose. On failure it
// returns an empty value and false, never an error: callers must treat
// "empty" as "the capability returned nothing usable", not as a fatal fault,
// because a multi-minute pipeline must not crash over one malformed reply.
func Normalize(raw string) (map[string]any, bool) {
	// 1. Strip fence markers and try a strict parse
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, true
	}

	// 2. Extract from first { to last }
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err == nil {
			return out, true
		}
	}

	truncated := raw
	if len(truncated) > 500 {
		truncated = truncated[:500]
	}
	log.Printf("JSON parse error: could not normalize capability output, raw (truncated): %q", truncated)
	return map[string]any{}, false
}

// DecodeInto maps a normalized record onto a typed struct via a JSON
// round-trip. Unrecognized fields are dropped and missing fields keep their
// zero values, so a partially-valid reply degrades instead of failing.
func DecodeInto(record map[string]any, out any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/ppiankov/startupscout/internal/model"
)

// jsonArray grabs everything from the first "[{" to the last "}]", across
// lines. Greedy on purpose: nested arrays inside objects stay intact.
var jsonArray = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// ParseResponse pulls extraction records out of free-form model output.
//
// The output may wrap the array in prose or code fences. Elements that are not
// JSON objects are skipped. Missing or null fields become empty strings, and
// non-string values keep their JSON text.
func ParseResponse(raw string) ([]model.ExtractionRecord, error) {
	match := jsonArray.FindString(raw)
	if match == "" {
		return nil, model.ErrNoJSONArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedOutput, err)
	}

	records := make([]model.ExtractionRecord, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}

		records = append(records, model.ExtractionRecord{
			StartupName: fieldString(obj, model.FieldStartupName),
			Location:    fieldString(obj, model.FieldLocation),
			CompanyURL:  fieldString(obj, model.FieldCompanyURL),
			Description: fieldString(obj, model.FieldDescription),
		})
	}

	return records, nil
}

// fieldString coerces a single JSON value to text
func fieldString(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(raw)
}

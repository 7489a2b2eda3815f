package extract

import "github.com/ppiankov/startupscout/internal/model"

// Keep reports whether a record carries any information worth storing
func Keep(rec model.ExtractionRecord) bool {
	return !rec.IsEmpty()
}

// Gate splits records into the ones to persist and a count of dropped ones.
// Order of kept records is preserved.
func Gate(records []model.ExtractionRecord) ([]model.ExtractionRecord, int) {
	kept := make([]model.ExtractionRecord, 0, len(records))
	for _, rec := range records {
		if Keep(rec) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

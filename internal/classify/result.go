package classify

// Field is one key/value pair extracted from a document. Fields keep the
// order the OCR engine produced them in; keys are unique within a result.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Result is the structured outcome of one classification call. It is
// produced once per pending file and never mutated afterwards.
type Result struct {
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary,omitempty"`
	Fields          []Field  `json:"extractedFields,omitempty"`
	Tags            []string `json:"suggestedTags,omitempty"`
	SuggestedExpiry string   `json:"suggestedExpiryDate,omitempty"`
	EngineID        string   `json:"ocrEngineId,omitempty"`
	LineCount       int      `json:"ocrLineCount"`
	SavedDocumentID int64    `json:"savedDocumentId,omitempty"`
}

// dedupeFields drops later duplicates so keys stay unique while preserving
// the engine's ordering.
func dedupeFields(fields []Field) []Field {
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Key]; ok {
			continue
		}
		seen[f.Key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// dedupeTags keeps the first occurrence of each tag.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

package domain

// Analysis is the structured outcome of whole-document analysis.
type Analysis struct {
	// Summary is a short prose summary of the document.
	Summary string `json:"summary"`

	// KeyPoints lists the document's main findings.
	KeyPoints []string `json:"keyPoints"`

	// Tags are suggested classification labels.
	Tags []string `json:"tags"`

	// Error is set when the analyzer fell back to an error-shaped
	// result; the remaining fields then hold safe defaults so callers
	// can render the analysis without nil checks.
	Error string `json:"error,omitempty"`
}

// FallbackAnalysis builds the error-shaped analysis used when the
// model's output could not be parsed or the provider stayed
// unavailable through all retries.
func FallbackAnalysis(reason string) Analysis {
	return Analysis{
		Summary:   "Analysis is currently unavailable for this document.",
		KeyPoints: []string{},
		Tags:      []string{},
		Error:     reason,
	}
}

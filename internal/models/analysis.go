package models

// AnalysisResult is the payload the analysis service returns for one report
// image. The wire format matches the service contract exactly: a truthy
// Success field, a plain-language Explanation, an ordered list of Highlights
// and the raw OCR text (which may be empty).
type AnalysisResult struct {
	Success     bool     `json:"success"`
	Explanation string   `json:"explanation"`
	Highlights  []string `json:"highlights"`
	RawText     string   `json:"raw_text"`
}

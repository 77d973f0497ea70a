package controller

// ViewState is everything a view layer needs to draw the page. It is a pure
// function of the controller's state: no field requires the view to keep
// history of its own.
type ViewState struct {
	Phase    Phase
	Dragging bool

	// FileName and PreviewURL are empty when no file is selected; an empty
	// FileName means the upload prompt is shown and the preview hidden.
	FileName   string
	PreviewURL string

	Loading        bool
	AnalyzeEnabled bool

	// Error is the message to display, already prefixed where the design
	// calls for it. Empty means no error shown.
	Error string

	// Result is nil until an analysis succeeds. A non-nil Result means the
	// results area is revealed; views should scroll it into view on the
	// transition from nil. Highlight entries are literal text and must
	// never be interpreted as markup.
	Result *RenderedResult

	Sections Sections
}

// RenderedResult is the display form of an analysis result, with the
// raw-text placeholder already applied.
type RenderedResult struct {
	Explanation string
	Highlights  []string
	RawText     string
}

// Section identifies one collapsible results section.
type Section string

const (
	SectionExplanation Section = "explanation"
	SectionHighlights  Section = "highlights"
	SectionRawText     Section = "rawText"
)

// Sections holds the collapsed state of the three results sections. The
// indicator-rotation state of each toggle mirrors its collapsed flag, so it
// is not tracked separately. State is not persisted across page loads.
type Sections struct {
	ExplanationCollapsed bool
	HighlightsCollapsed  bool
	RawTextCollapsed     bool
}

// Toggle flips a single section's collapsed state.
func (s *Sections) Toggle(sec Section) {
	switch sec {
	case SectionExplanation:
		s.ExplanationCollapsed = !s.ExplanationCollapsed
	case SectionHighlights:
		s.HighlightsCollapsed = !s.HighlightsCollapsed
	case SectionRawText:
		s.RawTextCollapsed = !s.RawTextCollapsed
	}
}

// Collapsed reports one section's collapsed state.
func (s *Sections) Collapsed(sec Section) bool {
	switch sec {
	case SectionExplanation:
		return s.ExplanationCollapsed
	case SectionHighlights:
		return s.HighlightsCollapsed
	case SectionRawText:
		return s.RawTextCollapsed
	}
	return false
}

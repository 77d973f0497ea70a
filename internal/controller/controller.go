// Package controller implements the upload page's interaction logic as a
// view-independent state machine: select or drop a report image, validate
// it, submit it for analysis and hand the outcome to a View for rendering.
// Any widget layer (wasm DOM bindings, a desktop shell, tests) owns the
// actual drawing; the controller owns all state.
package controller

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"

	"github.com/reportlens/backend/internal/models"
	"github.com/reportlens/backend/internal/policy"
)

// Phase is the derived state of the interaction.
type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhasePreviewing Phase = "previewing"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Validation messages shown to the user.
const (
	MsgInvalidType = "Please upload a valid image file (JPEG, PNG, BMP, or TIFF)"
	MsgTooLarge    = "File size must be less than 10MB"
)

// noTextPlaceholder is rendered when the service extracted no raw text.
const noTextPlaceholder = "No text extracted"

// Candidate is a user-chosen file offered to the controller. MediaType is
// the type declared by the picker or drop source, not sniffed content.
type Candidate struct {
	Name      string
	MediaType string
	Size      int64
	Data      []byte
}

// SelectedFile is the single image currently held for analysis.
type SelectedFile struct {
	Name      string
	MediaType string
	Size      int64
	Data      []byte
}

// AnalyzeClient submits one image to the analysis service.
type AnalyzeClient interface {
	Analyze(ctx context.Context, name, mediaType string, r io.Reader) (*models.AnalysisResult, error)
}

// View receives a full state snapshot after every event. Render must not
// call back into the controller.
type View interface {
	Render(ViewState)
}

// Controller drives the upload page. It is not safe for concurrent use;
// drive it from a single goroutine, the way a UI event loop would.
type Controller struct {
	client AnalyzeClient
	view   View
	pol    *policy.Policy

	file     *SelectedFile
	preview  string
	result   *models.AnalysisResult
	errMsg   string
	dragging bool
	loading  bool
	failed   bool
	sections Sections
}

// New creates a controller with the default validation policy.
func New(client AnalyzeClient, view View) *Controller {
	return NewWithPolicy(client, view, policy.Default())
}

// NewWithPolicy creates a controller with a custom validation policy.
func NewWithPolicy(client AnalyzeClient, view View, pol *policy.Policy) *Controller {
	return &Controller{client: client, view: view, pol: pol}
}

// SelectFile validates a candidate and, on success, makes it the selected
// file. Rejection surfaces a message and changes nothing else: an existing
// selection, preview and result all stay as they were.
func (c *Controller) SelectFile(cand Candidate) {
	switch err := c.pol.Validate(cand.MediaType, cand.Size); err {
	case policy.ErrInvalidType:
		c.errMsg = MsgInvalidType
		c.render()
		return
	case policy.ErrTooLarge:
		c.errMsg = MsgTooLarge
		c.render()
		return
	}

	c.file = &SelectedFile{
		Name:      cand.Name,
		MediaType: cand.MediaType,
		Size:      cand.Size,
		Data:      cand.Data,
	}
	c.preview = dataURL(cand.MediaType, cand.Data)
	c.result = nil
	c.errMsg = ""
	c.failed = false
	c.render()
}

// DragOver marks the drop zone as active.
func (c *Controller) DragOver() {
	c.dragging = true
	c.render()
}

// DragLeave clears the drop zone indicator.
func (c *Controller) DragLeave() {
	c.dragging = false
	c.render()
}

// Drop handles a dropped file set. Only the first file is considered;
// additional files are ignored. An empty drop just clears the indicator.
func (c *Controller) Drop(cands []Candidate) {
	c.dragging = false
	if len(cands) == 0 {
		c.render()
		return
	}
	c.SelectFile(cands[0])
}

// Remove clears the selected file, preview, error and result, disabling the
// analyze action. Views must also reset their file picker input when
// rendering a state with no selected file, so re-selecting the identical
// file fires a fresh change notification.
func (c *Controller) Remove() {
	c.file = nil
	c.preview = ""
	c.result = nil
	c.errMsg = ""
	c.failed = false
	c.render()
}

// Analyze submits the selected file to the analysis service. It is a no-op
// when nothing is selected or a submission is already in flight. The
// loading indicator and disabled analyze action are rendered before the
// request is issued, and unconditionally reverted when it finishes. A
// failed attempt leaves the selected file in place for retry.
func (c *Controller) Analyze(ctx context.Context) {
	if c.file == nil || c.loading {
		return
	}

	c.loading = true
	c.errMsg = ""
	c.result = nil
	c.failed = false
	c.render()

	defer func() {
		c.loading = false
		c.render()
	}()

	result, err := c.client.Analyze(ctx, c.file.Name, c.file.MediaType, bytes.NewReader(c.file.Data))
	if err != nil {
		c.errMsg = "Error: " + err.Error()
		c.failed = true
		return
	}

	c.result = result
}

// ToggleSection flips one collapsible section's state. Other sections are
// untouched.
func (c *Controller) ToggleSection(s Section) {
	c.sections.Toggle(s)
	c.render()
}

// Selected returns the current selected file, or nil.
func (c *Controller) Selected() *SelectedFile {
	return c.file
}

// State returns the current view snapshot without rendering it.
func (c *Controller) State() ViewState {
	return c.snapshot()
}

func (c *Controller) render() {
	if c.view != nil {
		c.view.Render(c.snapshot())
	}
}

func (c *Controller) snapshot() ViewState {
	st := ViewState{
		Phase:          c.phase(),
		Dragging:       c.dragging,
		PreviewURL:     c.preview,
		Loading:        c.loading,
		AnalyzeEnabled: c.file != nil && !c.loading,
		Error:          c.errMsg,
		Sections:       c.sections,
	}
	if c.file != nil {
		st.FileName = c.file.Name
	}
	if c.result != nil {
		st.Result = renderResult(c.result)
	}
	return st
}

func (c *Controller) phase() Phase {
	switch {
	case c.loading:
		return PhaseAnalyzing
	case c.result != nil:
		return PhaseSucceeded
	case c.failed:
		return PhaseFailed
	case c.file != nil:
		return PhasePreviewing
	default:
		return PhaseEmpty
	}
}

// renderResult maps a wire result to its display form.
func renderResult(res *models.AnalysisResult) *RenderedResult {
	rendered := &RenderedResult{
		Explanation: res.Explanation,
		Highlights:  append([]string(nil), res.Highlights...),
		RawText:     res.RawText,
	}
	if rendered.RawText == "" {
		rendered.RawText = noTextPlaceholder
	}
	return rendered
}

// dataURL builds the displayable preview representation of the image.
func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

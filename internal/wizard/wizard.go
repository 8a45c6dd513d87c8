package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pharmarawasy-del/Delala/pkg/types"
)

type Step string

const (
	StepCategory   Step = "category-select"
	StepDetails    Step = "detail-entry"
	StepReview     Step = "review"
	StepSubmitting Step = "submitting"
	StepDone       Step = "done"
)

var (
	ErrInvalidCategory   = errors.New("unknown category")
	ErrInvalidCity       = errors.New("unknown city")
	ErrMissingFields     = errors.New("title, price, city and phone are required")
	ErrWrongStep         = errors.New("action not allowed in current step")
	ErrAlreadySubmitting = errors.New("publish already in flight")
)

// Wizard drives one ad submission: category pick, detail entry, review,
// publish. It owns the draft exclusively; all transitions run under one
// lock, and the submitting flag turns a second publish signal into a no-op.
type Wizard struct {
	mu sync.Mutex

	id         string
	step       Step
	draft      *types.DraftAd
	submitting bool
	touchedAt  time.Time
}

func New(id string) *Wizard {
	return &Wizard{
		id:        id,
		step:      StepCategory,
		draft:     &types.DraftAd{},
		touchedAt: time.Now(),
	}
}

func (w *Wizard) ID() string {
	return w.id
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns the wizard-owned draft. Callers must treat it as read-only;
// mutations go through the wizard's transitions.
func (w *Wizard) Draft() *types.DraftAd {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *Wizard) SelectCategory(category string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepCategory {
		return ErrWrongStep
	}

	if !types.ValidCategory(category) {
		return ErrInvalidCategory
	}

	w.draft.Category = types.Category(category)
	w.step = StepDetails
	w.touch()
	return nil
}

// SetDetails records the detail form and advances to review. Title, price,
// city and phone must all be present; description stays optional.
func (w *Wizard) SetDetails(title string, price int64, city, phone, description string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDetails && w.step != StepReview {
		return ErrWrongStep
	}

	if title == "" || phone == "" || price < 0 {
		return ErrMissingFields
	}
	if !types.ValidCity(city) {
		return ErrInvalidCity
	}

	w.draft.Title = title
	w.draft.Price = price
	w.draft.City = city
	w.draft.Phone = phone
	w.draft.Description = description
	w.step = StepReview
	w.touch()
	return nil
}

// Back returns from review to detail entry, preserving every draft field
// and image selection.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepReview:
		w.step = StepDetails
	case StepDetails:
		w.step = StepCategory
	}
	w.touch()
}

// AddImages appends selections up to the quota. Files beyond the remaining
// quota are silently dropped and a notice is recorded on the draft. Images
// can only change during detail entry and review; once a publish is in
// flight the draft is frozen so the upload batch iterates a stable slice.
func (w *Wizard) AddImages(files []types.SelectedImage) (added, dropped int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDetails && w.step != StepReview {
		return 0, len(files)
	}

	remaining := types.MaxDraftImages - len(w.draft.Images)
	if remaining < 0 {
		remaining = 0
	}

	if len(files) > remaining {
		dropped = len(files) - remaining
		files = files[:remaining]
	}

	w.draft.Images = append(w.draft.Images, files...)
	added = len(files)

	if dropped > 0 {
		w.draft.Notice = fmt.Sprintf("تم تجاهل %d صورة، الحد الأقصى %d صور", dropped, types.MaxDraftImages)
	}

	w.touch()
	return added, dropped
}

// RemoveImage drops the selection at index i and releases that slot's
// preview bytes. Other slots are untouched.
func (w *Wizard) RemoveImage(i int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDetails && w.step != StepReview {
		return
	}

	if i < 0 || i >= len(w.draft.Images) {
		return
	}

	w.draft.Images[i].Preview = nil
	w.draft.Images[i].Data = nil
	w.draft.Images = append(w.draft.Images[:i], w.draft.Images[i+1:]...)
	w.draft.Notice = ""
	w.touch()
}

func (w *Wizard) Preview(i int) *types.SelectedImage {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i < 0 || i >= len(w.draft.Images) {
		return nil
	}

	img := w.draft.Images[i]
	return &img
}

// BeginSubmit moves review -> submitting. It reports false when the wizard
// is not reviewable or a publish is already in flight, which makes a double
// publish click a no-op.
func (w *Wizard) BeginSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepReview || w.submitting {
		return false
	}

	w.submitting = true
	w.step = StepSubmitting
	w.touch()
	return true
}

// FinishSubmit completes the in-flight publish. A terminal error returns
// the wizard to review with the draft intact so the user can retry; success
// ends the wizard's ownership of the draft.
func (w *Wizard) FinishSubmit(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.submitting = false

	if err != nil {
		w.step = StepReview
		w.touch()
		return
	}

	w.releaseLocked()
	w.step = StepDone
	w.touch()
}

// Release frees preview and payload bytes; called when the wizard is
// discarded or expired.
func (w *Wizard) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseLocked()
}

func (w *Wizard) releaseLocked() {
	for i := range w.draft.Images {
		w.draft.Images[i].Preview = nil
		w.draft.Images[i].Data = nil
	}
	w.draft = &types.DraftAd{Category: w.draft.Category}
}

func (w *Wizard) touch() {
	w.touchedAt = time.Now()
}

func (w *Wizard) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.touchedAt)
}

package wizard

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pharmarawasy-del/Delala/pkg/types"
)

func selection(n int) []types.SelectedImage {
	out := make([]types.SelectedImage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.SelectedImage{
			Name:    fmt.Sprintf("img-%d.jpg", i),
			Data:    []byte{byte(i)},
			Preview: []byte{byte(i)},
		})
	}
	return out
}

func reviewableWizard(t *testing.T) *Wizard {
	t.Helper()

	w := New("draft-1")
	if err := w.SelectCategory("vehicles"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if err := w.SetDetails("Toyota Hilux 2020", 5000000, "الخرطوم", "0912345678", ""); err != nil {
		t.Fatalf("set details: %v", err)
	}
	return w
}

func TestWizardHappyPathTransitions(t *testing.T) {
	w := New("draft-1")

	if w.Step() != StepCategory {
		t.Fatalf("new wizard starts at %s", w.Step())
	}

	if err := w.SelectCategory("vehicles"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if w.Step() != StepDetails {
		t.Fatalf("expected detail entry, got %s", w.Step())
	}

	if err := w.SetDetails("Toyota Hilux 2020", 5000000, "الخرطوم", "0912345678", "desc"); err != nil {
		t.Fatalf("set details: %v", err)
	}
	if w.Step() != StepReview {
		t.Fatalf("expected review, got %s", w.Step())
	}

	if !w.BeginSubmit() {
		t.Fatal("begin submit refused from review")
	}
	if w.Step() != StepSubmitting {
		t.Fatalf("expected submitting, got %s", w.Step())
	}

	w.FinishSubmit(nil)
	if w.Step() != StepDone {
		t.Fatalf("expected done, got %s", w.Step())
	}
}

func TestWizardRejectsInvalidInput(t *testing.T) {
	w := New("draft-1")

	if err := w.SelectCategory("weapons"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected invalid category, got %v", err)
	}

	if err := w.SelectCategory("furniture"); err != nil {
		t.Fatalf("select category: %v", err)
	}

	if err := w.SetDetails("", 100, "الخرطوم", "0912345678", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if err := w.SetDetails("Sofa", 100, "Atlantis", "0912345678", ""); !errors.Is(err, ErrInvalidCity) {
		t.Fatalf("expected invalid city, got %v", err)
	}
	if err := w.SetDetails("Sofa", 100, "الخرطوم", "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("phone is required, got %v", err)
	}
}

func TestWizardCategoryLockedAfterSelection(t *testing.T) {
	w := reviewableWizard(t)

	if err := w.SelectCategory("furniture"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("category pick from review must be refused, got %v", err)
	}
	if w.Step() != StepReview || w.Draft().Category != "vehicles" {
		t.Fatal("refused category pick must not rewind the wizard")
	}

	// going back to the category step re-enables the pick
	w.Back()
	w.Back()
	if err := w.SelectCategory("furniture"); err != nil {
		t.Fatalf("select category after back: %v", err)
	}
}

func TestWizardImagesFrozenWhileSubmitting(t *testing.T) {
	w := reviewableWizard(t)
	w.AddImages(selection(2))

	if !w.BeginSubmit() {
		t.Fatal("begin submit refused")
	}

	added, dropped := w.AddImages(selection(2))
	if added != 0 || dropped != 2 {
		t.Fatalf("in-flight publish must refuse new images, added %d dropped %d", added, dropped)
	}
	w.RemoveImage(0)
	if len(w.Draft().Images) != 2 {
		t.Fatal("in-flight publish must keep the selection intact")
	}

	// a failed publish returns to review, where images can change again
	w.FinishSubmit(errors.New("insert rejected"))
	if added, _ := w.AddImages(selection(1)); added != 1 {
		t.Fatal("review after a failed publish must accept images")
	}
}

func TestWizardBackPreservesDraft(t *testing.T) {
	w := reviewableWizard(t)
	w.AddImages(selection(2))

	w.Back()
	if w.Step() != StepDetails {
		t.Fatalf("expected detail entry after back, got %s", w.Step())
	}

	d := w.Draft()
	if d.Title != "Toyota Hilux 2020" || d.Price != 5000000 || len(d.Images) != 2 {
		t.Fatal("back must preserve draft fields and image selection")
	}
}

func TestWizardImageQuota(t *testing.T) {
	w := reviewableWizard(t)

	added, dropped := w.AddImages(selection(7))
	if added != 7 || dropped != 0 {
		t.Fatalf("first batch: added %d dropped %d", added, dropped)
	}

	added, dropped = w.AddImages(selection(7))
	if added != 3 || dropped != 4 {
		t.Fatalf("quota batch: added %d dropped %d", added, dropped)
	}

	d := w.Draft()
	if len(d.Images) != types.MaxDraftImages {
		t.Fatalf("selection exceeds quota: %d", len(d.Images))
	}
	if d.Notice == "" {
		t.Fatal("dropping excess images must record a notice")
	}

	added, _ = w.AddImages(selection(1))
	if added != 0 {
		t.Fatal("full selection must drop every extra file")
	}
}

func TestWizardRemoveImageIsolation(t *testing.T) {
	w := reviewableWizard(t)
	w.AddImages(selection(4))

	w.RemoveImage(1)

	d := w.Draft()
	if len(d.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(d.Images))
	}

	want := []string{"img-0.jpg", "img-2.jpg", "img-3.jpg"}
	for i, img := range d.Images {
		if img.Name != want[i] {
			t.Fatalf("unexpected selection order %v", d.Images)
		}
		if img.Preview == nil {
			t.Fatalf("preview for untouched slot %d was released", i)
		}
	}

	w.RemoveImage(99) // out of range is a no-op
	if len(w.Draft().Images) != 3 {
		t.Fatal("out of range removal must not change the selection")
	}
}

func TestWizardDoubleSubmitIsNoOp(t *testing.T) {
	w := reviewableWizard(t)

	first := w.BeginSubmit()
	second := w.BeginSubmit()

	if !first {
		t.Fatal("first submit must be accepted")
	}
	if second {
		t.Fatal("second submit while in flight must be ignored")
	}
}

func TestWizardConcurrentSubmitAdmitsOne(t *testing.T) {
	w := reviewableWizard(t)

	var wg sync.WaitGroup
	var admitted int32
	var mu sync.Mutex

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.BeginSubmit() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("expected exactly one admitted submit, got %d", admitted)
	}
}

func TestWizardFailedSubmitReturnsToReview(t *testing.T) {
	w := reviewableWizard(t)
	w.AddImages(selection(2))

	if !w.BeginSubmit() {
		t.Fatal("begin submit refused")
	}
	w.FinishSubmit(errors.New("insert rejected"))

	if w.Step() != StepReview {
		t.Fatalf("failed publish must return to review, got %s", w.Step())
	}
	if len(w.Draft().Images) != 2 || w.Draft().Title == "" {
		t.Fatal("draft must survive a failed publish for retry")
	}

	// retry is possible without re-entering data
	if !w.BeginSubmit() {
		t.Fatal("retry must be possible after failure")
	}
	w.FinishSubmit(nil)
	if w.Step() != StepDone {
		t.Fatalf("expected done after retry, got %s", w.Step())
	}
}

func TestWizardSuccessReleasesDraft(t *testing.T) {
	w := reviewableWizard(t)
	w.AddImages(selection(3))

	w.BeginSubmit()
	w.FinishSubmit(nil)

	if len(w.Draft().Images) != 0 {
		t.Fatal("publish must end the wizard's ownership of the draft")
	}
}

func TestStoreDiscardAndExpiry(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	defer s.Close()

	w := s.Create()
	if _, err := s.Get(w.ID()); err != nil {
		t.Fatalf("get: %v", err)
	}

	s.Discard(w.ID())
	if _, err := s.Get(w.ID()); !errors.Is(err, types.ErrDraftNotFound) {
		t.Fatalf("expected draft not found, got %v", err)
	}

	w2 := s.Create()
	if err := w2.SelectCategory("vehicles"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	w2.AddImages(selection(1))
	s.expire(time.Now().Add(time.Minute))

	if _, err := s.Get(w2.ID()); !errors.Is(err, types.ErrDraftNotFound) {
		t.Fatal("idle wizard must be swept")
	}
	if len(w2.Draft().Images) != 0 {
		t.Fatal("sweep must release image payloads")
	}
}

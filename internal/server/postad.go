package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pharmarawasy-del/Delala/internal"
	"github.com/pharmarawasy-del/Delala/internal/wizard"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/alexedwards/flow"
)

// maxUploadBytes bounds one multipart submission, not one file. Ten photos
// straight off a phone camera fit comfortably.
const maxUploadBytes = 64 << 20

type adDetailsForm struct {
	Title       string `form:"title"`
	Price       int64  `form:"price"`
	City        string `form:"city"`
	Phone       string `form:"phone"`
	Description string `form:"description"`
}

// wizardFromRequest returns the visitor's wizard, creating one and setting
// the draft cookie when none exists yet.
func (s *Service) wizardFromRequest(w http.ResponseWriter, r *http.Request) *wizard.Wizard {
	cookie, err := r.Cookie(internal.COOKIE_DRAFT_ID_NAME)
	if err == nil {
		if wz, err := s.wizards.Get(cookie.Value); err == nil {
			return wz
		}
	}

	wz := s.wizards.Create()

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_DRAFT_ID_NAME,
		Value:    wz.ID(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/post-ad",
	})

	return wz
}

func (s *Service) handleGetPostAd(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)
	s.renderPostAdPage(w, r, wz, "")
}

func (s *Service) handlePostAdCategory(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)

	if err := wz.SelectCategory(r.FormValue("category")); err != nil {
		s.renderPostAdPage(w, r, wz, "اختر قسمًا صحيحًا")
		return
	}

	http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
}

func (s *Service) handlePostAdDetails(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)

	if err := r.ParseForm(); err != nil {
		s.renderPostAdPage(w, r, wz, "نموذج غير صالح")
		return
	}

	var form adDetailsForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode ad details form")
		s.renderPostAdPage(w, r, wz, "تحقق من الحقول المدخلة")
		return
	}

	err := wz.SetDetails(form.Title, form.Price, form.City, form.Phone, form.Description)
	if err != nil {
		s.renderPostAdPage(w, r, wz, detailsErrorMessage(err))
		return
	}

	http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
}

func (s *Service) handlePostAdImages(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderPostAdPage(w, r, wz, "تعذر رفع الصور، حاول مرة أخرى")
		return
	}

	selected := make([]types.SelectedImage, 0)
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			s.logger.WithError(err).WithField("file", header.Filename).Warn("failed to open uploaded image")
			continue
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			s.logger.WithError(err).WithField("file", header.Filename).Warn("failed to read uploaded image")
			continue
		}

		selected = append(selected, types.SelectedImage{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
			Preview:     data,
		})
	}

	wz.AddImages(selected)

	http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
}

func (s *Service) handlePostAdImageRemove(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)

	index, err := strconv.Atoi(flow.Param(r.Context(), "index"))
	if err == nil {
		wz.RemoveImage(index)
	}

	http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
}

func (s *Service) handleGetAdImagePreview(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)

	index, err := strconv.Atoi(flow.Param(r.Context(), "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	img := wz.Preview(index)
	if img == nil || len(img.Preview) == 0 {
		http.NotFound(w, r)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img.Preview)
}

func (s *Service) handlePostAdBack(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFromRequest(w, r)
	wz.Back()
	http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
}

func (s *Service) handlePostAdPublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wz := s.wizardFromRequest(w, r)

	// A refused gate means a double click or a publish from the wrong step;
	// either way the page just re-renders the current state.
	if !wz.BeginSubmit() {
		http.Redirect(w, r, "/post-ad", http.StatusSeeOther)
		return
	}

	userID := ""
	if user, err := s.userFromContext(ctx); err == nil {
		userID = user.ID
	}

	result, err := s.publisher.Publish(ctx, wz.Draft(), userID)
	wz.FinishSubmit(err)

	if err != nil {
		s.logger.WithError(err).Error("failed to publish ad")
		s.renderPostAdPage(w, r, wz, "تعذر نشر الإعلان، حاول مرة أخرى")
		return
	}

	s.wizards.Discard(wz.ID())
	s.clearDraftCookie(w)

	if result.Partial() {
		s.redirectWithNotice(w, r, "/ad/"+result.AdID, "تم نشر الإعلان، لكن بعض الصور لم تُرفع")
		return
	}

	s.redirectWithNotice(w, r, "/ad/"+result.AdID, "تم نشر إعلانك بنجاح")
}

func (s *Service) handlePostAdDiscard(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(internal.COOKIE_DRAFT_ID_NAME)
	if err == nil {
		s.wizards.Discard(cookie.Value)
	}

	s.clearDraftCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) clearDraftCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_DRAFT_ID_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/post-ad",
		MaxAge:   -1,
	})
}

func (s *Service) renderPostAdPage(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard, errMsg string) {
	draft := wz.Draft()

	data := &types.PostAdPageData{
		BasePageData: types.BasePageData{Title: "أضف إعلان"},
		Step:         stepNumber(wz.Step()),
		Draft:        draft,
		Categories:   types.Categories(),
		Cities:       types.Cities(),
		Error:        errMsg,
		Notice:       draft.Notice,
	}

	if err := s.renderTemplate(w, r, "page.post-ad", data); err != nil {
		s.logger.WithError(err).Error("failed to render post ad page")
		s.internalServerError(w)
	}
}

func stepNumber(step wizard.Step) int {
	switch step {
	case wizard.StepCategory:
		return 1
	case wizard.StepDetails:
		return 2
	case wizard.StepReview, wizard.StepSubmitting:
		return 3
	default:
		return 4
	}
}

func detailsErrorMessage(err error) string {
	switch {
	case errors.Is(err, wizard.ErrMissingFields):
		return "العنوان والسعر والمدينة ورقم الهاتف مطلوبة"
	case errors.Is(err, wizard.ErrInvalidCity):
		return "اختر مدينة صحيحة"
	default:
		return "تحقق من الحقول المدخلة"
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pharmarawasy-del/Delala/internal"
	"github.com/pharmarawasy-del/Delala/internal/feed"
	"github.com/pharmarawasy-del/Delala/internal/session"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/alexedwards/flow"
)

// pagerFromRequest returns the visitor's feed pager, creating one and
// setting the feed cookie when none exists yet. Each visitor gets their own
// pager so one visitor's filter change cannot invalidate another's load.
func (s *Service) pagerFromRequest(w http.ResponseWriter, r *http.Request) *feed.Pager {
	cookie, err := r.Cookie(internal.COOKIE_FEED_ID_NAME)
	if err == nil {
		if pager, err := s.feeds.Get(cookie.Value); err == nil {
			return pager
		}
	}

	id, pager := s.feeds.Create()

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_FEED_ID_NAME,
		Value:    id,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	return pager
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager := s.pagerFromRequest(w, r)

	filter := types.FeedFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
	}

	var (
		page *feed.Page
		err  error
	)

	// A load-more request carries the offset and generation of the page it
	// extends; anything else starts a fresh feed. A stale load-more, from a
	// link rendered before the visitor switched filters in another tab,
	// falls back to a fresh first page instead of failing.
	offsetParam := r.URL.Query().Get("offset")
	genParam := r.URL.Query().Get("gen")
	if offsetParam != "" && genParam != "" {
		offset, _ := strconv.ParseUint(offsetParam, 10, 64)
		generation, _ := strconv.ParseUint(genParam, 10, 64)

		page, err = pager.Load(ctx, generation, offset)
		if errors.Is(err, feed.ErrStalePage) {
			page, err = pager.First(ctx, filter)
		}
	} else {
		page, err = pager.First(ctx, filter)
	}

	if err != nil {
		s.logger.WithError(err).Error("failed to load feed page")
		s.internalServerError(w)
		return
	}

	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: "دلالة"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
		Ads:          page.Ads,
		Categories:   types.Categories(),
		Filter:       page.Filter,
		NextOffset:   page.NextOffset,
		HasMore:      page.HasMore,
		Generation:   page.Generation,
	}

	if err := s.renderTemplate(w, r, "page.home", data); err != nil {
		s.logger.WithError(err).Error("failed to render home page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleAdDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	adID := flow.Param(ctx, "id")

	ad, err := s.adsRepo.Ad(ctx, adID)
	if err != nil {
		if errors.Is(err, types.ErrAdNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("ad_id", adID).Error("failed to load ad detail")
		s.internalServerError(w)
		return
	}

	data := &types.AdDetailPageData{
		BasePageData: types.BasePageData{Title: ad.Title},
		Ad:           ad,
		WhatsAppLink: whatsAppLink(ad),
		PostedLabel:  formatPostedLabel(time.Since(ad.CreatedAt)),
	}

	if err := s.renderTemplate(w, r, "page.ad-detail", data); err != nil {
		s.logger.WithError(err).Error("failed to render ad detail page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleGetContact(w http.ResponseWriter, r *http.Request) {
	data := &types.ContactPageData{
		BasePageData: types.BasePageData{Title: "اتصل بنا"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	if err := s.renderTemplate(w, r, "page.contact", data); err != nil {
		s.logger.WithError(err).Error("failed to render contact page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/contact", "نموذج غير صالح")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	contactInfo := strings.TrimSpace(r.FormValue("contact_info"))
	subject := strings.TrimSpace(r.FormValue("subject"))
	message := strings.TrimSpace(r.FormValue("message"))

	if !required(name) || !required(contactInfo) || !required(message) {
		s.redirectWithError(w, r, "/contact", "الاسم ووسيلة التواصل والرسالة مطلوبة")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msg := &types.ContactMessage{
		Name:        name,
		ContactInfo: contactInfo,
		Subject:     subject,
		Message:     message,
	}

	if err := s.messagesRepo.CreateMessage(ctx, msg); err != nil {
		s.logger.WithError(err).Error("failed to submit contact message")
		s.redirectWithError(w, r, "/contact", "تعذر إرسال الرسالة، حاول مرة أخرى")
		return
	}

	s.redirectWithNotice(w, r, "/contact", "تم إرسال رسالتك بنجاح")
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	// The auth state machine is bootstrapped before the listener starts;
	// still unknown means startup has not finished.
	if s.bootstrapper.Snapshot().State == session.StateUnknown {
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	v := url.Values{}
	v.Set("notice", notice)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	v := url.Values{}
	v.Set("error", msg)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

func required(v string) bool {
	return strings.TrimSpace(v) != ""
}

func urlEncode(v string) string {
	return url.QueryEscape(v)
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// whatsAppLink builds a wa.me link prefilled with the ad title so buyers can
// message the seller directly.
func whatsAppLink(ad *types.Ad) string {
	phone := strings.TrimPrefix(normalizePhone(ad.Phone), "+")
	text := url.QueryEscape("مرحباً، بخصوص إعلانك: " + ad.Title)
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, text)
}

// formatPostedLabel renders a coarse relative age for the detail page.
func formatPostedLabel(age time.Duration) string {
	switch {
	case age < time.Hour:
		return "منذ دقائق"
	case age < 24*time.Hour:
		return fmt.Sprintf("منذ %d ساعة", int(age.Hours()))
	case age < 30*24*time.Hour:
		return fmt.Sprintf("منذ %d يوم", int(age.Hours()/24))
	default:
		return fmt.Sprintf("منذ %d شهر", int(age.Hours()/(24*30)))
	}
}

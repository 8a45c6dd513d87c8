package server

import (
	"net/http"
	"strings"

	"github.com/pharmarawasy-del/Delala/internal"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	autypes "github.com/supabase-community/auth-go/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {

	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Info("user is already logged in, redirecting to home")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "تسجيل الدخول"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
	}

	err = s.renderTemplate(w, r, "page.login", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "تسجيل الدخول"},
		Email:        email,
	}

	if !required(email) || !required(password) {
		data.Error = "البريد الإلكتروني وكلمة المرور مطلوبان"
		s.renderLoginPage(w, r, data)
		return
	}

	resp, err := s.supauth.SignInWithEmailPassword(email, password)
	if err != nil {
		s.logger.WithError(err).Info("login attempt failed")
		data.Error = "بيانات الدخول غير صحيحة"
		s.renderLoginPage(w, r, data)
		return
	}

	s.completeSignIn(w, r, resp.AccessToken, resp.ExpiresIn)
}

// handlePostLoginOTP sends a one-time code to the submitted phone number.
func (s *Service) handlePostLoginOTP(w http.ResponseWriter, r *http.Request) {

	phone := normalizePhone(r.FormValue("phone"))

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "تسجيل الدخول"},
		Phone:        phone,
	}

	if phone == "" {
		data.Error = "رقم الهاتف مطلوب"
		s.renderLoginPage(w, r, data)
		return
	}

	err := s.supauth.OTP(autypes.OTPRequest{
		Phone:      phone,
		CreateUser: true,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to request otp")
		data.Error = "تعذر إرسال رمز التحقق، حاول مرة أخرى"
		s.renderLoginPage(w, r, data)
		return
	}

	data.OTPSent = true
	data.Notice = "تم إرسال رمز التحقق إلى هاتفك"
	s.renderLoginPage(w, r, data)
}

func (s *Service) handlePostLoginOTPVerify(w http.ResponseWriter, r *http.Request) {

	phone := normalizePhone(r.FormValue("phone"))
	code := strings.TrimSpace(r.FormValue("code"))

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "تسجيل الدخول"},
		Phone:        phone,
		OTPSent:      true,
	}

	if phone == "" || code == "" {
		data.Error = "رقم الهاتف ورمز التحقق مطلوبان"
		s.renderLoginPage(w, r, data)
		return
	}

	resp, err := s.supauth.VerifyForUser(autypes.VerifyForUserRequest{
		Type:  autypes.VerificationTypeSMS,
		Phone: phone,
		Token: code,
	})
	if err != nil {
		s.logger.WithError(err).Info("otp verification failed")
		data.Error = "رمز التحقق غير صحيح"
		s.renderLoginPage(w, r, data)
		return
	}

	s.completeSignIn(w, r, resp.AccessToken, resp.ExpiresIn)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {

	accessToken, err := s.accessTokenFromRequest(r)
	if err == nil && accessToken != "" {
		// Best effort; the cookie is cleared either way.
		if err := s.supauth.WithToken(accessToken).Logout(); err != nil {
			s.logger.WithError(err).Warn("failed to revoke session on logout")
		}
	}

	s.clearAccessTokenCookie(w)
	s.bootstrapper.SignedOut()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// completeSignIn stores the encrypted access token and sends the visitor
// back to where they were headed before the login wall.
func (s *Service) completeSignIn(w http.ResponseWriter, r *http.Request, accessToken string, expiresIn int) {

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w)
		return
	}

	if expiresIn <= 0 {
		expiresIn = s.config.SessionMaxAgeSec
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   expiresIn,
		Path:     "/",
	})

	if user, err := s.bootstrapper.Resolve(r.Context(), accessToken); err == nil {
		s.bootstrapper.SignedIn(user)

		if user.ProfileIncomplete {
			http.Redirect(w, r, "/profile/setup", http.StatusSeeOther)
			return
		}
	}

	// Check to see if this login attempt was the result of an unauthed redirect
	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil {
		path := redirectCookie.Value
		s.clearRedirectCookie(w)
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) clearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) renderLoginPage(w http.ResponseWriter, r *http.Request, data *types.LoginPageData) {
	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
	}
}

// normalizePhone converts local Sudanese numbers to E.164. A leading zero
// becomes the +249 country code; already-international numbers pass through.
func normalizePhone(raw string) string {
	phone := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch {
	case phone == "":
		return ""
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "249"):
		return "+" + phone
	case strings.HasPrefix(phone, "0"):
		return "+249" + phone[1:]
	default:
		return "+249" + phone
	}
}

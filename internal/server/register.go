package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/pharmarawasy-del/Delala/internal"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	autypes "github.com/supabase-community/auth-go/types"
)

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {

	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Info("user is already logged in, redirecting to home")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "إنشاء حساب"},
	}

	err = s.renderTemplate(w, r, "page.register", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render register page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {

	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "إنشاء حساب"},
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
	}

	data.FieldErrors = validateRegisterInput(firstName, lastName, email, password, confirmPassword)
	if len(data.FieldErrors) > 0 {
		s.logger.WithField("field_errors", data.FieldErrors).Info("validation errors during registration")

		data.Error = "يرجى تصحيح الحقول المحددة"
		err := s.renderTemplate(w, r, "page.register", data)
		if err != nil {
			s.logger.WithError(err).Error("failed to render register page with validation errors")
			s.internalServerError(w)
		}

		return
	}

	_, err := s.supauth.Signup(autypes.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to signup user")

		data.Error = "تعذر إنشاء الحساب، حاول مرة أخرى"
		renderErr := s.renderTemplate(w, r, "page.register", data)
		if renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render register page with signup error")
			s.internalServerError(w)
		}
		return
	}

	http.Redirect(w, r, "/login?notice="+urlEncode("تم إنشاء الحساب، سجل الدخول للمتابعة"), http.StatusSeeOther)
}

func validateRegisterInput(firstName, lastName, email, password, confirmPassword string) map[string]string {
	errs := map[string]string{}

	if firstName == "" {
		errs["first_name"] = "الاسم الأول مطلوب"
	}

	if lastName == "" {
		errs["last_name"] = "الاسم الأخير مطلوب"
	}

	if email == "" {
		errs["email"] = "البريد الإلكتروني مطلوب"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "أدخل بريدًا إلكترونيًا صالحًا"
	}

	if len(password) < 8 {
		errs["password"] = "كلمة المرور يجب أن تكون 8 أحرف على الأقل"
	}

	if password != confirmPassword {
		errs["confirm_password"] = "كلمتا المرور غير متطابقتين"
	}

	return errs
}

package server

import (
	"net/http"

	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{}

		if user, err := s.userFromContext(r.Context()); err == nil {
			navbar.IsAuthenticated = true
			navbar.UserID = user.ID
			navbar.UserEmail = user.Email
			if user.Profile != nil {
				navbar.UserName = user.Profile.DisplayName()
				navbar.IsAdmin = user.Profile.IsAdmin
				navbar.AvatarURL = utils.PtrString(user.Profile.ProfilePictureURL)
			}
		}

		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}

package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/feed"
	"github.com/pharmarawasy-del/Delala/internal/images"
	"github.com/pharmarawasy-del/Delala/internal/publish"
	"github.com/pharmarawasy-del/Delala/internal/session"
	"github.com/pharmarawasy-del/Delala/internal/storage"
	"github.com/pharmarawasy-del/Delala/internal/store"
	"github.com/pharmarawasy-del/Delala/internal/wizard"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	supauth "github.com/supabase-community/auth-go"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

type Service struct {
	logger       *logrus.Logger
	config       *types.Config
	adsRepo      *store.AdRepository
	profilesRepo *store.ProfileRepository
	messagesRepo *store.MessageRepository
	templates    *template.Template

	supauth supauth.Client
	cookie  *securecookie.SecureCookie
	storage *storage.SupabaseStorage

	normalizer   *images.Normalizer
	publisher    *publish.Publisher
	wizards      *wizard.Store
	feeds        *feed.Store
	bootstrapper *session.Bootstrapper
	unsubAuth    func()

	jwksCache *jwk.Cache
	jwksURL   string

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	supauth supauth.Client,
	objectStorage *storage.SupabaseStorage,
	adsRepo *store.AdRepository,
	profilesRepo *store.ProfileRepository,
	messagesRepo *store.MessageRepository,
	normalizer *images.Normalizer,
	publisher *publish.Publisher,
	wizards *wizard.Store,
	feeds *feed.Store,
	bootstrapper *session.Bootstrapper,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:  logger,
		config:  config,
		supauth: supauth,
		cookie:  securecookie.New(hashKey, blockKey),
		storage: objectStorage,

		adsRepo:      adsRepo,
		profilesRepo: profilesRepo,
		messagesRepo: messagesRepo,

		normalizer:   normalizer,
		publisher:    publisher,
		wizards:      wizards,
		feeds:        feeds,
		bootstrapper: bootstrapper,

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.unsubAuth = bootstrapper.Subscribe(func(snap session.Snapshot) {
		entry := logger.WithField("state", string(snap.State))
		if snap.User != nil {
			entry = entry.WithField("user_id", snap.User.ID)
		}
		entry.Debug("auth state transition")
	})

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	if s.unsubAuth != nil {
		s.unsubAuth()
	}
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.SessionMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/ad/:id", s.handleAdDetail, http.MethodGet)

	r.HandleFunc("/register", s.handleGetRegister, http.MethodGet)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/login/otp", s.handlePostLoginOTP, http.MethodPost)
	r.HandleFunc("/login/otp/verify", s.handlePostLoginOTPVerify, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout, http.MethodPost)

	r.HandleFunc("/contact", s.handleGetContact, http.MethodGet)
	r.HandleFunc("/contact", s.handlePostContact, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		// Ad submission wizard
		r.HandleFunc("/post-ad", s.handleGetPostAd, http.MethodGet)
		r.HandleFunc("/post-ad/category", s.handlePostAdCategory, http.MethodPost)
		r.HandleFunc("/post-ad/details", s.handlePostAdDetails, http.MethodPost)
		r.HandleFunc("/post-ad/images", s.handlePostAdImages, http.MethodPost)
		r.HandleFunc("/post-ad/images/:index/remove", s.handlePostAdImageRemove, http.MethodPost)
		r.HandleFunc("/post-ad/images/:index/preview", s.handleGetAdImagePreview, http.MethodGet)
		r.HandleFunc("/post-ad/back", s.handlePostAdBack, http.MethodPost)
		r.HandleFunc("/post-ad/publish", s.handlePostAdPublish, http.MethodPost)
		r.HandleFunc("/post-ad/discard", s.handlePostAdDiscard, http.MethodPost)

		r.HandleFunc("/profile", s.handleGetProfile, http.MethodGet)
		r.HandleFunc("/profile", s.handlePostProfile, http.MethodPost)
		r.HandleFunc("/profile/setup", s.handleGetProfileSetup, http.MethodGet)
		r.HandleFunc("/profile/setup", s.handlePostProfileSetup, http.MethodPost)
		r.HandleFunc("/my-ads", s.handleGetMyAds, http.MethodGet)
		r.HandleFunc("/my-ads/:id/delete", s.handlePostMyAdDelete, http.MethodPost)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)
		r.Use(s.RequireAdmin)

		r.HandleFunc("/admin", s.handleGetAdmin, http.MethodGet)
		r.HandleFunc("/admin/ads/:id/delete", s.handlePostAdminAdDelete, http.MethodPost)
	})

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefOr": func(s *string, defaultVal string) string {
			if s == nil {
				return defaultVal
			}
			return *s
		},
		"formatPrice": func(price int64) string {
			return fmt.Sprintf("%d ج.س", price)
		},
		"firstImage": func(urls []string) string {
			if len(urls) == 0 {
				return publish.PlaceholderImageURL
			}
			return urls[0]
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) userFromContext(ctx context.Context) (*session.User, error) {
	user, ok := ctx.Value(contextKeyUser).(*session.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// Package server exposes the newsletter workflow over HTTP.
//
// Members unlock a newsletter once with the shared passcode; a session
// cookie then scopes every later request to that newsletter. All page
// bodies come from the cycle service, so the handlers here only translate
// between HTTP and workflow calls.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	g "github.com/maragudk/gomponents"

	"missive/internal/config"
	"missive/internal/cycle"
	"missive/internal/logging"
	"missive/internal/render"
	"missive/internal/store"
)

const (
	sessionCookie   = "missive_session"
	maxUploadMemory = 32 << 20
)

// Server handles HTTP traffic for one missive instance.
type Server struct {
	cfg    *config.Config
	svc    *cycle.Service
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*store.Newsletter
}

// New builds a Server around the workflow service.
func New(cfg *config.Config, svc *cycle.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		cfg:      cfg,
		svc:      svc,
		logger:   logger,
		sessions: make(map[string]*store.Newsletter),
	}
}

// Router assembles the HTTP routes and middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Use(corsMiddleware.Handler)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Post("/unlock", s.handleUnlock)
	r.Get("/issue/{number}", s.handleIssue)
	r.Post("/question", s.handleQuestion)
	r.Post("/answer", s.handleAnswer)
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.cfg.Paths.ImageDir))))
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetFiles))))

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Paths.Bind,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "bind", s.cfg.Paths.Bind)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	n := s.sessionNewsletter(r)
	if n == nil {
		s.writePage(w, http.StatusOK, render.Unlock())
		return
	}
	page, err := s.svc.Render(r.Context(), n, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusOK, page)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, cycle.Wrap(cycle.ErrMalformedForm, "unlock", "parse form", err))
		return
	}
	n, err := s.svc.Unlock(r.Context(), r.PostFormValue("passcode"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = n
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	n := s.sessionNewsletter(r)
	if n == nil {
		s.writeError(w, cycle.Wrap(cycle.ErrAuth, "issue", "no session", nil))
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		s.writeError(w, cycle.Wrap(cycle.ErrMalformedForm, "issue", "bad issue number", err))
		return
	}
	page, err := s.svc.Render(r.Context(), n, number)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusOK, page)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	n := s.sessionNewsletter(r)
	if n == nil {
		s.writeError(w, cycle.Wrap(cycle.ErrAuth, "question", "no session", nil))
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeError(w, cycle.Wrap(cycle.ErrMalformedForm, "question", "parse form", err))
		return
	}
	msg, err := s.svc.SubmitQuestion(r.Context(), n, r.PostFormValue("name"), r.PostFormValue("question"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusCreated, render.Message(n.Title, msg))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	n := s.sessionNewsletter(r)
	if n == nil {
		s.writeError(w, cycle.Wrap(cycle.ErrAuth, "answer", "no session", nil))
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, cycle.Wrap(cycle.ErrMalformedForm, "answer", "parse multipart form", err))
		return
	}

	fields := url.Values(r.MultipartForm.Value)
	uploads, err := s.stageUploads(r.MultipartForm.File)
	if err != nil {
		s.writeError(w, err)
		return
	}

	msg, err := s.svc.SubmitAnswers(r.Context(), n, fields, uploads)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, http.StatusCreated, render.Message(n.Title, msg))
}

// stageUploads spools each submitted file into the upload directory under a
// fresh random name. Empty file parts, which browsers send for untouched
// file inputs, are skipped.
func (s *Server) stageUploads(files map[string][]*multipart.FileHeader) ([]cycle.Upload, error) {
	var uploads []cycle.Upload
	for field, headers := range files {
		for _, header := range headers {
			if header.Filename == "" || header.Size == 0 {
				continue
			}
			staged, err := s.stageUpload(header)
			if err != nil {
				return nil, fmt.Errorf("stage upload %q: %w", header.Filename, err)
			}
			uploads = append(uploads, cycle.Upload{Field: field, Path: staged})
		}
	}
	return uploads, nil
}

func (s *Server) stageUpload(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(header.Filename)
	dst := filepath.Join(s.cfg.UploadDir(), name)
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

func (s *Server) sessionNewsletter(r *http.Request) *store.Newsletter {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

func (s *Server) writePage(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(w); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, cycle.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cycle.ErrMalformedForm):
		return http.StatusBadRequest
	case errors.Is(err, cycle.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, cycle.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

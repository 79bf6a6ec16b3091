// Package devserver is an in-memory implementation of the assessment REST
// backend for local runs and integration tests.
package devserver

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/auth"
	"github.com/langassess/langassess/internal/config"
	"github.com/langassess/langassess/internal/grading"
	"github.com/langassess/langassess/internal/rbac"
)

// APIPrefix is where the REST contract is mounted.
const APIPrefix = "/api/v1"

const refreshCookie = "refreshToken"

type Server struct {
	cfg     config.Config
	store   *memoryStore
	auth    *auth.Service
	checker *rbac.Checker
	grader  *grading.Engine
	log     *log.Logger

	// HashCost is the bcrypt cost for new passwords.
	HashCost int
}

func New(cfg config.Config, lg *log.Logger) *Server {
	if lg == nil {
		lg = log.New(os.Stderr, "[devserver] ", log.LstdFlags)
	}
	st := newMemoryStore()
	s := &Server{
		cfg:      cfg,
		store:    st,
		auth:     auth.NewService(cfg.AuthHMACSecret),
		checker:  rbac.NewChecker(nil),
		grader:   grading.NewEngine(grading.BankFunc(st.question)),
		log:      lg,
		HashCost: bcrypt.DefaultCost,
	}
	if cfg.DevSeed {
		s.seed()
	}
	if cfg.AdminEmail != "" {
		if err := s.addAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			lg.Printf("seed admin: %v", err)
		}
	}
	return s
}

func (s *Server) addAdmin(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return err
	}
	_, err = s.store.addUser(user{Name: "Admin", Email: email, PasswordHash: hash, Role: rbac.RoleAdmin, Verified: true})
	return err
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(api chi.Router) {
		api.Post("/user/register", s.register)
		api.Post("/user/verify-otp", s.verifyOTP)
		api.Post("/user/resend-otp", s.resendOTP)

		api.Post("/auth/login", s.login)
		api.Post("/auth/logout", s.logout)
		api.Post("/auth/refresh-token", s.refreshToken)
		api.Post("/auth/forgot-password", s.forgotPassword)
		api.Post("/auth/reset-password", s.resetPassword)

		api.Group(func(pr chi.Router) {
			pr.Use(s.auth.Middleware)

			pr.With(s.checker.Require(rbac.PermPasswordOwn)).
				Put("/auth/change-password", s.changePassword)

			pr.With(s.checker.Require(rbac.PermQuestionRead)).Get("/question", s.listQuestions)
			pr.With(s.checker.Require(rbac.PermQuestionRead)).Get("/question/{id}", s.getQuestion)
			pr.With(s.checker.Require(rbac.PermQuestionWrite)).Post("/question", s.createQuestion)
			pr.With(s.checker.Require(rbac.PermQuestionWrite)).Patch("/question/{id}", s.updateQuestion)
			pr.With(s.checker.Require(rbac.PermQuestionWrite)).Delete("/question/{id}", s.deleteQuestion)

			pr.With(s.checker.Require(rbac.PermSessionOwn)).Post("/assessment/user", s.createSession)
			pr.With(s.checker.Require(rbac.PermSessionOwn)).Get("/assessment/user", s.userSessions)
			pr.With(s.checker.Require(rbac.PermSessionOwn)).Patch("/assessment", s.submitAnswers)
			pr.With(s.checker.Require(rbac.PermSessionOwn, rbac.PermSessionList)).
				Patch("/assessment/{id}", s.scoreSession)
			pr.With(s.checker.Require(rbac.PermSessionList)).Get("/assessment", s.allSessions)
		})
	})
	return r
}

// ListenAndServe blocks serving Handler on cfg.DevHTTPAddr.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.DevHTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Printf("listening on %s (seed=%v, questions under %s/question)", s.cfg.DevHTTPAddr, s.cfg.DevSeed, APIPrefix)
	return srv.ListenAndServe()
}

// Bank exposes the question lookup, mostly for tests.
func (s *Server) Bank() grading.Bank { return grading.BankFunc(s.store.question) }

func (s *Server) sessionOwnerOrRole(r *http.Request, sess assessment.Session) bool {
	if sess.User.ID == auth.SubjectFromContext(r.Context()) {
		return true
	}
	return s.checker.Has(rbac.RoleFromContext(r.Context()), rbac.PermSessionList)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/responder"
	"excelbot-backend-go/internal/services"
	"excelbot-backend-go/internal/store"
)

// Server wires the stores, services and middleware into one router. All
// state behind it is either a store implementation or a mutex-guarded
// manager, so handlers stay free of process-wide globals.
type Server struct {
	Config    config.Config
	Tokens    services.TokenService
	Users     store.UserStore
	Knowledge store.KnowledgeStore
	Chat      store.ChatStore
	Accounts  *services.Accounts
	Sessions  *services.SessionManager
	Security  *services.SecurityLog
	Hub       *services.ChatHub
	Responder *responder.Responder

	limiter   *ipLimiter
	startedAt time.Time
}

// Stores bundles the persistence implementations picked by the profile.
type Stores struct {
	Users     store.UserStore
	Knowledge store.KnowledgeStore
	Chat      store.ChatStore
}

func NewServer(cfg config.Config, stores Stores, security *services.SecurityLog, hub *services.ChatHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
		BcryptCost: cfg.BcryptCost,
	}
	return &Server{
		Config:    cfg,
		Tokens:    tokens,
		Users:     stores.Users,
		Knowledge: stores.Knowledge,
		Chat:      stores.Chat,
		Accounts:  services.NewAccounts(stores.Users, tokens, cfg, security),
		Sessions:  services.NewSessionManager(time.Duration(cfg.SessionTTLSeconds) * time.Second),
		Security:  security,
		Hub:       hub,
		Responder: responder.New(stores.Knowledge),
		limiter:   newIPLimiter(cfg.RateLimitMax, cfg.RateLimitWindowSec),
		startedAt: time.Now().UTC(),
	}
}

// Router assembles the ordered request pipeline: security headers → CORS →
// rate limit → body cap → audit → CSRF → auth stages → handler. Any stage
// short-circuits with an error response and later stages do not run.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.Recoverer)
	r.Use(SecurityHeaders(s.Config))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(s.RateLimit)
	r.Use(BodyLimit(s.Config.BodyLimitBytes))
	r.Use(s.AuditLogger)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.VerifyCSRF)

		api.Post("/auth/register", s.Register)
		api.Post("/auth/login", s.Login)
		api.Post("/auth/logout", s.Logout)
		api.Post("/auth/refresh", s.Refresh)
		api.With(s.WithAuth).Get("/auth/me", s.Me)
		api.With(s.WithAuth).Get("/auth/csrf-token", s.CSRFToken)

		api.Route("/excel", func(excel chi.Router) {
			excel.Get("/functions/search", s.SearchFunctions)
			excel.Get("/functions/{name}", s.GetFunction)
			excel.Post("/faq/{name}/vote", s.VoteFAQ)
		})

		api.Route("/chat", func(chat chi.Router) {
			chat.With(s.OptionalAuth).Post("/message", s.ChatMessage)
			chat.With(s.WithAuth).Get("/history", s.ChatHistory)
			chat.With(s.WithAuth).Delete("/history", s.ClearChatHistory)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(s.WithAuth)
			admin.Use(s.RequireRole(models.RoleAdmin))
			admin.Post("/knowledge", s.AdminInsertKnowledge)
			admin.Get("/metrics", s.AdminMetrics)
		})
	})

	r.Get("/health", s.Health)
	r.Get("/ws/chat", s.ChatSocket)
	return r
}

package httpapi

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/services"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Hijack passes through so websocket upgrades work under the audit stage.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// auditEntry is a mutable slot the auth stages fill in after AuditLogger has
// already wrapped the request, so the final line can name the resolved user.
type auditEntry struct {
	user string
}

const ctxAudit contextKey = "audit"

func noteAuditUser(r *http.Request, userID string) {
	if entry, ok := r.Context().Value(ctxAudit).(*auditEntry); ok {
		entry.user = userID
	}
}

// AuditLogger emits one line per request: method, path, status, size, latency
// and the resolved user id, if any. It runs before the CSRF and auth stages so
// short-circuited requests are still recorded.
func (s *Server) AuditLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := &auditEntry{}
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), ctxAudit, entry)))
		if recorder.status == 0 {
			recorder.status = http.StatusOK
		}
		user := entry.user
		if user == "" {
			user = "-"
		}
		log.Printf("%s %s %d %dB %s user=%s", r.Method, r.URL.Path, recorder.status, recorder.bytes, time.Since(start), user)
	})
}

// Recoverer is the last-resort handler: panics become a generic 500 and the
// detail stays server-side.
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				s.WriteServiceError(w, services.ErrInternal("Internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders applies the baseline header set; the CSP tightens on the
// hardened profile.
func SecurityHeaders(cfg config.Config) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'"
	if cfg.Hardened() {
		csp = "default-src 'self'"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps request bodies before any decoding happens.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiter hands out one token-bucket limiter per client IP, sized from the
// configured window budget. Entries idle for a full window are swept out on
// the next request so the map stays bounded. Counts drift across processes;
// the quota layers in the chat handler own exactness.
type ipLimiter struct {
	mu        sync.Mutex
	entries   map[string]*ipEntry
	limit     rate.Limit
	burst     int
	maxIdle   time.Duration
	lastSweep time.Time
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(maxRequests, windowSeconds int) *ipLimiter {
	maxIdle := time.Duration(windowSeconds) * time.Second
	if maxIdle < time.Minute {
		maxIdle = time.Minute
	}
	return &ipLimiter{
		entries:   map[string]*ipEntry{},
		limit:     rate.Limit(float64(maxRequests) / float64(windowSeconds)),
		burst:     maxRequests,
		maxIdle:   maxIdle,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.maxIdle {
		for key, entry := range l.entries {
			if now.Sub(entry.lastSeen) > l.maxIdle {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}
	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()
	return entry.limiter.Allow()
}

func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := resolveClientIP(r)
		if !s.limiter.allow(ip) {
			s.Security.Event("rate_limited", "ip", ip, "path", r.URL.Path)
			WriteError(w, http.StatusTooManyRequests, services.CodeRateLimited, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func resolveClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

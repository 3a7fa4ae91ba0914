package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // how long a replayable response is kept (default 24h)
	Cleanup time.Duration // expiry sweep interval (default 1h)
}

// IdempotencyStore remembers responses to POST requests sent with an
// Idempotency-Key header. Registering a panelist twice with the same key
// replays the first response instead of creating a second panelist.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*replay
	ttl     time.Duration
	sweep   time.Duration
	now     func() time.Time
}

type replay struct {
	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{}
}

func (e *replay) pending() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// NewIdempotencyStore creates an empty store. Call Run to expire old entries.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}
	return &IdempotencyStore{
		entries: make(map[string]*replay),
		ttl:     cfg.TTL,
		sweep:   cfg.Cleanup,
		now:     time.Now,
	}
}

// Run expires entries until ctx is cancelled
func (s *IdempotencyStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-ctx.Done():
			return
		}
	}
}

func (s *IdempotencyStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !e.pending() && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// claim returns the entry for key. The second result is true when the
// caller created it and must complete it.
func (s *IdempotencyStore) claim(key string) (*replay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && (e.pending() || e.expiresAt.After(s.now())) {
		return e, false
	}
	e := &replay{done: make(chan struct{})}
	s.entries[key] = e
	return e, true
}

// complete stores a finished response. Server errors are dropped so the
// client can retry with the same key once the platform store recovers.
func (s *IdempotencyStore) complete(key string, e *replay, rec *recordingWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		e.status = rec.status
		e.header = rec.Header().Clone()
		e.body = rec.body.Bytes()
		e.expiresAt = s.now().Add(s.ttl)
	}
	close(e.done)
}

func (s *IdempotencyStore) lookup(key string) (*replay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// fingerprint binds an idempotency key to the client and the exact request
func fingerprint(client, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{client, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func writeReplay(w http.ResponseWriter, e *replay) {
	for k, values := range e.header {
		if k == "X-Request-Id" {
			continue
		}
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key. A repeat that arrives while the first request is
// still running waits for it.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "unreadable request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			key := fingerprint(clientAddr(r), idempotencyKey, r.Method, r.URL.Path, body)

			for {
				e, owner := store.claim(key)
				if owner {
					rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
					defer func() {
						if p := recover(); p != nil {
							store.mu.Lock()
							delete(store.entries, key)
							close(e.done)
							store.mu.Unlock()
							panic(p)
						}
					}()
					next.ServeHTTP(rec, r)
					store.complete(key, e, rec)
					return
				}

				select {
				case <-e.done:
				case <-r.Context().Done():
					return
				}
				if cur, ok := store.lookup(key); ok && cur == e {
					writeReplay(w, e)
					return
				}
				// the first attempt failed and was dropped; run this one
			}
		})
	}
}

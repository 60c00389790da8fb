package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"estoquemkt/internal/pkg/cache"
	"estoquemkt/internal/pkg/logger"
)

// RateLimiter aplica uma janela fixa por IP com contadores no Redis.
// Se o cache estiver indisponível a requisição segue (fail-open) e o erro é registrado.
func RateLimiter(client cache.Client, limit int, duration time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.GetInt(ctx, key)
			if err == cache.ErrCacheMiss {
				if setErr := client.Set(ctx, key, 1, duration); setErr != nil {
					log.Warn("Falha ao iniciar contador de rate limit.", map[string]interface{}{"ip": ip, "error": setErr.Error()})
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				log.Warn("Rate limit indisponível, seguindo sem limite.", map[string]interface{}{"ip": ip, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			if count >= limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(duration.Seconds())))
				writeError(w, errTooManyRequests)
				return
			}

			if _, err := client.Incr(ctx, key); err != nil {
				log.Warn("Falha ao incrementar contador de rate limit.", map[string]interface{}{"ip": ip, "error": err.Error()})
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count-1))
			next.ServeHTTP(w, r)
		})
	}
}

type tooManyRequestsError struct{}

func (tooManyRequestsError) Error() string {
	return "Limite de requisições excedido. Tente novamente mais tarde."
}
func (tooManyRequestsError) Category() string { return "RATE_LIMITED" }
func (tooManyRequestsError) HTTPStatus() int  { return http.StatusTooManyRequests }
func (tooManyRequestsError) Unwrap() error    { return nil }

var errTooManyRequests = tooManyRequestsError{}

package guards

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoadingPlaceholder is served while the session is still being restored
const LoadingPlaceholder = `<!doctype html><html><head><meta charset="utf-8"><title>Loading</title></head><body><p>Loading...</p></body></html>`

// Middleware gates a route on g. It has the same shape as the server's other middleware
// so it can be chained with them.
func Middleware(g Guard, src StateSource) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(src.State())
			switch d.Outcome {
			case Allow:
				next(w, r)
			case Wait:
				// No redirect yet, the page polls until the session resolves
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Refresh", "1")
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, LoadingPlaceholder)
			default:
				log.Debug().Str("path", r.URL.Path).Str("location", d.Location).Msg("guard redirect")
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			}
		}
	}
}

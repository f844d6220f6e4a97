package runtime

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ReadyCheck is a named dependency probe reported by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// NewBaseMux returns a mux that already serves /healthz and /readyz.
// Checks with a nil func are skipped, so optional dependencies can be passed unconditionally.
func NewBaseMux(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writePlain(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if failures := runChecks(r.Context(), checks); len(failures) > 0 {
			writePlain(w, http.StatusServiceUnavailable, strings.Join(failures, "; "))
			return
		}
		writePlain(w, http.StatusOK, "ok")
	})
	return mux
}

func runChecks(ctx context.Context, checks []ReadyCheck) []string {
	var failures []string
	for _, c := range checks {
		if c.Check == nil {
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Check(checkCtx)
		cancel()
		if err == nil {
			continue
		}
		name := c.Name
		if name == "" {
			name = "dependency"
		}
		failures = append(failures, name+": "+err.Error())
	}
	return failures
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

package httpx

import "net/http"

// healthHandler reports process liveness. On the public allow-list so load
// balancers reach it without a session.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

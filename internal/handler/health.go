package handler

import "net/http"

// HandleHealth answers load balancer probes. It checks nothing beyond the
// process being able to serve HTTP.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

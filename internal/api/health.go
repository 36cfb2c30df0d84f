package api

import (
	"net/http"
)

// healthResponse is the body returned by the health endpoint.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// HandleHealth reports process liveness and build identity. It deliberately
// performs no dependency checks; a saturated database must not make the
// load balancer recycle otherwise healthy instances.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: s.Config.Service,
		Version: s.Config.Build.Version,
		Commit:  s.Config.Build.Commit,
	})
}

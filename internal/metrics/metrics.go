package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Uploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custody_uploads_total",
		Help: "Evidence uploads recorded.",
	})

	Transfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custody_transfers_total",
		Help: "Evidence custody transfers recorded.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_verifications_total",
		Help: "Integrity verifications by outcome.",
	}, []string{"outcome"})

	RoleChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custody_role_changes_total",
		Help: "Role assignments and reassignments.",
	})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

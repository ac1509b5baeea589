package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's Prometheus counters.
type Registry struct {
	Submissions   prometheus.Counter // submission requests received
	Created       prometheus.Counter // documents durably registered
	PermitDenials prometheus.Counter // individual admission attempts denied
	RateLimited   prometheus.Counter // submissions rejected after the retry budget
	StoreErrors   prometheus.Counter // persistence failures surfaced to callers
}

func NewRegistry() *Registry {
	r := &Registry{
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registry_submissions_total",
			Help: "Total document submission requests received",
		}),
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registry_documents_created_total",
			Help: "Total documents successfully registered",
		}),
		PermitDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registry_permit_denials_total",
			Help: "Total admission attempts denied by the rate gate",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registry_rate_limited_total",
			Help: "Total submissions rejected after exhausting admission retries",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registry_store_errors_total",
			Help: "Total persistence failures",
		}),
	}
	prometheus.MustRegister(r.Submissions, r.Created, r.PermitDenials, r.RateLimited, r.StoreErrors)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}

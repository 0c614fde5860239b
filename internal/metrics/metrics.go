// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the service layer.
type Recorder interface {
	RecordClubProvisioned(clubType string)
	RecordInvitationIssued()
	RecordMemberJoined(source string)
}

// Sources for member-joined events.
const (
	JoinSourceInvitation = "invitation"
	JoinSourcePatch      = "patch"
	JoinSourceProvision  = "provision"
)

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	registry          *prometheus.Registry
	clubsProvisioned  *prometheus.CounterVec
	invitationsIssued prometheus.Counter
	membersJoined     *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		clubsProvisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubs_provisioned_total",
			Help: "Total number of well-known clubs provisioned, by club type",
		}, []string{"club_type"}),
		invitationsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubs_invitations_issued_total",
			Help: "Total number of invitation tokens issued",
		}),
		membersJoined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubs_members_joined_total",
			Help: "Total number of members joined, by source",
		}, []string{"source"}),
	}
	c.registry.MustRegister(c.clubsProvisioned, c.invitationsIssued, c.membersJoined)
	return c
}

func (c *Collector) RecordClubProvisioned(clubType string) {
	c.clubsProvisioned.WithLabelValues(clubType).Inc()
}

func (c *Collector) RecordInvitationIssued() {
	c.invitationsIssued.Inc()
}

func (c *Collector) RecordMemberJoined(source string) {
	c.membersJoined.WithLabelValues(source).Inc()
}

// Handler returns the HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards all observations; used in tests.
type Nop struct{}

func (Nop) RecordClubProvisioned(string) {}
func (Nop) RecordInvitationIssued()      {}
func (Nop) RecordMemberJoined(string)    {}

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provisioning steps reported in failure metrics
const (
	stepResolve     = "resolve"
	stepCreateUser  = "create_user"
	stepAttachUser  = "attach_user"
	stepEnroll      = "enroll"
	stepSystemRole  = "system_role"
	stepLookupUser  = "lookup_user"
	stepDeactivate  = "deactivate"
	stepRevokeEnrol = "revoke_enrollments"
	stepRevokeRoles = "revoke_roles"
)

type lifecycleMetrics struct {
	provisioned         prometheus.Counter
	systemRolesAssigned prometheus.Counter
	deactivated         prometheus.Counter
	failures            *prometheus.CounterVec
}

func newLifecycleMetrics(reg prometheus.Registerer) *lifecycleMetrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &lifecycleMetrics{
		provisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "concordance_panelists_provisioned_total",
			Help: "number of panelist accounts provisioned",
		}),
		systemRolesAssigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "concordance_panelists_system_roles_assigned_total",
			Help: "number of system role assignments granted to panelist accounts",
		}),
		deactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "concordance_panelists_deactivated_total",
			Help: "number of panelist accounts deactivated",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "concordance_panelist_lifecycle_failures_total",
			Help: "number of failed lifecycle operations by step",
		}, []string{"operation", "step"}),
	}
}

func (m *lifecycleMetrics) incProvisioned() {
	if m != nil {
		m.provisioned.Inc()
	}
}

func (m *lifecycleMetrics) incSystemRole() {
	if m != nil {
		m.systemRolesAssigned.Inc()
	}
}

func (m *lifecycleMetrics) incDeactivated() {
	if m != nil {
		m.deactivated.Inc()
	}
}

func (m *lifecycleMetrics) fail(operation, step string) {
	if m != nil {
		m.failures.WithLabelValues(operation, step).Inc()
	}
}

package meme

import "time"

// HealthStatus represents the overall health state of a component.
type HealthStatus string

const (
	// HealthOK indicates the component is functioning normally.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial functionality or non-critical issues.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the component is not functioning.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck contains the health of a Generator and its components:
// "image", "render", "fetch" and "errors".
type HealthCheck struct {
	Status     HealthStatus
	Timestamp  time.Time
	Components map[string]ComponentHealth
	Message    string
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status      HealthStatus
	Message     string
	LastUpdated time.Time
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool {
	return h.Status == HealthDegraded
}

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool {
	return h.Status == HealthUnhealthy
}

// worst combines component statuses: any unhealthy wins, then degraded.
func worst(components map[string]ComponentHealth) HealthStatus {
	status := HealthOK
	for _, c := range components {
		switch c.Status {
		case HealthUnhealthy:
			return HealthUnhealthy
		case HealthDegraded:
			status = HealthDegraded
		}
	}
	return status
}

package meme

import "testing"

func TestWorst(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]ComponentHealth
		want       HealthStatus
	}{
		{"empty", nil, HealthOK},
		{"all ok", map[string]ComponentHealth{"a": {Status: HealthOK}, "b": {Status: HealthOK}}, HealthOK},
		{"degraded", map[string]ComponentHealth{"a": {Status: HealthOK}, "b": {Status: HealthDegraded}}, HealthDegraded},
		{"unhealthy wins", map[string]ComponentHealth{"a": {Status: HealthDegraded}, "b": {Status: HealthUnhealthy}}, HealthUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := worst(tt.components); got != tt.want {
				t.Errorf("worst() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthCheckPredicates(t *testing.T) {
	tests := []struct {
		status                        HealthStatus
		healthy, degraded, unhealthy bool
	}{
		{HealthOK, true, false, false},
		{HealthDegraded, false, true, false},
		{HealthUnhealthy, false, false, true},
	}
	for _, tt := range tests {
		h := HealthCheck{Status: tt.status}
		if h.IsHealthy() != tt.healthy || h.IsDegraded() != tt.degraded || h.IsUnhealthy() != tt.unhealthy {
			t.Errorf("HealthCheck{%s} predicates = %v %v %v", tt.status, h.IsHealthy(), h.IsDegraded(), h.IsUnhealthy())
		}
	}
}

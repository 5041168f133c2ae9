package dto

import "time"

type WorkerStatusDTO struct {
	Name      string                    `json:"name"`
	StartedAt time.Time                 `json:"started_at"`
	Uptime    string                    `json:"uptime"`
	Topics    map[string]map[string]int `json:"topics"`

	CircuitBreaker *CircuitBreakerDTO `json:"circuit_breaker,omitempty"`
}

type CircuitBreakerDTO struct {
	ConsecutiveErrors int  `json:"consecutive_errors"`
	Open              bool `json:"open"`
}

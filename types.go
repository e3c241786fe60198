package main

import (
	"time"

	"listings-api-go/aggregator"
)

// healthResponse is the /health payload.
type healthResponse struct {
	Status   string                  `json:"status"`
	Uptime   string                  `json:"uptime"`
	Health   aggregator.HealthReport `json:"health"`
	Breakers map[string]string       `json:"circuitBreakers"`
}

// purgeResponse is the /maintenance/purge payload.
type purgeResponse struct {
	DeletedCount int `json:"deletedCount"`
}

// errorResponse is the generic failure payload.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var serverStart = time.Now()

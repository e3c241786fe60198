package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Listings endpoint
	router.HandleFunc("/api/listings/{provider}", getListings).Methods(http.MethodGet)

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", getStats).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(appMetrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Maintenance endpoints (guarded by the admin token middleware)
	router.HandleFunc("/maintenance/purge", purgeHandler).Methods(http.MethodPost)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}

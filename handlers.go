package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
	"listings-api-go/stats"
	"listings-api-go/store"
)

const defaultPageSize = 20

// parsePositiveInt parses a query parameter, falling back to def for
// missing, malformed or non-positive values.
func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// getListings serves GET /api/listings/{provider}
func getListings(w http.ResponseWriter, r *http.Request) {
	providerName := mux.Vars(r)["provider"]

	if !registry.Has(providerName) {
		Respond(w, r).Error(http.StatusNotFound, errorResponse{
			Success: false,
			Error:   "unknown provider: " + providerName,
		})
		return
	}

	q := providers.Query{
		Hits:    parsePositiveInt(r.URL.Query().Get("hits"), defaultPageSize),
		Offset:  parsePositiveInt(r.URL.Query().Get("offset"), 1),
		Keyword: r.URL.Query().Get("keyword"),
		Genre:   r.URL.Query().Get("genre"),
	}

	result := app.FetchListings(r.Context(), providerName, q)

	resp := Respond(w, r).SetProvider(providerName).SetSource(result.Source)
	if !result.Success {
		resp.Error(http.StatusBadGateway, result)
		return
	}
	resp.JSON(result)
}

// getHealthStatus serves GET /health
func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	report := app.Health()

	status := "ok"
	if report.PersistentStoreStatus == store.StatusError {
		status = "degraded"
	}

	Respond(w, r).JSON(healthResponse{
		Status:   status,
		Uptime:   time.Since(serverStart).Round(time.Second).String(),
		Health:   report,
		Breakers: app.Breakers(),
	})
}

// getStats serves GET /stats
func getStats(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(stats.Get().Snapshot())
}

// purgeHandler serves POST /maintenance/purge
func purgeHandler(w http.ResponseWriter, r *http.Request) {
	retention := time.Duration(conf.Configuration.RetentionDays) * 24 * time.Hour

	deleted, err := app.PurgeExpired(retention)
	if err != nil {
		log.Errorf("%s Purge failed: %v", logcolors.LogPurge, err)
		Respond(w, r).Error(http.StatusInternalServerError, errorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	Respond(w, r).JSON(purgeResponse{DeletedCount: deleted})
}

// helpHandler serves GET /
func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"help":      "Use /api/listings/{provider} to fetch listings. Query parameters: hits (page size, default 20), offset (1-based, default 1), keyword, genre. Example: /api/listings/sokmil?hits=10&keyword=drama",
		"providers": registry.List(),
		"endpoints": []string{
			"/api/listings/{provider}",
			"/health",
			"/stats",
			"/metrics",
			"/maintenance/purge (POST, X-Admin-Token)",
		},
	})
}

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"listings-api-go/aggregator"
	"listings-api-go/cache"
	"listings-api-go/config"
	"listings-api-go/logcolors"
	"listings-api-go/metrics"
	"listings-api-go/middleware"
	"listings-api-go/notifier"
	"listings-api-go/providers"
	"listings-api-go/providers/duga"
	"listings-api-go/providers/sokmil"
	"listings-api-go/store"
	"listings-api-go/throttle"
)

var conf = config.Get()

var (
	app        *aggregator.Aggregator
	appMetrics *metrics.Metrics
	registry   *providers.Registry
	itemStore  *store.ItemStore
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to InfoLevel (change to DebugLevel for detailed logs)

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

// buildRegistry constructs the provider set from configuration. Unconfigured
// providers still register so their routes answer with fallback content.
func buildRegistry() *providers.Registry {
	reg := providers.NewRegistry()

	reg.Register(duga.NewProvider(duga.Config{
		AppID:         conf.Configuration.DugaAppID,
		AgentID:       conf.Configuration.DugaAgentID,
		RatePerMinute: conf.Configuration.DugaRatePerMinute,
		Timeout:       time.Duration(conf.Configuration.DugaTimeoutInSeconds) * time.Second,
	}))
	if !conf.DugaConfigured() {
		log.Warnf("%s Duga credentials missing, provider will serve fallback content", logcolors.UpstreamPrefix(duga.ProviderName))
		notifier.PublishProviderUnconfigured(duga.ProviderName)
	}

	reg.Register(sokmil.NewProvider(sokmil.Config{
		APIKey:        conf.Configuration.SokmilAPIKey,
		AffiliateID:   conf.Configuration.SokmilAffiliateID,
		RatePerMinute: conf.Configuration.SokmilRatePerMinute,
		Timeout:       time.Duration(conf.Configuration.SokmilTimeoutInSeconds) * time.Second,
	}))
	if !conf.SokmilConfigured() {
		log.Warnf("%s Sokmil credentials missing, provider will serve fallback content", logcolors.UpstreamPrefix(sokmil.ProviderName))
		notifier.PublishProviderUnconfigured(sokmil.ProviderName)
	}

	return reg
}

// setupNotifiers wires alert channels from the environment. Missing settings
// just mean fewer channels; the event bus works regardless.
func setupNotifiers() {
	var notifiers []notifier.Notifier

	if topic := os.Getenv("NTFY_TOPIC"); topic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{Topic: topic, Server: os.Getenv("NTFY_SERVER")})
	}
	if token, chat := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"); token != "" && chat != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{BotToken: token, ChatID: chat})
	}

	handler := notifier.NewAlertHandler(notifier.AlertConfig{Notifiers: notifiers})
	handler.Start()
}

// purgeLoop runs the retention purge on a fixed interval.
func purgeLoop() {
	interval := time.Duration(conf.Configuration.PurgeIntervalInSeconds) * time.Second
	retention := time.Duration(conf.Configuration.RetentionDays) * 24 * time.Hour

	log.Infof("%s Purge loop started (every %v, retention %v)", logcolors.LogPurge, interval, retention)
	for {
		time.Sleep(interval)
		if _, err := app.PurgeExpired(retention); err != nil {
			log.Errorf("%s Scheduled purge failed: %v", logcolors.LogPurge, err)
		}
	}
}

func main() {
	setupNotifiers()

	registry = buildRegistry()
	appMetrics = metrics.New()

	// A broken store is not fatal: the service still answers from the
	// ephemeral cache and upstream, with store tiers disabled.
	var err error
	itemStore, err = store.Open(conf.Configuration.StorePath, conf.FeatureFlags.StoreCompression)
	if err != nil {
		log.Errorf("%s Failed to open store at %s: %v", logcolors.LogStoreInit, conf.Configuration.StorePath, err)
		notifier.PublishServerStartupFailed("store", err)
		itemStore = nil
	}

	limits := make(map[string]int)
	for _, name := range registry.List() {
		if p, err := registry.Get(name); err == nil {
			limits[name] = p.Capabilities().RatePerMinute
		}
	}

	app = aggregator.New(aggregator.Config{
		Registry:         registry,
		Limiter:          throttle.New(limits),
		Cache:            cache.NewEphemeral(conf.Configuration.ListingsCacheMaxEntries, time.Duration(conf.Configuration.ListingsCacheTTLInSeconds)*time.Second),
		Store:            itemStore,
		Metrics:          appMetrics,
		BreakerThreshold: conf.Configuration.CircuitBreakerThreshold,
		BreakerCooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
	})

	go purgeLoop()

	router := mux.NewRouter()
	setupRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: false,
	})

	ipLimiter := middleware.NewIPRateLimiter(rate.Limit(conf.Configuration.RateLimitPerSecond), conf.Configuration.RateLimitBurstLimit)

	// logging middleware
	loggedRouter := middleware.LoggingMiddleware(router)
	// admin guard for maintenance endpoints
	guarded := middleware.AdminTokenMiddleware(conf.Configuration.AdminAccessToken, []string{"/maintenance/"})(loggedRouter)
	// chain cors middleware
	corsHandler := c.Handler(guarded)
	// chain rate limiter
	handler := middleware.RateLimitMiddleware(ipLimiter, appMetrics)(corsHandler)

	notifier.PublishServerStarted(port, registry.List())
	log.Infof("Server listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

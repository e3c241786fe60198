package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"

	BrightGreen = "\033[92m"
	BrightBlue  = "\033[94m"
	BrightCyan  = "\033[96m"
)

// Cache and store log prefixes
const (
	LogCache     = Blue + "[Cache]" + Reset
	LogStore     = Blue + "[Store]" + Reset
	LogStoreInit = Blue + "[Store:Init]" + Reset
	LogPurge     = Cyan + "[Store:Purge]" + Reset
)

// Request pipeline log prefixes
const (
	LogListings  = Green + "[Listings]" + Reset
	LogFallback  = BrightCyan + "[Fallback]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogThrottle  = Purple + "[Throttle]" + Reset
	LogAdminKey  = Purple + "[AdminKey]" + Reset
	LogNotifier  = BrightBlue + "[Notifier]" + Reset
)

// UpstreamPrefix returns a colored prefix for a provider's upstream calls
func UpstreamPrefix(provider string) string {
	return BrightGreen + "[Upstream:" + provider + "]" + Reset
}

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Provider tags carried on every normalized item.
const (
	TagJSONProvider = "JSON_PROVIDER"
	TagXMLProvider  = "XML_PROVIDER"
)

// Query holds the request-shaping parameters common to both upstreams.
// Offset is 1-based, matching both providers' paging conventions.
type Query struct {
	Hits    int
	Offset  int
	Keyword string
	Genre   string
}

// Item is the canonical video-listing record produced by either adapter.
//
// LikeCount, ViewCount, RatingValue and ReviewCount are estimated when the
// upstream does not report them; SaleEndsAt is always fabricated (now + N
// days). Fabricated values are listed in SyntheticFields so downstream code
// can tell them apart from observed data.
type Item struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	VideoURL      string   `json:"videoUrl,omitempty"`
	EmbedURL      string   `json:"embedUrl,omitempty"`
	DurationLabel string   `json:"durationLabel"`
	Genres        []string `json:"genres"`
	PerformerName string   `json:"performerName"`
	LikeCount     int      `json:"likeCount"`
	ViewCount     int      `json:"viewCount"`
	ProductURL    string   `json:"productUrl"`
	Price         int      `json:"price"`
	OriginalPrice int      `json:"originalPrice"`
	SaleEndsAt    string   `json:"saleEndsAt"`
	RatingValue   float64  `json:"ratingValue"`
	ReviewCount   int      `json:"reviewCount"`
	Provider      string   `json:"provider"`

	SyntheticFields []string `json:"syntheticFields,omitempty"`
}

// Capabilities describes per-provider orchestration policy.
type Capabilities struct {
	// StoreFirst providers are served from the persistent store before any
	// rate check or upstream call when it already holds enough matches.
	StoreFirst bool

	// FallbackOnBadRequest providers degrade through the fallback chain on
	// upstream 400-class responses; others surface the upstream message.
	FallbackOnBadRequest bool

	// RatePerMinute is the sliding-window ceiling for upstream calls.
	RatePerMinute int

	// Timeout bounds a single upstream call.
	Timeout time.Duration
}

// Provider is implemented by each upstream adapter.
type Provider interface {
	// Name returns the provider's identifier (e.g., "duga", "sokmil").
	Name() string

	// Capabilities returns the provider's orchestration policy.
	Capabilities() Capabilities

	// Fetch translates the query into the provider's parameter conventions,
	// issues the HTTP call and returns normalized items. Fetch never fails
	// on a single malformed item; it fails only when the whole call or the
	// whole payload is unusable.
	Fetch(ctx context.Context, q Query) ([]Item, error)
}

// ErrorKind classifies upstream adapter failures.
type ErrorKind int

const (
	KindUpstream     ErrorKind = iota // generic upstream failure
	KindPrecondition                  // required credential missing or empty
	KindTimeout                       // call exceeded its deadline
	KindBadRequest                    // upstream 400-class response
	KindParse                         // malformed or unexpected response shape
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTimeout:
		return "timeout"
	case KindBadRequest:
		return "bad_request"
	case KindParse:
		return "parse"
	default:
		return "upstream"
	}
}

// ProviderError carries the provider name and failure classification.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a classified provider error.
func NewProviderError(provider string, kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// Classify returns the error kind for err, unwrapping ProviderError and
// recognizing deadline and network timeouts.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUpstream
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Kind == KindUpstream && pe.Err != nil {
			// A wrapped transport timeout outranks the generic class.
			if isTimeout(pe.Err) {
				return KindTimeout
			}
		}
		return pe.Kind
	}

	if isTimeout(err) {
		return KindTimeout
	}
	return KindUpstream
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SyntheticID builds a batch-unique id for an upstream record that carries
// none of its own. Millisecond timestamp plus batch index is unique enough
// within one response batch.
func SyntheticID(provider string, now time.Time, index int) string {
	return fmt.Sprintf("%s-%d-%d", provider, now.UnixMilli(), index)
}

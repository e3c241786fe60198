// Package duga adapts the Duga affiliate JSON API to the common provider
// contract.
package duga

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
)

// ProviderName is the identifier for the Duga provider.
const ProviderName = "duga"

// Config carries the Duga credentials and limits.
type Config struct {
	AppID         string
	AgentID       string
	BaseURL       string // override for tests; empty means production
	RatePerMinute int
	Timeout       time.Duration
}

// Provider implements providers.Provider for the Duga JSON API.
type Provider struct {
	appID   string
	agentID string
	baseURL string
	caps    providers.Capabilities
	now     func() time.Time
}

// NewProvider creates a Duga provider. Credentials are validated per call,
// not here, so a misconfigured provider still registers and reports a
// precondition failure instead of crashing startup.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Provider{
		appID:   strings.TrimSpace(cfg.AppID),
		agentID: strings.TrimSpace(cfg.AgentID),
		baseURL: cfg.BaseURL,
		caps: providers.Capabilities{
			StoreFirst:           false,
			FallbackOnBadRequest: false,
			RatePerMinute:        cfg.RatePerMinute,
			Timeout:              cfg.Timeout,
		},
		now: time.Now,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Capabilities returns the provider's orchestration policy.
func (p *Provider) Capabilities() providers.Capabilities {
	return p.caps
}

// Fetch translates the query, calls the search API and normalizes the item
// batch. A malformed individual item degrades to an error-marked placeholder
// rather than sinking the page.
func (p *Provider) Fetch(ctx context.Context, q providers.Query) ([]providers.Item, error) {
	if p.appID == "" || p.agentID == "" {
		return nil, providers.NewProviderError(ProviderName, providers.KindPrecondition,
			"DUGA_APP_ID and DUGA_AGENT_ID must be configured", nil)
	}

	resp, err := p.search(ctx, q)
	if err != nil {
		return nil, err
	}

	now := p.now()
	items := make([]providers.Item, 0, len(resp.Items))
	for i, raw := range resp.Items {
		item, err := normalizeItem(raw, i, now)
		if err != nil {
			log.Warnf("%s Skipping malformed item %d: %v", logcolors.UpstreamPrefix(ProviderName), i, err)
			items = append(items, placeholderItem(i, now))
			continue
		}
		items = append(items, item)
	}

	log.Infof("%s Fetched %d item(s)", logcolors.UpstreamPrefix(ProviderName), len(items))
	return items, nil
}

// normalizeItem maps one raw API record onto the canonical listing shape.
// Every field is read defensively; missing values degrade to documented
// defaults.
func normalizeItem(raw rawItem, index int, now time.Time) (providers.Item, error) {
	if raw.ProductID == "" && raw.Title == "" {
		return providers.Item{}, fmt.Errorf("record carries neither productid nor title")
	}

	id := ProviderName + "-" + raw.ProductID
	if raw.ProductID == "" {
		id = providers.SyntheticID(ProviderName, now, index)
	}

	title := raw.Title
	if title == "" {
		title = "Untitled listing"
	}

	price := providers.ParsePrice(raw.Price)

	item := providers.Item{
		ID:            id,
		Title:         title,
		ThumbnailURL:  firstImage(raw.PosterImage, raw.JacketImage),
		VideoURL:      sampleMovieURL(raw.SampleMovie),
		DurationLabel: durationLabel(raw.Volume),
		Genres:        names(raw.Category),
		PerformerName: firstName(raw.Performer),
		ProductURL:    productURL(raw),
		Price:         price,
		OriginalPrice: price * 2,
		SaleEndsAt:    providers.SaleEndsAt(now),
		RatingValue:   providers.SyntheticRating(),
		ReviewCount:   providers.SyntheticReviews(),
		ViewCount:     providers.SyntheticViews(),
		Provider:      providers.TagJSONProvider,
		SyntheticFields: []string{
			"viewCount", "ratingValue", "reviewCount", "saleEndsAt", "originalPrice",
		},
	}

	// Mylist totals are the closest observed signal to likes; estimate only
	// when the API omits them.
	if raw.Mylist != nil {
		if n, err := raw.Mylist.Total.Int64(); err == nil {
			item.LikeCount = int(n)
		}
	}
	if item.LikeCount == 0 {
		item.LikeCount = providers.SyntheticLikes()
		item.SyntheticFields = append(item.SyntheticFields, "likeCount")
	}

	return item, nil
}

// placeholderItem stands in for a record that failed normalization so the
// rest of the batch still renders.
func placeholderItem(index int, now time.Time) providers.Item {
	return providers.Item{
		ID:            fmt.Sprintf("%s-error-%d-%d", ProviderName, now.UnixMilli(), index),
		Title:         "Listing unavailable",
		DurationLabel: "--",
		Genres:        []string{},
		PerformerName: providers.DefaultPerformer(),
		Price:         providers.DefaultPrice,
		OriginalPrice: providers.DefaultPrice,
		SaleEndsAt:    providers.SaleEndsAt(now),
		Provider:      providers.TagJSONProvider,
		SyntheticFields: []string{
			"title", "price", "originalPrice", "saleEndsAt",
		},
	}
}

// firstImage picks the best available image URL: poster first, jacket as a
// fallback, preferring medium sizes.
func firstImage(poster, jacket []map[string]string) string {
	for _, entries := range [][]map[string]string{poster, jacket} {
		for _, sizes := range entries {
			for _, key := range []string{"midium", "medium", "large", "small"} {
				if u := sizes[key]; u != "" {
					return u
				}
			}
		}
	}
	return ""
}

func sampleMovieURL(movies []sampleMovie) string {
	for _, m := range movies {
		if m.Midium != nil && m.Midium.Movie != "" {
			return m.Midium.Movie
		}
	}
	return ""
}

func durationLabel(volume string) string {
	if volume == "" {
		return "--"
	}
	return volume + " min"
}

func names(entries []wrappedName) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Data.Name != "" {
			out = append(out, e.Data.Name)
		}
	}
	return out
}

func firstName(entries []wrappedName) string {
	for _, e := range entries {
		if e.Data.Name != "" {
			return e.Data.Name
		}
	}
	return providers.DefaultPerformer()
}

func productURL(raw rawItem) string {
	if raw.AffiliateURL != "" {
		return raw.AffiliateURL
	}
	return raw.URL
}

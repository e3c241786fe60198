// Package sokmil adapts the Sokmil affiliate XML API to the common provider
// contract.
package sokmil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
)

// ProviderName is the identifier for the Sokmil provider.
const ProviderName = "sokmil"

// Config carries the Sokmil credentials and limits.
type Config struct {
	APIKey        string
	AffiliateID   string
	BaseURL       string // override for tests; empty means production
	RatePerMinute int
	Timeout       time.Duration
}

// Provider implements providers.Provider for the Sokmil XML API.
type Provider struct {
	apiKey      string
	affiliateID string
	baseURL     string
	caps        providers.Capabilities
	now         func() time.Time
}

// NewProvider creates a Sokmil provider. Credentials are validated per call
// so a misconfigured provider still registers and reports a precondition
// failure instead of crashing startup.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Provider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		affiliateID: strings.TrimSpace(cfg.AffiliateID),
		baseURL:     cfg.BaseURL,
		caps: providers.Capabilities{
			StoreFirst:           true,
			FallbackOnBadRequest: true,
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

// Fetch translates the query, calls the item API and normalizes the batch.
// A malformed individual item degrades to an error-marked placeholder rather
// than sinking the page.
func (p *Provider) Fetch(ctx context.Context, q providers.Query) ([]providers.Item, error) {
	if p.apiKey == "" || p.affiliateID == "" {
		return nil, providers.NewProviderError(ProviderName, providers.KindPrecondition,
			"SOKMIL_API_KEY and SOKMIL_AFFILIATE_ID must be configured", nil)
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
// Favorites, review counts and review averages are observed when present;
// everything the API omits is estimated and marked as such.
func normalizeItem(raw rawItem, index int, now time.Time) (providers.Item, error) {
	if raw.ItemID == "" && raw.Title == "" {
		return providers.Item{}, fmt.Errorf("record carries neither item_id nor title")
	}

	id := ProviderName + "-" + raw.ItemID
	if raw.ItemID == "" {
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
		ThumbnailURL:  firstImage(raw),
		VideoURL:      raw.SampleMovie,
		EmbedURL:      raw.SampleEmbed,
		DurationLabel: durationLabel(raw.Duration),
		Genres:        compact(raw.Genres),
		PerformerName: firstName(raw.Actresses),
		ProductURL:    productURL(raw),
		Price:         price,
		OriginalPrice: price * 2,
		SaleEndsAt:    providers.SaleEndsAt(now),
		ViewCount:     providers.SyntheticViews(),
		Provider:      providers.TagXMLProvider,
		SyntheticFields: []string{
			"viewCount", "saleEndsAt", "originalPrice",
		},
	}

	if n, err := strconv.Atoi(raw.Favorite); err == nil && n > 0 {
		item.LikeCount = n
	} else {
		item.LikeCount = providers.SyntheticLikes()
		item.SyntheticFields = append(item.SyntheticFields, "likeCount")
	}

	var haveRating, haveReviews bool
	if raw.Review != nil {
		if v, err := strconv.ParseFloat(raw.Review.Average, 64); err == nil && v > 0 {
			item.RatingValue = v
			haveRating = true
		}
		if n, err := strconv.Atoi(raw.Review.Count); err == nil && n > 0 {
			item.ReviewCount = n
			haveReviews = true
		}
	}
	if !haveRating {
		item.RatingValue = providers.SyntheticRating()
		item.SyntheticFields = append(item.SyntheticFields, "ratingValue")
	}
	if !haveReviews {
		item.ReviewCount = providers.SyntheticReviews()
		item.SyntheticFields = append(item.SyntheticFields, "reviewCount")
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
		Provider:      providers.TagXMLProvider,
		SyntheticFields: []string{
			"title", "price", "originalPrice", "saleEndsAt",
		},
	}
}

func firstImage(raw rawItem) string {
	if raw.ImageLarge != "" {
		return raw.ImageLarge
	}
	return raw.ImageSmall
}

func durationLabel(duration string) string {
	if duration == "" {
		return "--"
	}
	return duration + " min"
}

func compact(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func firstName(names []string) string {
	for _, n := range names {
		if n != "" {
			return n
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

package aggregator

import (
	"fmt"
	"time"

	"listings-api-go/providers"
)

var demoTitles = []string{
	"Featured Collection Vol. %d",
	"Weekly Pickup Selection %d",
	"Best of the Season %d",
	"Editor's Choice %d",
	"Trending Now %d",
}

var demoGenres = [][]string{
	{"Drama"},
	{"Idol", "Variety"},
	{"Documentary"},
	{"Drama", "Romance"},
	{"Variety"},
}

// demoItems synthesizes a full page of placeholder listings. The structure
// is deterministic (ids unique within the batch, titles and genres cycle);
// engagement numbers are randomized so the page does not look frozen.
func demoItems(providerTag string, hits int, now time.Time) []providers.Item {
	items := make([]providers.Item, 0, hits)
	for i := 0; i < hits; i++ {
		price := providers.DefaultPrice
		items = append(items, providers.Item{
			ID:            fmt.Sprintf("demo-%s-%d-%d", providerTag, now.UnixMilli(), i),
			Title:         fmt.Sprintf(demoTitles[i%len(demoTitles)], i+1),
			DurationLabel: "--",
			Genres:        demoGenres[i%len(demoGenres)],
			PerformerName: providers.DefaultPerformer(),
			LikeCount:     providers.SyntheticLikes(),
			ViewCount:     providers.SyntheticViews(),
			Price:         price,
			OriginalPrice: price * 2,
			SaleEndsAt:    providers.SaleEndsAt(now),
			RatingValue:   providers.SyntheticRating(),
			ReviewCount:   providers.SyntheticReviews(),
			Provider:      providerTag,
			SyntheticFields: []string{
				"title", "likeCount", "viewCount", "price", "originalPrice",
				"saleEndsAt", "ratingValue", "reviewCount",
			},
		})
	}
	return items
}

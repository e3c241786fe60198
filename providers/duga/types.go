package duga

import "encoding/json"

// Raw response shapes for the Duga affiliate search API. Every field is
// optional in practice, so normalization reads them defensively.

type searchResponse struct {
	Version string      `json:"version"`
	Count   json.Number `json:"count"`
	Items   []rawItem   `json:"items"`
}

type rawItem struct {
	ProductID    string              `json:"productid"`
	Title        string              `json:"title"`
	URL          string              `json:"url"`
	AffiliateURL string              `json:"affiliateurl"`
	PosterImage  []map[string]string `json:"posterimage"`
	JacketImage  []map[string]string `json:"jacketimage"`
	SampleMovie  []sampleMovie       `json:"samplemovie"`
	Price        string              `json:"price"`
	Volume       string              `json:"volume"`
	OpenDate     string              `json:"opendate"`
	Category     []wrappedName       `json:"category"`
	Performer    []wrappedName       `json:"performer"`
	Ranking      *totalEntry         `json:"ranking"`
	Mylist       *totalEntry         `json:"mylist"`
}

type sampleMovie struct {
	Midium *movieEntry `json:"midium"`
}

type movieEntry struct {
	Movie   string `json:"movie"`
	Capture string `json:"capture"`
}

// wrappedName unwraps the API's {"data": {"id": ..., "name": ...}} envelopes.
type wrappedName struct {
	Data nameEntry `json:"data"`
}

type nameEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type totalEntry struct {
	Total json.Number `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

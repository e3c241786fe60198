package sokmil

import "encoding/xml"

// Raw response shapes for the Sokmil affiliate XML API. Slice decoding
// absorbs the API's habit of emitting a bare <item> element when a page has
// exactly one result.

type apiResponse struct {
	XMLName xml.Name  `xml:"response"`
	Status  string    `xml:"result>status"`
	Message string    `xml:"result>message"`
	Count   int       `xml:"result>result_count"`
	Items   []rawItem `xml:"result>items>item"`
}

type rawItem struct {
	ItemID       string   `xml:"item_id"`
	Title        string   `xml:"title"`
	URL          string   `xml:"url"`
	AffiliateURL string   `xml:"affiliate_url"`
	ImageSmall   string   `xml:"image>small"`
	ImageLarge   string   `xml:"image>large"`
	SampleMovie  string   `xml:"sample_movie>url"`
	SampleEmbed  string   `xml:"sample_movie>embed"`
	Duration     string   `xml:"duration"`
	Genres       []string `xml:"genre>name"`
	Actresses    []string `xml:"actress>name"`
	Price        string   `xml:"price"`
	Favorite     string   `xml:"favorite_count"`
	Review       *review  `xml:"review"`
	Date         string   `xml:"date"`
}

type review struct {
	Count   string `xml:"count"`
	Average string `xml:"average"`
}

package duga

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
)

const (
	defaultBaseURL = "https://affapi.duga.jp/search"
	apiVersion     = "1.2"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// The deadline comes from the caller's context, so the client itself carries
// no timeout.
var httpClient = &http.Client{}

// search issues one search call and returns the raw decoded response.
func (p *Provider) search(ctx context.Context, q providers.Query) (*searchResponse, error) {
	params := url.Values{}
	params.Set("appid", p.appID)
	params.Set("agentid", p.agentID)
	params.Set("version", apiVersion)
	params.Set("output", "json")
	params.Set("hits", strconv.Itoa(q.Hits))
	params.Set("offset", strconv.Itoa(q.Offset)) // 1-based
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Genre != "" {
		params.Set("category", q.Genre)
	}

	requestURL := p.baseURL + "?" + params.Encode()

	log.Debugf("%s Searching: hits=%d offset=%d keyword=%q", logcolors.UpstreamPrefix(ProviderName), q.Hits, q.Offset, q.Keyword)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, providers.KindUpstream, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, providers.KindUpstream, "failed to read response", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, providers.NewProviderError(ProviderName, providers.KindBadRequest, extractErrorMessage(body, resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, providers.NewProviderError(ProviderName, providers.KindUpstream,
			fmt.Sprintf("API returned status %d", resp.StatusCode), nil)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, providers.NewProviderError(ProviderName, providers.KindParse, "failed to parse response", err)
	}

	return &searchResp, nil
}

// extractErrorMessage relays the upstream's own error body when present; the
// message is the only diagnostic the API gives for auth and parameter
// mistakes.
func extractErrorMessage(body []byte, statusCode int) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("API error %d: %s", statusCode, errResp.Error.Message)
	}
	return fmt.Sprintf("API returned status %d", statusCode)
}

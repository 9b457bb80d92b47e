package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vulnverified/blobsweep/internal/engine"
)

const (
	bingBaseURL    = "https://api.bing.microsoft.com/v7.0/search"
	bingTimeout    = 15 * time.Second
	bingMaxBody    = 10 * 1024 * 1024 // 10MB
	bingRetryDelay = 3 * time.Second
	bingCount      = 50
	bingSite       = "blob.core.windows.net"
)

type bingResponse struct {
	WebPages *struct {
		Value []struct {
			URL string `json:"url"`
		} `json:"value"`
	} `json:"webPages"`
}

// Bing finds storage account hosts and container names through the Bing Web
// Search API.
type Bing struct {
	APIKey    string
	UserAgent string
	Client    *http.Client
	// Endpoint overrides bingBaseURL.
	Endpoint string
}

// Search implements engine.SearchProvider.
func (b *Bing) Search(ctx context.Context, base string) (*engine.SearchResult, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("bing: no API key")
	}

	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = bingBaseURL
	}
	q := url.Values{}
	q.Set("q", fmt.Sprintf("site:%s %s", bingSite, base))
	q.Set("count", strconv.Itoa(bingCount))

	body, err := b.fetch(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("bing search for %s: %w", base, err)
	}
	return parseBingResponse(body)
}

func (b *Bing) fetch(ctx context.Context, u string) ([]byte, error) {
	body, err := b.doRequest(ctx, u)
	if err == nil {
		return body, nil
	}

	// Auth failures and rate limits won't clear on retry.
	if strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "status 4") {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(bingRetryDelay):
	}

	return b.doRequest(ctx, u)
}

func (b *Bing) doRequest(ctx context.Context, u string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, bingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.APIKey)
	req.Header.Set("Accept", "application/json")
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("bing rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, bingMaxBody))
	if err != nil {
		return nil, fmt.Errorf("bing read body: %w", err)
	}
	return body, nil
}

// parseBingResponse extracts storage hosts and first path segments from the
// result URLs. A response without webPages yields an empty result.
func parseBingResponse(body []byte) (*engine.SearchResult, error) {
	var resp bingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bing JSON parse: %w", err)
	}

	result := &engine.SearchResult{}
	if resp.WebPages == nil {
		return result, nil
	}

	seenHost := make(map[string]bool)
	seenContainer := make(map[string]bool)
	for _, v := range resp.WebPages.Value {
		u, err := url.Parse(strings.TrimSpace(v.URL))
		if err != nil || u.Host == "" {
			continue
		}

		host := strings.ToLower(u.Host)
		if !strings.HasSuffix(host, "."+bingSite) {
			continue
		}
		if !seenHost[host] {
			seenHost[host] = true
			result.Hosts = append(result.Hosts, host)
		}

		container, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		container = strings.ToLower(container)
		if container != "" && !seenContainer[container] {
			seenContainer[container] = true
			result.Containers = append(result.Containers, container)
		}
	}
	return result, nil
}

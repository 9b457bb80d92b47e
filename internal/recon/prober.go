package recon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vulnverified/blobsweep/internal/engine"
	"github.com/vulnverified/blobsweep/internal/pool"
	"golang.org/x/time/rate"
)

const (
	probeMaxBody     = 16 * 1024 * 1024
	maxListingPages  = 50
	defaultUserAgent = "blobsweep/1.0"
)

// NewHTTPClient returns the client shared by every probe worker.
func NewHTTPClient(timeout time.Duration, workers int) *http.Client {
	if workers < 1 {
		workers = 1
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        workers * 2,
			MaxIdleConnsPerHost: workers,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// Prober implements engine.ContainerProber. Each endpoint is a host/folder
// path without scheme.
type Prober struct {
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter
	Log       logrus.FieldLogger
	// Scheme defaults to https.
	Scheme string
}

// Probe checks every endpoint for a publicly listable container. Network,
// status and parse failures mean "no result" for that endpoint only.
func (p *Prober) Probe(ctx context.Context, endpoints []string, workers int, tick func()) ([]engine.ContainerResult, error) {
	return pool.Run(ctx, endpoints, workers, p.probeOne, tick), nil
}

func (p *Prober) probeOne(ctx context.Context, endpoint string) []engine.ContainerResult {
	log := logger(p.Log).WithField("endpoint", endpoint)
	base := p.scheme() + "://" + endpoint

	status, _, err := p.get(ctx, base+"?restype=container")
	if err != nil {
		log.WithError(err).Debug("existence check failed")
		return nil
	}
	if status != http.StatusOK {
		log.WithField("status", status).Debug("not a public container")
		return nil
	}

	listURL := base + "?restype=container&comp=list"
	names, err := p.list(ctx, listURL)
	if err != nil {
		log.WithError(err).Debug("listing failed")
		return nil
	}

	if len(names) == 0 {
		log.Debug("empty public container")
		return []engine.ContainerResult{{
			Kind:     engine.KindEmptyContainer,
			Endpoint: endpoint,
			URL:      listURL,
		}}
	}

	results := make([]engine.ContainerResult, 0, len(names))
	for _, name := range names {
		results = append(results, engine.ContainerResult{
			Kind:     engine.KindObject,
			Endpoint: endpoint,
			URL:      objectURL(base, name),
		})
	}
	log.WithField("objects", len(names)).Debug("public container listed")
	return results
}

// list follows NextMarker pages until the listing is exhausted.
func (p *Prober) list(ctx context.Context, listURL string) ([]string, error) {
	var names []string
	marker := ""
	for page := 0; page < maxListingPages; page++ {
		u := listURL
		if marker != "" {
			u += "&marker=" + url.QueryEscape(marker)
		}

		status, body, err := p.get(ctx, u)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("listing returned status %d", status)
		}

		listing, err := ParseListing(body)
		if err != nil {
			return nil, err
		}
		names = append(names, listing.Names...)

		if listing.NextMarker == "" {
			break
		}
		marker = listing.NextMarker
	}
	return names, nil
}

// objectURL escapes each "/"-separated segment of a blob name.
func objectURL(base, name string) string {
	segs := strings.Split(name, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(segs, "/")
}

func (p *Prober) get(ctx context.Context, rawURL string) (int, []byte, error) {
	if err := waitLimiter(ctx, p.Limiter); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", p.userAgent())

	resp, err := p.client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeMaxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (p *Prober) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *Prober) scheme() string {
	if p.Scheme != "" {
		return p.Scheme
	}
	return "https"
}

func (p *Prober) userAgent() string {
	if p.UserAgent != "" {
		return p.UserAgent
	}
	return defaultUserAgent
}

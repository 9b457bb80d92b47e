// Package engine orchestrates the blobsweep enumeration pipelines.
package engine

import (
	"context"
	"time"
)

// ScanResult is the top-level output of a container enumeration run.
type ScanResult struct {
	Base         string            `json:"base,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  time.Time         `json:"completed_at"`
	DurationSecs float64           `json:"duration_secs"`
	Accounts     []string          `json:"accounts"`
	SearchHosts  []string          `json:"search_hosts,omitempty"`
	Containers   []ContainerResult `json:"containers"`
	Warnings     []string          `json:"warnings,omitempty"`
	Summary      Summary           `json:"summary"`
}

// ResultKind distinguishes the two kinds of container probe result.
type ResultKind string

const (
	// KindObject is a publicly listed object.
	KindObject ResultKind = "object"
	// KindEmptyContainer marks a publicly listable container with no objects.
	KindEmptyContainer ResultKind = "empty_container"
)

// ContainerResult is one verified finding from the container probe stage.
// For KindObject, URL is the object URL; for KindEmptyContainer it is the
// listing URL of the container.
type ContainerResult struct {
	Kind     ResultKind `json:"kind"`
	Endpoint string     `json:"endpoint"`
	URL      string     `json:"url"`
}

// Summary provides aggregate counts for a container run.
type Summary struct {
	CandidatesTested int `json:"candidates_tested"`
	AccountsFound    int `json:"accounts_found"`
	PathsProbed      int `json:"paths_probed"`
	ObjectsFound     int `json:"objects_found"`
	EmptyContainers  int `json:"empty_containers"`
}

// SubdomainResult is the top-level output of a subdomain enumeration run.
type SubdomainResult struct {
	Bases        []string         `json:"bases"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  time.Time        `json:"completed_at"`
	DurationSecs float64          `json:"duration_secs"`
	Subdomains   []Subdomain      `json:"subdomains"`
	Warnings     []string         `json:"warnings,omitempty"`
	Summary      SubdomainSummary `json:"summary"`
}

// Subdomain is a resolved platform hostname and the service it belongs to.
type Subdomain struct {
	Host    string `json:"host"`
	Service string `json:"service"`
}

// SubdomainSummary provides aggregate counts for a subdomain run.
type SubdomainSummary struct {
	CandidatesTested int `json:"candidates_tested"`
	SubdomainsFound  int `json:"subdomains_found"`
	ServicesFound    int `json:"services_found"`
}

// SearchResult holds hostnames and container names seen in web search results.
type SearchResult struct {
	Hosts      []string
	Containers []string
}

// HostResolver returns the subset of names that resolve. Per-name failures are
// not errors; tick is called once per name attempted.
type HostResolver interface {
	Resolve(ctx context.Context, names []string, workers int, tick func()) ([]string, error)
}

// ContainerProber probes host/folder endpoints for publicly listable containers.
type ContainerProber interface {
	Probe(ctx context.Context, endpoints []string, workers int, tick func()) ([]ContainerResult, error)
}

// SearchProvider looks up storage hostnames for a base word on the web.
type SearchProvider interface {
	Search(ctx context.Context, base string) (*SearchResult, error)
}

// Selector lets the operator pick a subset of candidate hosts.
type Selector interface {
	Select(hosts []string) []string
}

// Sink persists discovered names, one per line.
type Sink interface {
	Write(lines []string) error
}

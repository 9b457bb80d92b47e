package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vulnverified/blobsweep/internal/permute"
	"github.com/vulnverified/blobsweep/pkg/services"
)

// SubdomainConfig holds the runtime configuration for a subdomain run.
type SubdomainConfig struct {
	Bases        []string
	Permutations []string
	// Suffixes defaults to every suffix in services.Known.
	Suffixes []string
	Workers  int
}

// RunSubdomains resolves every base/permutation/suffix combination and labels
// the hits with the service their suffix belongs to. sink may be nil.
func RunSubdomains(ctx context.Context, cfg SubdomainConfig, resolver HostResolver, sink Sink, progress ProgressReporter) (*SubdomainResult, error) {
	result := &SubdomainResult{
		Bases:     cfg.Bases,
		StartedAt: time.Now(),
	}

	suffixes := cfg.Suffixes
	if len(suffixes) == 0 {
		suffixes = services.Suffixes()
	}

	names := permute.Subdomains(cfg.Bases, cfg.Permutations, suffixes)
	result.Summary.CandidatesTested = len(names)

	progress.Stage(1, 2, fmt.Sprintf("Resolving %d candidates across %d services...", len(names), len(suffixes)))
	hosts, err := resolve(ctx, resolver, names, cfg.Workers, progress)
	if err != nil {
		progress.Warn(fmt.Sprintf("DNS resolution error: %s", err))
		result.Warnings = append(result.Warnings, err.Error())
	}

	for _, h := range hosts {
		label, ok := services.Label(h)
		if !ok {
			label = "Unknown"
		}
		result.Subdomains = append(result.Subdomains, Subdomain{Host: h, Service: label})
		progress.Found(FoundSubdomain, h)
	}
	sort.SliceStable(result.Subdomains, func(i, j int) bool {
		return result.Subdomains[i].Service < result.Subdomains[j].Service
	})
	progress.Detail(fmt.Sprintf("%d subdomains resolved", len(result.Subdomains)))

	progress.Stage(2, 2, "Writing results...")
	if sink != nil {
		if err := sink.Write(deduplicateStrings(hosts)); err != nil {
			progress.Warn(fmt.Sprintf("output: %s", err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("output: %s", err))
		}
	}

	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
	result.Summary.SubdomainsFound = len(result.Subdomains)
	labels := make(map[string]bool)
	for _, s := range result.Subdomains {
		labels[s.Service] = true
	}
	result.Summary.ServicesFound = len(labels)
	return result, nil
}

package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caffix/stringset"
	"github.com/vulnverified/blobsweep/internal/permute"
)

// Config holds the runtime configuration for a container run.
type Config struct {
	Base         string
	Permutations []string
	Folders      []string
	Suffix       string
	Workers      int
}

// Stages holds the injectable stage implementations. Search, Selector and
// Sink are optional.
type Stages struct {
	Resolver HostResolver
	Prober   ContainerProber
	Search   SearchProvider
	Selector Selector
	Sink     Sink
}

// Finding kinds passed to ProgressReporter.Found.
const (
	FoundAccount        = "account"
	FoundSubdomain      = "subdomain"
	FoundObject         = "object"
	FoundEmptyContainer = "empty_container"
)

// ProgressReporter is called by the engine to report stage progress.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
	Found(kind, value string)
	// Track starts a counter for total work items. tick must be safe for
	// concurrent use; done is called once the stage has joined.
	Track(desc string, total int) (tick func(), done func())
}

// Run executes the container pipeline: generate account candidates, resolve
// them, optionally merge search results, generate container paths, probe them
// and emit the aggregate. Each stage completes before the next starts.
func Run(ctx context.Context, cfg Config, stages Stages, progress ProgressReporter) (*ScanResult, error) {
	result := &ScanResult{
		Base:      cfg.Base,
		StartedAt: time.Now(),
	}

	suffix := cfg.Suffix
	if suffix == "" {
		suffix = permute.BlobSuffix
	}

	useSearch := stages.Search != nil && cfg.Base != ""
	totalStages := 3
	if useSearch {
		totalStages = 4
	}
	stage := 0

	// Account candidates.
	candidates := permute.BlobHosts(cfg.Base, cfg.Permutations, suffix)
	result.Summary.CandidatesTested = len(candidates)

	stage++
	progress.Stage(stage, totalStages, fmt.Sprintf("Resolving %d storage account candidates...", len(candidates)))
	accounts, err := resolve(ctx, stages.Resolver, candidates, cfg.Workers, progress)
	if err != nil {
		progress.Warn(fmt.Sprintf("DNS resolution error: %s", err))
		result.Warnings = append(result.Warnings, err.Error())
	}
	for _, a := range accounts {
		progress.Found(FoundAccount, a)
	}
	progress.Detail(fmt.Sprintf("%d storage accounts resolved", len(accounts)))

	folders := cfg.Folders

	// External discovery.
	if useSearch {
		stage++
		progress.Stage(stage, totalStages, fmt.Sprintf("Searching the web for %s...", cfg.Base))
		var chosen []string
		chosen, folders = mergeSearch(ctx, cfg, stages, accounts, folders, result, progress)
		result.SearchHosts = chosen
		accounts = append(accounts, chosen...)
	}
	result.Accounts = accounts

	// Container paths.
	paths := permute.Paths(accounts, folders)
	result.Summary.PathsProbed = len(paths)

	stage++
	progress.Stage(stage, totalStages, fmt.Sprintf("Probing %d containers across %d accounts...", len(paths), len(accounts)))
	var found []ContainerResult
	if len(paths) > 0 {
		tick, done := progress.Track("containers", len(paths))
		found, err = stages.Prober.Probe(ctx, paths, cfg.Workers, tick)
		done()
		if err != nil {
			progress.Warn(fmt.Sprintf("container probe error: %s", err))
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	result.Containers = dedupeContainers(found)
	for _, c := range result.Containers {
		if c.Kind == KindObject {
			progress.Found(FoundObject, c.URL)
		} else {
			progress.Found(FoundEmptyContainer, c.URL)
		}
	}

	// Aggregate and emit.
	stage++
	progress.Stage(stage, totalStages, "Writing results...")
	if stages.Sink != nil {
		lines := append([]string{}, result.Accounts...)
		for _, c := range result.Containers {
			lines = append(lines, c.URL)
		}
		if err := stages.Sink.Write(deduplicateStrings(lines)); err != nil {
			progress.Warn(fmt.Sprintf("output: %s", err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("output: %s", err))
		}
	}

	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
	result.Summary = buildSummary(result)
	return result, nil
}

func resolve(ctx context.Context, r HostResolver, names []string, workers int, progress ProgressReporter) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tick, done := progress.Track("dns", len(names))
	defer done()
	return r.Resolve(ctx, names, workers, tick)
}

// mergeSearch runs the search source, lets the operator choose among the new
// hostnames and folds the search containers into the folder list. Failures
// degrade to a warning.
func mergeSearch(ctx context.Context, cfg Config, stages Stages, accounts, folders []string, result *ScanResult, progress ProgressReporter) ([]string, []string) {
	sr, err := stages.Search.Search(ctx, cfg.Base)
	if err != nil {
		progress.Warn(fmt.Sprintf("search: %s", err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("search: %s", err))
		return nil, folders
	}
	if sr == nil || len(sr.Hosts) == 0 {
		progress.Warn("No results from search")
		return nil, folders
	}

	known := stringset.New(accounts...)
	defer known.Close()

	// Set semantics: search results repeat hosts across pages and URLs.
	offered := stringset.New()
	defer offered.Close()
	var hosts []string
	for _, h := range sr.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || known.Has(h) || offered.Has(h) {
			continue
		}
		offered.Insert(h)
		hosts = append(hosts, h)
	}
	progress.Detail(fmt.Sprintf("search: %d new hosts, %d containers", len(hosts), len(sr.Containers)))

	var chosen []string
	if len(hosts) > 0 && stages.Selector != nil {
		picked := stringset.New()
		defer picked.Close()
		for _, h := range stages.Selector.Select(hosts) {
			if picked.Has(h) {
				continue
			}
			picked.Insert(h)
			chosen = append(chosen, h)
		}
	}

	folderSet := stringset.New(folders...)
	defer folderSet.Close()
	merged := append([]string{}, folders...)
	for _, c := range sr.Containers {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || folderSet.Has(c) {
			continue
		}
		folderSet.Insert(c)
		merged = append(merged, c)
	}
	return chosen, merged
}

// dedupeContainers drops repeated URLs, keeping the first occurrence. Object
// names are case-sensitive, so this compares exactly.
func dedupeContainers(in []ContainerResult) []ContainerResult {
	seen := make(map[string]bool, len(in))
	out := make([]ContainerResult, 0, len(in))
	for _, c := range in {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

func deduplicateStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func buildSummary(result *ScanResult) Summary {
	s := result.Summary
	s.AccountsFound = len(result.Accounts)
	s.ObjectsFound = 0
	s.EmptyContainers = 0
	for _, c := range result.Containers {
		switch c.Kind {
		case KindObject:
			s.ObjectsFound++
		case KindEmptyContainer:
			s.EmptyContainers++
		}
	}
	return s
}

// ContainerName returns the container segment of a probe URL
// ("https://a.blob.core.windows.net/logs/x.txt" -> "logs").
func ContainerName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	return name
}

// ObjectName returns the unescaped object path of an object URL, without
// host or container ("https://a.blob.core.windows.net/logs/x/y.txt" -> "x/y.txt").
func ObjectName(raw string) string {
	_, rest, ok := strings.Cut(raw, "://")
	if !ok {
		rest = raw
	}
	_, path, _ := strings.Cut(rest, "/")
	_, name, _ := strings.Cut(path, "/")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vulnverified/blobsweep/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// WriteHeader prints the blobsweep banner.
func WriteHeader(w io.Writer, noColor bool) {
	if noColor {
		fmt.Fprintf(w, "blobsweep %s\n\n", Version)
	} else {
		fmt.Fprintf(w, "\033[1mblobsweep %s\033[0m\n\n", Version)
	}
}

// WriteContainerSummary prints the post-run summary of a container run.
func WriteContainerSummary(w io.Writer, result *engine.ScanResult, noColor bool) {
	s := result.Summary

	base := result.Base
	if base == "" {
		base = "(none)"
	}

	fmt.Fprintln(w)
	writeField(w, noColor, "Base", base)
	writeField(w, noColor, "Accounts", fmt.Sprintf("%d found of %d candidates", s.AccountsFound, s.CandidatesTested))
	writeField(w, noColor, "Containers", fmt.Sprintf("%d paths probed, %d empty public", s.PathsProbed, s.EmptyContainers))
	writeField(w, noColor, "Objects", fmt.Sprintf("%d publicly listed", s.ObjectsFound))
	writeField(w, noColor, "Duration", fmt.Sprintf("%.1fs", result.DurationSecs))

	if len(result.Accounts) > 0 {
		fmt.Fprintln(w)
		for _, a := range result.Accounts {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}

	if names := publicContainers(result.Containers); len(names) > 0 {
		fmt.Fprintln(w)
		writeAlert(w, noColor, fmt.Sprintf("%d publicly listable containers: %s", len(names), strings.Join(names, ", ")))
	}
}

// WriteSubdomainSummary prints the post-run summary of a subdomain run.
func WriteSubdomainSummary(w io.Writer, result *engine.SubdomainResult, noColor bool) {
	s := result.Summary

	fmt.Fprintln(w)
	writeField(w, noColor, "Bases", strings.Join(result.Bases, ", "))
	writeField(w, noColor, "Subdomains", fmt.Sprintf("%d resolved of %d candidates", s.SubdomainsFound, s.CandidatesTested))
	writeField(w, noColor, "Services", fmt.Sprintf("%d", s.ServicesFound))
	writeField(w, noColor, "Duration", fmt.Sprintf("%.1fs", result.DurationSecs))
}

func writeField(w io.Writer, noColor bool, name, value string) {
	if noColor {
		fmt.Fprintf(w, "%s: %s\n", name, value)
	} else {
		fmt.Fprintf(w, "\033[1m%s:\033[0m %s\n", name, value)
	}
}

func writeAlert(w io.Writer, noColor bool, msg string) {
	if noColor {
		fmt.Fprintf(w, "! %s\n", msg)
	} else {
		fmt.Fprintf(w, "\033[33m!\033[0m %s\n", msg)
	}
}

// publicContainers returns the distinct container names, sorted.
func publicContainers(results []engine.ContainerResult) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range results {
		name := engine.ContainerName(r.URL)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

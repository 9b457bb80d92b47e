// Package permute builds candidate hostnames and container paths from base
// words and permutation wordlists.
package permute

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// BlobSuffix is the DNS suffix of public blob storage endpoints.
const BlobSuffix = ".blob.core.windows.net"

// ErrInvalidBase is returned for base words that cannot form a DNS label.
var ErrInvalidBase = errors.New("invalid base word")

var baseRegex = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// subdomainPatterns join a permutation word with a base word.
var subdomainPatterns = []func(word, base string) string{
	func(word, base string) string { return word + "-" + base },
	func(word, base string) string { return base + "-" + word },
	func(word, base string) string { return word + base },
	func(word, base string) string { return base + word },
}

// SanitizeBase trims a base word and strips any periods, which would collide
// with the suffix boundary. stripped reports whether periods were removed so
// callers can tell the operator.
func SanitizeBase(base string) (clean string, stripped bool, err error) {
	clean = strings.TrimSpace(base)
	if strings.Contains(clean, ".") {
		clean = strings.ReplaceAll(clean, ".", "")
		stripped = true
	}
	if !baseRegex.MatchString(clean) {
		return "", stripped, fmt.Errorf("%w: %q", ErrInvalidBase, base)
	}
	return clean, stripped, nil
}

// BlobHosts returns storage account candidates. With a base word the result is
// base, then base+word for every word, then word+base for every word. Without
// one, every word is a candidate on its own. All names get suffix appended and
// are lower-cased.
func BlobHosts(base string, words []string, suffix string) []string {
	if base == "" {
		hosts := make([]string, 0, len(words))
		for _, w := range words {
			hosts = append(hosts, strings.ToLower(w+suffix))
		}
		return hosts
	}

	hosts := make([]string, 0, 1+2*len(words))
	hosts = append(hosts, strings.ToLower(base+suffix))
	for _, w := range words {
		hosts = append(hosts, strings.ToLower(base+w+suffix))
	}
	for _, w := range words {
		hosts = append(hosts, strings.ToLower(w+base+suffix))
	}
	return hosts
}

// Subdomains returns len(bases) * len(suffixes) * (1 + 4*len(words)) candidates.
// suffixes are bare domains without a leading dot.
func Subdomains(bases, words, suffixes []string) []string {
	names := make([]string, 0, len(bases)*len(suffixes)*(1+len(subdomainPatterns)*len(words)))
	for _, base := range bases {
		for _, suffix := range suffixes {
			names = append(names, strings.ToLower(base+"."+suffix))
			for _, pattern := range subdomainPatterns {
				for _, w := range words {
					names = append(names, strings.ToLower(pattern(w, base)+"."+suffix))
				}
			}
		}
	}
	return names
}

// Paths returns one host/folder candidate per (host, folder) pair.
func Paths(hosts, folders []string) []string {
	paths := make([]string, 0, len(hosts)*len(folders))
	for _, h := range hosts {
		for _, f := range folders {
			paths = append(paths, strings.ToLower(h+"/"+f))
		}
	}
	return paths
}

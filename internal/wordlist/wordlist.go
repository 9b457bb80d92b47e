// Package wordlist loads permutation and folder wordlists.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed permutations.txt
var defaultPermutations string

// Default returns the embedded permutation wordlist.
func Default() []string {
	words, _ := Parse(strings.NewReader(defaultPermutations))
	return words
}

// Load reads a wordlist from path, or returns the embedded default when path
// is empty. A missing or unreadable file is an error.
func Load(path string) ([]string, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordlist: reading %s: %w", path, err)
	}
	defer f.Close()

	words, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("wordlist: reading %s: %w", path, err)
	}
	return words, nil
}

// Parse returns one token per line, trimmed of surrounding whitespace.
// Blank lines and lines starting with '#' are skipped. Order is preserved and
// duplicates are kept.
func Parse(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

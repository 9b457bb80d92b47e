package output

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// FileSink appends result lines to a file, creating it if needed.
type FileSink struct {
	Path string
	mu   sync.Mutex
}

// Write implements engine.Sink.
func (s *FileSink) Write(lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.Path, err)
	}

	bw := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", s.Path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return f.Close()
}

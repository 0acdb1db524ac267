package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadKeyValues merges a key=value file into the map.
//
// One assignment per line; '#' starts a comment running to end of line.
// Lines without '=' or with an empty key are skipped. Whitespace around key
// and value is trimmed.
//
// Returns an error only when the file cannot be opened or read; individual
// malformed lines never fail the load.
func (m *Map) LoadKeyValues(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		m.entries[key] = strings.TrimSpace(line[eq+1:])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Package tickerfile loads a ticker-list file: UTF-8 text, one ticker
// per line, empty and whitespace-only lines skipped, each ticker
// trimmed (§6). This is the external collaborator spec.md §1 treats as
// out of scope for the protocol core, implemented here so both
// cmd/publisher and cmd/subscriber have a working CLI.
package tickerfile

import (
	"bufio"
	"os"
	"strings"
)

// Load reads path and returns the trimmed, non-empty ticker lines in
// file order.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tickers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tickers = append(tickers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tickers, nil
}

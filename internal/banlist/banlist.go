// Package banlist loads the F&O ban-period security list from CSV.
package banlist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Entry is one banned security: the symbol and the date the ban started.
type Entry struct {
	Symbol string    `json:"symbol"`
	Since  time.Time `json:"since"`
}

// List is the set of securities currently in the ban period.
type List struct {
	entries []Entry
	bySym   map[string]Entry
}

// Load reads a ban-list CSV (header row, then symbol,since columns with
// since as YYYY-MM-DD). Rows with a malformed date are skipped.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ban list: %w", err)
	}
	defer f.Close()

	l := &List{bySym: make(map[string]Entry)}
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // skip header
		}
		fields := strings.Split(scanner.Text(), ",")
		if len(fields) < 2 {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(fields[0]))
		if sym == "" {
			continue
		}
		since, err := time.Parse("2006-01-02", strings.TrimSpace(fields[1]))
		if err != nil {
			slog.Warn("skipping ban-list row with bad date", "symbol", sym, "since", fields[1])
			continue
		}
		e := Entry{Symbol: sym, Since: since}
		l.entries = append(l.entries, e)
		l.bySym[sym] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slog.Info("loaded ban list", "file", path, "symbols", len(l.entries))
	return l, nil
}

// Contains reports whether the symbol is in the ban period.
// Matching is case-insensitive.
func (l *List) Contains(symbol string) bool {
	_, ok := l.bySym[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Lookup returns the ban entry for a symbol, if present.
func (l *List) Lookup(symbol string) (Entry, bool) {
	e, ok := l.bySym[strings.ToUpper(strings.TrimSpace(symbol))]
	return e, ok
}

// Entries returns all banned securities in file order.
func (l *List) Entries() []Entry {
	return l.entries
}

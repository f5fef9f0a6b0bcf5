package finance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// UniverseEntry is one selectable ticker.
type UniverseEntry struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// Universe is the reference list of tickers a user may pick from.
type Universe struct {
	entries []UniverseEntry
	byCode  map[string]int
}

// LoadUniverse reads a code,display CSV file. A header row starting with
// "code" or "ticker" is skipped; a missing display falls back to the code.
func LoadUniverse(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticker list '%s': %w", path, err)
	}
	defer f.Close()
	u, err := ReadUniverse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticker list '%s': %w", path, err)
	}
	return u, nil
}

// ReadUniverse parses the CSV ticker list from r.
func ReadUniverse(r io.Reader) (*Universe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	u := &Universe{byCode: map[string]int{}}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if line == 1 && (code == "CODE" || code == "TICKER") {
			continue
		}
		display := code
		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			display = strings.TrimSpace(rec[1])
		}
		if _, dup := u.byCode[code]; dup {
			continue
		}
		u.byCode[code] = len(u.entries)
		u.entries = append(u.entries, UniverseEntry{Code: code, Display: display})
	}
	if len(u.entries) == 0 {
		return nil, errors.New("ticker list is empty")
	}
	return u, nil
}

// Len returns the number of tickers.
func (u *Universe) Len() int { return len(u.entries) }

// Contains reports whether code is selectable.
func (u *Universe) Contains(code string) bool {
	_, ok := u.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Display returns the display name of code, or code itself when unknown.
func (u *Universe) Display(code string) string {
	if i, ok := u.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return u.entries[i].Display
	}
	return code
}

// Unknown returns the codes that are not part of the universe.
func (u *Universe) Unknown(codes []string) []string {
	var out []string
	for _, c := range codes {
		if !u.Contains(c) {
			out = append(out, strings.ToUpper(strings.TrimSpace(c)))
		}
	}
	return out
}

// Search returns entries whose code or display contains query (case-insensitive),
// in file order. An empty query matches everything.
func (u *Universe) Search(query string) []UniverseEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []UniverseEntry
	for _, e := range u.entries {
		if q == "" || strings.Contains(strings.ToLower(e.Code), q) || strings.Contains(strings.ToLower(e.Display), q) {
			out = append(out, e)
		}
	}
	return out
}

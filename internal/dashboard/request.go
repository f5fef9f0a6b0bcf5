package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dashboardBot/internal/finance"
)

// DefaultStart is the first date of a dashboard when none is given.
var DefaultStart = time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)

var ErrInvalidDate = errors.New("invalid date")

// Request is the explicit selection a dashboard is built from. Zero dates and
// an empty benchmark take their defaults at build time. End is exclusive.
type Request struct {
	Symbols   []string  `json:"symbols"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Benchmark string    `json:"benchmark"`
}

// ParseArgs reads command arguments of the form
//
//	SYM1 SYM2 ... [START [END]] [vs BENCH]
//
// Symbols may also be separated by commas. Dates are YYYY-MM-DD.
func ParseArgs(args []string) (Request, error) {
	var req Request
	for i := 0; i < len(args); i++ {
		tok := strings.TrimSpace(args[i])
		switch {
		case tok == "":
		case strings.EqualFold(tok, "vs"):
			if i+1 >= len(args) {
				return Request{}, errors.New("'vs' must be followed by a benchmark name")
			}
			i++
			req.Benchmark = strings.ToUpper(strings.TrimSpace(args[i]))
		case looksLikeDate(tok):
			d, err := finance.ParseDate(tok)
			if err != nil {
				return Request{}, fmt.Errorf("%w %q, expected YYYY-MM-DD", ErrInvalidDate, tok)
			}
			switch {
			case req.Start.IsZero():
				req.Start = d
			case req.End.IsZero():
				req.End = d
			default:
				return Request{}, fmt.Errorf("too many dates: %q", tok)
			}
		default:
			if !req.Start.IsZero() {
				return Request{}, fmt.Errorf("ticker %q must come before the dates", tok)
			}
			req.Symbols = append(req.Symbols, splitSymbols(tok)...)
		}
	}
	return req, nil
}

// ParseRequest builds a request from query-style values: a comma or space
// separated symbol list and optional dates and benchmark.
func ParseRequest(symbols, start, end, benchmark string) (Request, error) {
	req := Request{
		Symbols:   splitSymbols(symbols),
		Benchmark: strings.ToUpper(strings.TrimSpace(benchmark)),
	}
	var err error
	if req.Start, err = parseOptionalDate(start); err != nil {
		return Request{}, err
	}
	if req.End, err = parseOptionalDate(end); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := finance.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return d, nil
}

func splitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}

func looksLikeDate(s string) bool {
	return len(s) == len(finance.DateLayout) && s[4] == '-' && s[7] == '-'
}

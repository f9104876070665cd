package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSpan is one inclusive 1-based page range emitted by the split parser.
type PageSpan struct {
	First int
	Last  int
}

func (s PageSpan) String() string {
	return fmt.Sprintf("%d-%d", s.First, s.Last)
}

// ParsePageRanges parses a split expression over 1-based pages. Clauses are
// comma- or semicolon-separated; a clause is a single page, "a-b", "a-end",
// "all" (everything in one clause) or "rest" (everything not yet covered by
// earlier clauses). Empty input yields nil spans. Any out-of-range page
// invalidates the whole expression; duplicate identical clauses collapse.
func ParsePageRanges(expr string, totalPages int) ([]PageSpan, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	if totalPages < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	clauses := strings.FieldsFunc(expr, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var spans []PageSpan
	covered := make([]bool, totalPages+1)

	appendSpan := func(s PageSpan) {
		for _, prev := range spans {
			if prev == s {
				return
			}
		}
		spans = append(spans, s)
		for p := s.First; p <= s.Last; p++ {
			covered[p] = true
		}
	}

	for _, clause := range clauses {
		clause = strings.ToLower(strings.TrimSpace(clause))
		switch {
		case clause == "":
			continue
		case clause == "all":
			appendSpan(PageSpan{First: 1, Last: totalPages})
		case clause == "rest":
			// Cover every maximal run of pages not claimed so far.
			start := 0
			for p := 1; p <= totalPages; p++ {
				if !covered[p] && start == 0 {
					start = p
				}
				if covered[p] && start != 0 {
					appendSpan(PageSpan{First: start, Last: p - 1})
					start = 0
				}
			}
			if start != 0 {
				appendSpan(PageSpan{First: start, Last: totalPages})
			}
		case strings.Contains(clause, "-"):
			parts := strings.SplitN(clause, "-", 2)
			first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q", clause)
			}
			var last int
			if strings.TrimSpace(parts[1]) == "end" {
				last = totalPages
			} else {
				last, err = strconv.Atoi(strings.TrimSpace(parts[1]))
				if err != nil {
					return nil, fmt.Errorf("invalid page range %q", clause)
				}
			}
			if first < 1 || last > totalPages || first > last {
				return nil, fmt.Errorf("page range %q outside 1-%d", clause, totalPages)
			}
			appendSpan(PageSpan{First: first, Last: last})
		default:
			page, err := strconv.Atoi(clause)
			if err != nil {
				return nil, fmt.Errorf("invalid page %q", clause)
			}
			if page < 1 || page > totalPages {
				return nil, fmt.Errorf("page %d outside 1-%d", page, totalPages)
			}
			appendSpan(PageSpan{First: page, Last: page})
		}
	}

	return spans, nil
}

package clause

import (
	"regexp"
	"strings"
)

// Clause is a contiguous span of regulation text. Number carries the clause
// or section identifier when one could be located ("12.3"), empty otherwise.
type Clause struct {
	Number string `json:"clause_no,omitempty"`
	Text   string `json:"text"`
}

// minParagraphLen filters out headings and page furniture when falling back
// to blank-line splitting.
const minParagraphLen = 60

var (
	markerRe  = regexp.MustCompile(`(?i)(?:clause|section)\s*([0-9]+(?:\.[0-9]+)*)\s*[:.\-]?[ \t]*`)
	headingRe = regexp.MustCompile(`(?m)^[ \t]*([0-9]+(?:\.[0-9]+)*)\s*[).:\-]\s*(.+)$`)
)

// Segment splits raw document text into an ordered sequence of clauses.
// Three strategies are tried in order and the first one that yields at least
// one clause wins: explicit "Clause 12.3:" style markers, line-initial
// numbered headings, then plain paragraphs. Empty or whitespace-only input
// yields nil; Segment never fails.
func Segment(documentText string) []Clause {
	text := strings.ReplaceAll(documentText, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if clauses := segmentByMarkers(text); len(clauses) > 0 {
		return clauses
	}
	if clauses := segmentByHeadings(text); len(clauses) > 0 {
		return clauses
	}
	return segmentByParagraphs(text)
}

// segmentByMarkers captures everything between one clause/section marker and
// the next, so matches cannot overlap.
func segmentByMarkers(text string) []Clause {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var clauses []Clause
	for i, loc := range locs {
		number := text[loc[2]:loc[3]]

		bodyEnd := len(text)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}

		body := strings.TrimSpace(text[loc[1]:bodyEnd])
		if body == "" {
			continue
		}

		clauses = append(clauses, Clause{Number: number, Text: body})
	}

	return clauses
}

func segmentByHeadings(text string) []Clause {
	matches := headingRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var clauses []Clause
	for _, m := range matches {
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		clauses = append(clauses, Clause{Number: m[1], Text: body})
	}

	return clauses
}

func segmentByParagraphs(text string) []Clause {
	var clauses []Clause
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) <= minParagraphLen {
			continue
		}
		clauses = append(clauses, Clause{Text: para})
	}

	return clauses
}

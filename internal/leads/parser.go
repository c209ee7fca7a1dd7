package leads

import (
	"regexp"
	"strconv"
	"strings"
)

const bullet = "•"

// entryPattern matches one lead entry that begins at its bullet:
//
//	ENTRY := "•" WS NAME WS "(" COMPANY ")" WS "(Score:" WS DIGITS "/10)" ":" WS JUSTIFICATION
//
// name is the shortest single-line run that lets the rest match, so a name
// may itself contain a parenthesised nickname. company is the group directly
// before the score group. score is one or two digits. justification is the
// rest of the segment, newlines included.
var entryPattern = regexp.MustCompile(
	`^•[ \t]*(?P<name>[^\n]+?)[ \t]*` +
		`\((?P<company>[^()\n]*)\)[ \t]*` +
		`\((?i:score)[ \t]*:[ \t]*(?P<score>\d{1,2})[ \t]*/[ \t]*10[ \t]*\)[ \t]*:` +
		`(?P<justification>(?s:.*))$`,
)

var (
	nameGroup          = entryPattern.SubexpIndex("name")
	companyGroup       = entryPattern.SubexpIndex("company")
	scoreGroup         = entryPattern.SubexpIndex("score")
	justificationGroup = entryPattern.SubexpIndex("justification")
)

// ParseScores extracts lead records from model output in source order.
// Entries that do not fit the grammar, have a blank name or company, or carry
// a score outside [MinScore, MaxScore] are skipped. It never fails: text with
// no usable entries yields an empty, non-nil slice.
func ParseScores(text string) []LeadRecord {
	records := []LeadRecord{}
	for _, segment := range splitEntries(text) {
		if rec, ok := parseEntry(segment); ok {
			records = append(records, rec)
		}
	}
	return records
}

func parseEntry(segment string) (LeadRecord, bool) {
	m := entryPattern.FindStringSubmatch(segment)
	if m == nil {
		return LeadRecord{}, false
	}
	score, err := strconv.Atoi(m[scoreGroup])
	if err != nil || score < MinScore || score > MaxScore {
		return LeadRecord{}, false
	}
	rec := LeadRecord{
		Name:          strings.TrimSpace(m[nameGroup]),
		Company:       strings.TrimSpace(m[companyGroup]),
		Score:         score,
		Justification: strings.TrimSpace(m[justificationGroup]),
	}
	if rec.Name == "" || rec.Company == "" {
		return LeadRecord{}, false
	}
	return rec, true
}

// splitEntries cuts text into candidate entry segments, each starting at a
// bullet. While no entry is open, the first bullet on a line opens one, so
// prose before it is dropped. An open entry runs until the next line that
// starts with a bullet in column 0, so blank lines and indented sub-bullets
// stay in its justification. The last entry also stops at its first blank
// line, which keeps closing prose out of it.
func splitEntries(text string) []string {
	var segments []string
	start := -1

	for pos := 0; pos <= len(text); {
		end := strings.IndexByte(text[pos:], '\n')
		line := text[pos:]
		if end >= 0 {
			line = text[pos : pos+end]
		}

		switch {
		case start < 0:
			if i := strings.Index(line, bullet); i >= 0 {
				start = pos + i
			}
		case strings.HasPrefix(strings.TrimLeft(line, "\r"), bullet):
			segments = append(segments, text[start:pos])
			start = pos + strings.Index(line, bullet)
		}

		if end < 0 {
			break
		}
		pos += end + 1
	}

	if start >= 0 {
		segments = append(segments, cutAtBlankLine(text[start:]))
	}
	return segments
}

// cutAtBlankLine returns segment up to, not including, its first blank line.
func cutAtBlankLine(segment string) string {
	pos := strings.IndexByte(segment, '\n')
	for pos >= 0 {
		next := strings.IndexByte(segment[pos+1:], '\n')
		line := segment[pos+1:]
		if next >= 0 {
			line = segment[pos+1 : pos+1+next]
		}
		if strings.TrimSpace(line) == "" {
			return segment[:pos+1]
		}
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return segment
}

package extractor

import (
	"regexp"
	"strings"
)

var (
	dottedFullRe  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	dottedShortRe = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{2})$`)
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	isoStampRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ]\d{2}:\d{2}`)
)

// NormalizeDate rewrites the recognized date shapes into MM.DD.YYYY.
// Rules are tried in order; unrecognized input is returned trimmed.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case dottedFullRe.MatchString(s):
		return s
	case dottedShortRe.MatchString(s):
		m := dottedShortRe.FindStringSubmatch(s)
		return m[1] + "." + m[2] + ".20" + m[3]
	case isoDateRe.MatchString(s):
		m := isoDateRe.FindStringSubmatch(s)
		return m[2] + "." + m[3] + "." + m[1]
	case isoStampRe.MatchString(s):
		m := isoStampRe.FindStringSubmatch(s)
		return m[2] + "." + m[3] + "." + m[1]
	}
	return s
}

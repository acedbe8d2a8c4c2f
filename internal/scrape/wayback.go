package scrape

import (
	"regexp"
	"time"
)

// Archived snapshot URLs look like:
//
//	https://web.archive.org/web/20080301123456/http://example.com/listing/1
//
// The 14-digit path segment is the capture timestamp. An optional flag
// suffix (id_, if_) may follow the digits.
var waybackPattern = regexp.MustCompile(`^https?://web\.archive\.org/web/(\d{14})(?:[a-z]{2}_)?/(.+)$`)

const waybackTimeLayout = "20060102150405"

// SnapshotTime extracts the capture timestamp from an archived snapshot
// URL. Returns false for non-archive URLs. Observations built from
// snapshots must carry this historical date, not ingestion time.
func SnapshotTime(rawURL string) (time.Time, bool) {
	m := waybackPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(waybackTimeLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// OriginalURL returns the source URL embedded in an archived snapshot
// URL, or the input unchanged for non-archive URLs.
func OriginalURL(rawURL string) string {
	m := waybackPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return rawURL
	}
	return m[2]
}

// IsSnapshot reports whether a URL points at an archived capture.
func IsSnapshot(rawURL string) bool {
	return waybackPattern.MatchString(rawURL)
}

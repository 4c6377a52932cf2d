package domain

import (
	"strings"
	"time"
)

const (
	keySeparator = "||"
	bucketLayout = "2006-01-02 15:04"
)

// CacheKey identifies one bucketed route duration.
type CacheKey struct {
	Origin      string
	Destination string
	Zone        string
	Bucket      time.Time
}

// String is the canonical serialized key: origin||destination||zone|YYYY-MM-DD HH:MM.
func (k CacheKey) String() string {
	return strings.Join([]string{k.Origin, k.Destination, k.Zone + "|" + k.Bucket.Format(bucketLayout)}, keySeparator)
}

// LegacyString is the zone-less key written by older cache files.
func (k CacheKey) LegacyString() string {
	return strings.Join([]string{k.Origin, k.Destination, k.Bucket.Format(bucketLayout)}, keySeparator)
}

// CacheEntry is a persisted duration with its write time in epoch seconds.
type CacheEntry struct {
	DurationMinutes float64 `json:"duration_minutes"`
	WrittenAt       float64 `json:"written_at"`
}

func NewCacheEntry(durationMinutes float64, now time.Time) CacheEntry {
	return CacheEntry{
		DurationMinutes: durationMinutes,
		WrittenAt:       float64(now.UnixNano()) / float64(time.Second),
	}
}

// Expired reports whether the entry is older than ttl. A non-positive ttl never expires.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	age := float64(now.UnixNano())/float64(time.Second) - e.WrittenAt
	return age > ttl.Seconds()
}

// BucketStart floors t to the start of its width-sized bucket on the local wall clock.
func BucketStart(t time.Time, width time.Duration, loc *time.Location) time.Time {
	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()
	if w := int(width / time.Minute); w > 1 {
		minutes -= minutes % w
	}
	return time.Date(local.Year(), local.Month(), local.Day(), minutes/60, minutes%60, 0, 0, loc)
}

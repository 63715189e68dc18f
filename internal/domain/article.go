package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Article is a raw news item produced by an article source for one company.
type Article struct {
	Title          string
	URL            string
	RawDescription string
	Source         string
	PublishedAt    time.Time
}

const (
	minLookbackDays = 1
	maxLookbackDays = 30
)

// Lookback is a "<N>d" search window understood by article sources.
type Lookback struct {
	days int
}

// ParseLookback accepts values between "1d" and "30d".
func ParseLookback(value string) (Lookback, error) {
	raw := strings.TrimSpace(strings.ToLower(value))
	if !strings.HasSuffix(raw, "d") {
		return Lookback{}, fmt.Errorf("%w: %q", ErrInvalidLookback, value)
	}

	days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
	if err != nil || days < minLookbackDays || days > maxLookbackDays {
		return Lookback{}, fmt.Errorf("%w: %q", ErrInvalidLookback, value)
	}

	return Lookback{days: days}, nil
}

// Days returns the window length in days.
func (l Lookback) Days() int {
	return l.days
}

// Duration converts the window to a time.Duration.
func (l Lookback) Duration() time.Duration {
	return time.Duration(l.days) * 24 * time.Hour
}

// Since returns the earliest publication time inside the window.
func (l Lookback) Since(now time.Time) time.Time {
	return now.Add(-l.Duration())
}

func (l Lookback) String() string {
	return strconv.Itoa(l.days) + "d"
}

// Target is the company whose team consumes the leads, together with the companies it tracks.
type Target struct {
	Key         string
	Name        string
	Description string
	Companies   []string
}

// Tracks reports whether company is one of the target's tracked companies.
func (t Target) Tracks(company string) bool {
	for _, c := range t.Companies {
		if strings.EqualFold(c, company) {
			return true
		}
	}
	return false
}

// Package sentiment fetches the daily crypto sentiment series published by
// SentiCrypt
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/opa-project/opa/common"
	"github.com/opa-project/opa/log"
	"github.com/shopspring/decimal"
)

// DefaultURL is the SentiCrypt v2 full history endpoint
const DefaultURL = "https://api.senticrypt.com/v2/all.json"

const dateLayout = "2006-01-02"

var errEmptyURL = errors.New("sentiment feed URL is empty")

// Getter fetches public JSON. *request.Requester and *kraken.Kraken both
// satisfy it.
type Getter interface {
	GetJSON(ctx context.Context, url string, result any) error
}

// Entry is one day of sentiment data
type Entry struct {
	Date   string          `json:"date"`
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
	Sum    decimal.Decimal `json:"sum"`
	Count  int64           `json:"count"`
	Rate   decimal.Decimal `json:"rate"`
	Last   decimal.Decimal `json:"last"`
	Volume decimal.Decimal `json:"volume"`
	Price  decimal.Decimal `json:"price"`
	Score1 decimal.Decimal `json:"score1"`
	Score2 decimal.Decimal `json:"score2"`
	Score3 decimal.Decimal `json:"score3"`
}

// Time parses Date as a UTC day
func (e *Entry) Time() (time.Time, error) {
	return time.Parse(dateLayout, e.Date)
}

// Feed fetches sentiment entries through a shared Getter
type Feed struct {
	url    string
	getter Getter
}

// New returns a Feed reading from url, or DefaultURL when url is empty
func New(url string, g Getter) (*Feed, error) {
	if g == nil {
		return nil, fmt.Errorf("sentiment getter: %w", common.ErrNilPointer)
	}
	if url == "" {
		url = DefaultURL
	}
	return &Feed{url: url, getter: g}, nil
}

// Fetch returns every entry published by the feed, oldest first
func (f *Feed) Fetch(ctx context.Context) ([]Entry, error) {
	if f.url == "" {
		return nil, errEmptyURL
	}
	var entries []Entry
	if err := f.getter.GetJSON(ctx, f.url, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	log.Debugf(log.FeedSys, "Fetched %d sentiment entries from %s", len(entries), f.url)
	return entries, nil
}

// Between returns the entries dated within [start, end]. A zero end means no
// upper bound. Entries with unparsable dates are skipped.
func Between(entries []Entry, start, end time.Time) []Entry {
	var out []Entry
	for i := range entries {
		t, err := entries[i].Time()
		if err != nil {
			log.Warnf(log.FeedSys, "Skipping sentiment entry with bad date %q: %v", entries[i].Date, err)
			continue
		}
		if t.Before(start.Truncate(24 * time.Hour)) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		out = append(out, entries[i])
	}
	return out
}

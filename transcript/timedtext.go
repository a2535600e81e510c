package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// download fetches a caption track's timedtext content and parses it.
func (f *Fetcher) download(ctx context.Context, track Track) ([]Entry, error) {
	if track.BaseURL == "" {
		return nil, fmt.Errorf("track %s has no download url", track.LanguageCode)
	}

	u, err := url.Parse(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse track url: %w", err)
	}

	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()

	resp, err := f.client.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("timedtext request: %w", err)
	}

	entries, err := ParseJSON3(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse timedtext response: %w", err)
	}
	return entries, nil
}

// timedtextResponse is the raw json3 timedtext document.
type timedtextResponse struct {
	Events []timedtextEvent `json:"events"`
}

// timedtextEvent is a single timed event.
type timedtextEvent struct {
	TStartMs    int64              `json:"tStartMs"`
	DDurationMs int64              `json:"dDurationMs"`
	Segs        []timedtextSegment `json:"segs,omitempty"`
}

// timedtextSegment is one text fragment of an event.
type timedtextSegment struct {
	UTF8 string `json:"utf8"`
}

// ParseJSON3 parses a timedtext json3 document into transcript entries.
// Events without text segments (window definitions, filler) are skipped;
// event order is preserved.
func ParseJSON3(data []byte) ([]Entry, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal timedtext json: %w", err)
	}

	var entries []Entry
	for _, event := range resp.Events {
		if len(event.Segs) == 0 {
			continue
		}

		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}

		entries = append(entries, Entry{
			Text:     text.String(),
			Start:    float64(event.TStartMs) / 1000.0,
			Duration: float64(event.DDurationMs) / 1000.0,
		})
	}

	return entries, nil
}

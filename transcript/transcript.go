// Package transcript provides YouTube transcript retrieval.
//
// A transcript is fetched in two steps: the Innertube player endpoint yields
// the video's caption track list, and the selected track's timedtext URL
// yields the timed entries.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ythttp "ytscript/http"
)

// Sentinel errors for transcript retrieval.
var (
	ErrVideoUnavailable    = errors.New("transcript: video unavailable")
	ErrAgeRestricted       = errors.New("transcript: video is age restricted")
	ErrTranscriptsDisabled = errors.New("transcript: transcripts are disabled for this video")
	ErrNoTranscript        = errors.New("transcript: no transcript found for the requested languages")
	ErrInvalidVideoID      = errors.New("transcript: invalid video id")
)

// Entry is one captioned segment of a video. The JSON field names match
// what the transcript provider emits, so serialized entries are stable.
type Entry struct {
	// Text is the spoken content of the segment.
	Text string `json:"text"`
	// Start is the offset from video start, in seconds.
	Start float64 `json:"start"`
	// Duration is how long the text is displayed, in seconds.
	Duration float64 `json:"duration"`
}

// Track describes an available caption track.
type Track struct {
	// LanguageCode is the BCP-47 code of the track (e.g. "en", "en-US").
	LanguageCode string `json:"language_code"`
	// Name is the human-readable track name.
	Name string `json:"name,omitempty"`
	// AutoGenerated is true for speech-recognition ("asr") tracks.
	AutoGenerated bool `json:"auto_generated"`
	// Translatable is true if YouTube can machine-translate this track.
	Translatable bool `json:"translatable,omitempty"`
	// BaseURL is the timedtext download URL. Empty for tracks listed via
	// the Data API, which does not expose download URLs to API-key clients.
	BaseURL string `json:"-"`
}

// FetchError wraps transcript retrieval errors with context about what failed.
// Use errors.As() to extract this error type and get operation details:
//
//	var fetchErr *transcript.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetching %s failed: %v\n", fetchErr.VideoID, fetchErr.Err)
//	}
type FetchError struct {
	// VideoID is the video whose transcript was requested.
	VideoID string
	// Languages is the language preference of the failed request.
	Languages []string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the fetch error.
func (e *FetchError) Error() string {
	if len(e.Languages) > 0 {
		return fmt.Sprintf("transcript: fetch %s (%s): %v", e.VideoID, strings.Join(e.Languages, ","), e.Err)
	}
	return fmt.Sprintf("transcript: fetch %s: %v", e.VideoID, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves transcripts from YouTube.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client    *ythttp.Client
	playerURL string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *ythttp.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithPlayerURL overrides the Innertube player endpoint.
func WithPlayerURL(u string) Option {
	return func(f *Fetcher) {
		f.playerURL = u
	}
}

// NewFetcher creates a transcript fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		playerURL: defaultPlayerURL,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		client := ythttp.New(nil)
		if session, err := ythttp.NewSession(ythttp.DefaultSessionConfig()); err == nil {
			client.WithSession(session)
		}
		f.client = client
	}

	return f
}

// Fetch retrieves the transcript for the first language in the preference
// order that has a track. Entries are returned in playback order.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, languages []string) ([]Entry, error) {
	if videoID == "" {
		return nil, &FetchError{VideoID: videoID, Languages: languages, Err: ErrInvalidVideoID}
	}

	tracks, err := f.fetchTracks(ctx, videoID)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Languages: languages, Err: err}
	}

	track, err := findTrack(tracks, languages)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Languages: languages, Err: err}
	}

	entries, err := f.download(ctx, track)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Languages: languages, Err: err}
	}

	return entries, nil
}

// FetchEnglish retrieves an English transcript. It requests "en" first and
// retries with the regional variants "en-US" and "en-GB" on any failure.
// When both attempts fail, the first attempt's error is returned.
func (f *Fetcher) FetchEnglish(ctx context.Context, videoID string) ([]Entry, error) {
	entries, firstErr := f.Fetch(ctx, videoID, []string{"en"})
	if firstErr == nil {
		return entries, nil
	}

	if entries, err := f.Fetch(ctx, videoID, []string{"en-US", "en-GB"}); err == nil {
		return entries, nil
	}

	return nil, firstErr
}

// List enumerates the caption tracks available for the video.
func (f *Fetcher) List(ctx context.Context, videoID string) ([]Track, error) {
	if videoID == "" {
		return nil, &FetchError{VideoID: videoID, Err: ErrInvalidVideoID}
	}

	tracks, err := f.fetchTracks(ctx, videoID)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}
	return tracks, nil
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// findTrack selects the track for the first matching language in preference
// order. Manually created tracks win over auto-generated ones with the same
// language code, mirroring the provider's own arbitration.
func findTrack(tracks []Track, languages []string) (Track, error) {
	for _, lang := range languages {
		for _, t := range tracks {
			if !t.AutoGenerated && t.LanguageCode == lang {
				return t, nil
			}
		}
		for _, t := range tracks {
			if t.AutoGenerated && t.LanguageCode == lang {
				return t, nil
			}
		}
	}

	available := make([]string, 0, len(tracks))
	for _, t := range tracks {
		available = append(available, t.LanguageCode)
	}
	return Track{}, fmt.Errorf("%w: requested [%s], available [%s]",
		ErrNoTranscript, strings.Join(languages, ","), strings.Join(available, ","))
}

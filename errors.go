package ytscript

import (
	"context"

	"ytscript/storage"
	"ytscript/transcript"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytscript.ErrTranscriptsDisabled) {
//		fmt.Println("captions are disabled for this video")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var fetchErr *ytscript.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetching %s failed: %v\n", fetchErr.VideoID, fetchErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// Entry is one captioned segment of a video.
	Entry = transcript.Entry
	// Track describes an available caption track.
	Track = transcript.Track
	// FetchError wraps errors during transcript retrieval.
	FetchError = transcript.FetchError
	// StorageError wraps errors during cache operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrVideoUnavailable indicates the video does not exist or cannot be played.
	ErrVideoUnavailable = transcript.ErrVideoUnavailable
	// ErrAgeRestricted indicates the video requires sign-in to view.
	ErrAgeRestricted = transcript.ErrAgeRestricted
	// ErrTranscriptsDisabled indicates the video has captions turned off.
	ErrTranscriptsDisabled = transcript.ErrTranscriptsDisabled
	// ErrNoTranscript indicates no track matches the requested languages.
	ErrNoTranscript = transcript.ErrNoTranscript
	// ErrInvalidVideoID indicates the video identifier is malformed.
	ErrInvalidVideoID = transcript.ErrInvalidVideoID

	// Cache errors
	// ErrNotFound indicates a transcript was not found in the cache.
	ErrNotFound = storage.ErrNotFound
	// ErrStorageCorrupt indicates cache data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring the cache file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// FetchTranscript fetches a transcript for the video in the first available
// language from the given preference order.
func FetchTranscript(ctx context.Context, videoID string, languages []string) ([]Entry, error) {
	f := transcript.NewFetcher()
	defer f.Close()
	return f.Fetch(ctx, videoID, languages)
}

// FetchEnglishTranscript fetches an English transcript for the video. It
// requests "en" first and falls back to the regional variants "en-US" and
// "en-GB"; if both attempts fail, the first attempt's error is returned.
func FetchEnglishTranscript(ctx context.Context, videoID string) ([]Entry, error) {
	f := transcript.NewFetcher()
	defer f.Close()
	return f.FetchEnglish(ctx, videoID)
}

// ListTranscripts enumerates the caption tracks available for the video.
func ListTranscripts(ctx context.Context, videoID string) ([]Track, error) {
	f := transcript.NewFetcher()
	defer f.Close()
	return f.List(ctx, videoID)
}

// Package ytscript provides a library for fetching YouTube video transcripts.
//
// It retrieves caption tracks through YouTube's public endpoints and returns
// them as ordered transcript entries (text, start time, duration).
//
// Overview
//
// ytscript provides high-level convenience functions for the most common
// operations:
//
//   - FetchTranscript: Get a transcript for a video in preferred languages
//   - FetchEnglishTranscript: Get an English transcript with regional fallback
//   - ListTranscripts: Enumerate a video's available caption tracks
//
// Quick Start
//
// Fetch an English transcript:
//
//	ctx := context.Background()
//	entries, err := ytscript.FetchEnglishTranscript(ctx, "dQw4w9WgXcQ")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, e := range entries {
//		fmt.Printf("[%.1fs] %s\n", e.Start, e.Text)
//	}
//
// Fetch in a specific language order:
//
//	entries, err := ytscript.FetchTranscript(ctx, "dQw4w9WgXcQ", []string{"de", "en"})
//
// List what is available:
//
//	tracks, err := ytscript.ListTranscripts(ctx, "dQw4w9WgXcQ")
//	for _, tr := range tracks {
//		fmt.Println(tr.LanguageCode, tr.AutoGenerated)
//	}
//
// Configuration
//
// The cli loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytscript.json or ~/.config/ytscript/ytscript.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTSCRIPT_TIMEOUT: Timeout for a single fetch operation
//   - YTSCRIPT_LANGUAGES: Comma-separated default language preference
//   - YTSCRIPT_USER_AGENT: User agent for YouTube requests
//   - YTSCRIPT_MAX_RETRIES: Maximum retry attempts
//   - YTSCRIPT_INITIAL_BACKOFF: Initial retry backoff duration
//   - YTSCRIPT_MAX_BACKOFF: Maximum retry backoff duration
//   - YTSCRIPT_CACHE_PATH: Path of the transcript cache file
//   - YTSCRIPT_API_KEY: YouTube Data API key (optional, for `list -api`)
//
// Error Handling
//
// All operations return errors that implement standard Go error handling.
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytscript.ErrNoTranscript) {
//		fmt.Println("no transcript in the requested languages")
//	}
//
// Extracting wrapped error details:
//
//	var fetchErr *ytscript.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetching %s failed: %v\n", fetchErr.VideoID, fetchErr.Err)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - transcript: Track listing, selection, fetching, and format conversion
//   - config: Configuration management
//   - storage: Transcript cache persistence
//   - retry: Exponential backoff retry logic
//   - http: Rate-limited, circuit-broken HTTP client
//
// Example using the transcript package directly:
//
//	fetcher := transcript.NewFetcher()
//	defer fetcher.Close()
//	entries, err := fetcher.Fetch(ctx, "dQw4w9WgXcQ", []string{"en"})
package ytscript

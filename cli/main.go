// Command ytscript fetches YouTube video transcripts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"ytscript/config"
	ythttp "ytscript/http"
	"ytscript/storage"
	"ytscript/transcript"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. It is separated
// from main so tests can drive it with captured streams.
func run(args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load() // best-effort: load .env if present

	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "fetch":
		return cmdFetch(args[1:], stdout, stderr)
	case "list":
		return cmdList(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stderr)
		return 0
	default:
		// Bare form: exactly one video id, English with regional fallback,
		// one JSON object per line.
		if len(args) != 1 {
			printUsage(stderr)
			return 1
		}
		return cmdDefault(args[0], stdout, stderr)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `ytscript - YouTube transcript fetcher

Usage:
  ytscript <video-id>                Print the English transcript as JSON lines
  ytscript fetch [flags] <video-id>  Fetch with language and format options
  ytscript list [flags] <video-id>   List available transcript languages
  ytscript help                      Show this help message

Examples:
  ytscript dQw4w9WgXcQ                          # English transcript, JSON lines
  ytscript fetch -lang de,en dQw4w9WgXcQ        # Preferred languages in order
  ytscript fetch -format srt dQw4w9WgXcQ        # SubRip output
  ytscript fetch -cache dQw4w9WgXcQ             # Reuse the local cache
  ytscript list dQw4w9WgXcQ                     # Available caption tracks
  ytscript list -api dQw4w9WgXcQ                # Same, via the Data API

Video ids that start with "-" or collide with a command name cannot be
used with the bare form; pass them through fetch instead:
  ytscript fetch -- <video-id>

For help on a specific command: ytscript <command> -h
`)
}

// cmdDefault implements the bare single-argument invocation: request "en",
// fall back to "en-US"/"en-GB", and on a double failure report the first
// attempt's error.
func cmdDefault(videoID string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fetcher := newFetcher(cfg)
	defer fetcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	entries, err := fetcher.FetchEnglish(ctx, videoID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return printEntries(entries, transcript.FormatNDJSON, stdout, stderr)
}

func cmdFetch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	langStr := fs.String("lang", "", "Comma-separated language codes in preference order (default: config)")
	formatStr := fs.String("format", string(transcript.FormatNDJSON), "Output format: ndjson, json, text, srt, or vtt")
	useCache := fs.Bool("cache", false, "Read and write the local transcript cache")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytscript fetch [flags] <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	argv := fs.Args()
	if len(argv) != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one video-id\n")
		fs.Usage()
		return 1
	}
	videoID := argv[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	format, err := transcript.ParseFormatName(*formatStr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	languages := cfg.Languages
	if *langStr != "" {
		languages = nil
		for _, lang := range strings.Split(*langStr, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				languages = append(languages, lang)
			}
		}
	}

	// The cache is keyed by video id plus the requested preference order, so
	// a repeated invocation replays the exact same entries.
	cacheKey := strings.Join(languages, ",")

	var cache storage.Store
	if *useCache {
		cache, err = storage.NewJSONStore(cfg.CachePath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer cache.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if cache != nil {
		if cached, err := cache.Get(ctx, videoID, cacheKey); err == nil {
			return printEntries(segmentsToEntries(cached.Segments), format, stdout, stderr)
		}
	}

	fetcher := newFetcher(cfg)
	defer fetcher.Close()

	fmt.Fprintf(stderr, "Fetching transcript for %s...\n", videoID)
	entries, err := fetcher.Fetch(ctx, videoID, languages)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if cache != nil {
		record := &storage.Transcript{
			VideoID:  videoID,
			Language: cacheKey,
			Segments: entriesToSegments(entries),
		}
		if err := cache.Put(ctx, record); err != nil {
			fmt.Fprintf(stderr, "Warning: could not cache transcript: %v\n", err)
		}
	}

	return printEntries(entries, format, stdout, stderr)
}

func cmdList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	useAPI := fs.Bool("api", false, "Use the YouTube Data API (requires YTSCRIPT_API_KEY)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytscript list [flags] <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	argv := fs.Args()
	if len(argv) != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one video-id\n")
		fs.Usage()
		return 1
	}
	videoID := argv[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var tracks []transcript.Track
	if *useAPI {
		lister, err := transcript.NewAPILister(ctx, cfg.APIKey)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		tracks, err = lister.List(ctx, videoID)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		fetcher := newFetcher(cfg)
		defer fetcher.Close()
		tracks, err = fetcher.List(ctx, videoID)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if len(tracks) == 0 {
		fmt.Fprintln(stdout, "No transcripts available.")
		return 0
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tNAME\tAUTO-GENERATED\tTRANSLATABLE")
	for _, tr := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", tr.LanguageCode, tr.Name, tr.AutoGenerated, tr.Translatable)
	}
	w.Flush()
	return 0
}

// newFetcher builds a transcript fetcher from the application configuration.
func newFetcher(cfg *config.Config) *transcript.Fetcher {
	hcfg := ythttp.DefaultConfig()
	hcfg.Retry = cfg.RetryConfig()
	if cfg.UserAgent != "" {
		hcfg.UserAgent = cfg.UserAgent
	}

	client := ythttp.New(hcfg)

	scfg := ythttp.DefaultSessionConfig()
	if cfg.UserAgent != "" {
		scfg.UserAgent = cfg.UserAgent
	}
	if session, err := ythttp.NewSession(scfg); err == nil {
		client.WithSession(session)
	}

	return transcript.NewFetcher(transcript.WithHTTPClient(client))
}

// printEntries renders entries in the requested format on stdout.
func printEntries(entries []transcript.Entry, format transcript.Format, stdout, stderr io.Writer) int {
	out, err := transcript.Convert(entries, format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, out)
	return 0
}

func entriesToSegments(entries []transcript.Entry) []storage.Segment {
	segments := make([]storage.Segment, len(entries))
	for i, e := range entries {
		segments[i] = storage.Segment{Text: e.Text, Start: e.Start, Duration: e.Duration}
	}
	return segments
}

func segmentsToEntries(segments []storage.Segment) []transcript.Entry {
	entries := make([]transcript.Entry, len(segments))
	for i, s := range segments {
		entries[i] = transcript.Entry{Text: s.Text, Start: s.Start, Duration: s.Duration}
	}
	return entries
}

package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ythttp "ytscript/http"
	"ytscript/retry"
)

// testHTTPClient returns a client tuned for tests: no retries, no rate
// limiting delays.
func testHTTPClient() *ythttp.Client {
	cfg := ythttp.DefaultConfig()
	cfg.Retry = retry.Config{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1.0,
	}
	cfg.RateLimiter.PlayerRPS = 1000
	cfg.RateLimiter.TimedtextRPS = 1000
	cfg.RateLimiter.EnableDynamicBackoff = false
	return ythttp.New(cfg)
}

// fakeTrack describes a caption track served by the fake endpoint.
type fakeTrack struct {
	lang   string
	kind   string // "asr" for auto-generated
	name   string
	events string // json3 events array
}

// fakeYouTube serves a player response and timedtext downloads for tests.
type fakeYouTube struct {
	server      *httptest.Server
	tracks      []fakeTrack
	playability string
	reason      string

	// lastVideoID records the videoId of the most recent player request.
	lastVideoID string
	// playerCalls counts player endpoint hits.
	playerCalls int
}

func newFakeYouTube(t *testing.T, tracks ...fakeTrack) *fakeYouTube {
	t.Helper()

	f := &fakeYouTube{tracks: tracks}

	mux := http.NewServeMux()
	mux.HandleFunc("/player", f.handlePlayer)
	mux.HandleFunc("/timedtext/", f.handleTimedtext)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeYouTube) handlePlayer(w http.ResponseWriter, r *http.Request) {
	f.playerCalls++

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		VideoID string `json:"videoId"`
		Context struct {
			Client struct {
				ClientName string `json:"clientName"`
			} `json:"client"`
		} `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.lastVideoID = req.VideoID

	var sb strings.Builder
	sb.WriteString(`{"playabilityStatus":{"status":"`)
	if f.playability == "" {
		sb.WriteString("OK")
	} else {
		sb.WriteString(f.playability)
	}
	sb.WriteString(`"`)
	if f.reason != "" {
		fmt.Fprintf(&sb, `,"reason":%q`, f.reason)
	}
	sb.WriteString(`}`)

	if len(f.tracks) > 0 {
		sb.WriteString(`,"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[`)
		for i, track := range f.tracks {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"baseUrl":"%s/timedtext/%d","languageCode":%q,"name":{"simpleText":%q}`,
				f.server.URL, i, track.lang, track.name)
			if track.kind != "" {
				fmt.Fprintf(&sb, `,"kind":%q`, track.kind)
			}
			sb.WriteString(`,"isTranslatable":true}`)
		}
		sb.WriteString(`]}}`)
	}
	sb.WriteString(`}`)

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(sb.String()))
}

func (f *fakeYouTube) handleTimedtext(w http.ResponseWriter, r *http.Request) {
	if got := r.URL.Query().Get("fmt"); got != "json3" {
		http.Error(w, "expected fmt=json3", http.StatusBadRequest)
		return
	}

	var index int
	if _, err := fmt.Sscanf(r.URL.Path, "/timedtext/%d", &index); err != nil || index >= len(f.tracks) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"events":%s}`, f.tracks[index].events)
}

func (f *fakeYouTube) newFetcher(t *testing.T) *Fetcher {
	t.Helper()

	fetcher := NewFetcher(
		WithHTTPClient(testHTTPClient()),
		WithPlayerURL(f.server.URL+"/player"),
	)
	t.Cleanup(func() { fetcher.Close() })
	return fetcher
}

const englishEvents = `[
	{"tStartMs":0,"dDurationMs":1500,"segs":[{"utf8":"Hello"}]},
	{"tStartMs":1500,"dDurationMs":2000,"segs":[{"utf8":"world, "},{"utf8":"again"}]},
	{"tStartMs":3500,"dDurationMs":1000,"segs":[{"utf8":"goodbye"}]}
]`

func TestFetchSuccess(t *testing.T) {
	fake := newFakeYouTube(t, fakeTrack{lang: "en", name: "English", events: englishEvents})
	fetcher := fake.newFetcher(t)

	entries, err := fetcher.Fetch(context.Background(), "dQw4w9WgXcQ", []string{"en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Entry{
		{Text: "Hello", Start: 0, Duration: 1.5},
		{Text: "world, again", Start: 1.5, Duration: 2},
		{Text: "goodbye", Start: 3.5, Duration: 1},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}

	if fake.lastVideoID != "dQw4w9WgXcQ" {
		t.Errorf("expected videoId in player request, got %q", fake.lastVideoID)
	}
}

func TestFetchPrefersManualTrack(t *testing.T) {
	// Auto-generated track listed first; the manual one must still win.
	fake := newFakeYouTube(t,
		fakeTrack{lang: "en", kind: "asr", name: "English (auto-generated)",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"auto"}]}]`},
		fakeTrack{lang: "en", name: "English",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"manual"}]}]`},
	)
	fetcher := fake.newFetcher(t)

	entries, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "manual" {
		t.Errorf("expected the manual track, got %+v", entries)
	}
}

func TestFetchLanguagePreferenceOrder(t *testing.T) {
	fake := newFakeYouTube(t,
		fakeTrack{lang: "en", name: "English",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"english"}]}]`},
		fakeTrack{lang: "de", name: "German",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"deutsch"}]}]`},
	)
	fetcher := fake.newFetcher(t)

	// Earlier preference wins even when its track is listed later.
	entries, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"de", "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "deutsch" {
		t.Errorf("expected the German track, got %+v", entries)
	}
}

func TestFetchNoMatchingLanguage(t *testing.T) {
	fake := newFakeYouTube(t, fakeTrack{lang: "de", name: "German", events: `[]`})
	fetcher := fake.newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.VideoID != "abc123def45" {
		t.Errorf("expected video id in error, got %q", fetchErr.VideoID)
	}
}

func TestFetchEmptyVideoID(t *testing.T) {
	fetcher := NewFetcher(WithHTTPClient(testHTTPClient()))
	defer fetcher.Close()

	_, err := fetcher.Fetch(context.Background(), "", []string{"en"})
	if !errors.Is(err, ErrInvalidVideoID) {
		t.Fatalf("expected ErrInvalidVideoID, got %v", err)
	}
}

func TestFetchVideoUnavailable(t *testing.T) {
	fake := newFakeYouTube(t)
	fake.playability = "ERROR"
	fake.reason = "Video unavailable"
	fetcher := fake.newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrVideoUnavailable) {
		t.Fatalf("expected ErrVideoUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Errorf("expected reason in error message, got %q", err.Error())
	}
}

func TestFetchAgeRestricted(t *testing.T) {
	fake := newFakeYouTube(t)
	fake.playability = "LOGIN_REQUIRED"
	fake.reason = "Sign in to confirm your age"
	fetcher := fake.newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrAgeRestricted) {
		t.Fatalf("expected ErrAgeRestricted, got %v", err)
	}
}

func TestFetchTranscriptsDisabled(t *testing.T) {
	fake := newFakeYouTube(t) // playable, but no caption tracks
	fetcher := fake.newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrTranscriptsDisabled) {
		t.Fatalf("expected ErrTranscriptsDisabled, got %v", err)
	}
}

func TestFetchEnglishDirect(t *testing.T) {
	fake := newFakeYouTube(t, fakeTrack{lang: "en", name: "English", events: englishEvents})
	fetcher := fake.newFetcher(t)

	entries, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
	if fake.playerCalls != 1 {
		t.Errorf("expected a single player request, got %d", fake.playerCalls)
	}
}

func TestFetchEnglishFallsBackToRegionalVariant(t *testing.T) {
	fake := newFakeYouTube(t,
		fakeTrack{lang: "en-US", name: "English (United States)",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"american"}]}]`},
	)
	fetcher := fake.newFetcher(t)

	entries, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "american" {
		t.Errorf("expected the en-US track, got %+v", entries)
	}
	if fake.playerCalls != 2 {
		t.Errorf("expected two player requests, got %d", fake.playerCalls)
	}
}

func TestFetchEnglishPrefersBritishOverNothing(t *testing.T) {
	fake := newFakeYouTube(t,
		fakeTrack{lang: "en-GB", name: "English (United Kingdom)",
			events: `[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"british"}]}]`},
	)
	fetcher := fake.newFetcher(t)

	entries, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "british" {
		t.Errorf("expected the en-GB track, got %+v", entries)
	}
}

func TestFetchEnglishBothAttemptsFailReturnsFirstError(t *testing.T) {
	fake := newFakeYouTube(t, fakeTrack{lang: "de", name: "German", events: `[]`})
	fetcher := fake.newFetcher(t)

	_, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err == nil {
		t.Fatal("expected error when no English track exists")
	}
	if !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}

	// The error must describe the first attempt, not the fallback.
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if len(fetchErr.Languages) != 1 || fetchErr.Languages[0] != "en" {
		t.Errorf("expected first attempt's languages [en], got %v", fetchErr.Languages)
	}
	if strings.Contains(err.Error(), "en-US") && !strings.Contains(err.Error(), "requested [en]") {
		t.Errorf("error should reflect the first attempt: %q", err.Error())
	}
	if fake.playerCalls != 2 {
		t.Errorf("expected both attempts made, got %d player requests", fake.playerCalls)
	}
}

func TestFetchEnglishUnavailableVideoReturnsFirstError(t *testing.T) {
	fake := newFakeYouTube(t)
	fake.playability = "ERROR"
	fake.reason = "Video unavailable"
	fetcher := fake.newFetcher(t)

	_, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if !errors.Is(err, ErrVideoUnavailable) {
		t.Fatalf("expected ErrVideoUnavailable, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if len(fetchErr.Languages) != 1 || fetchErr.Languages[0] != "en" {
		t.Errorf("expected first attempt's languages [en], got %v", fetchErr.Languages)
	}
}

func TestFetchEnglishRepeatedCallsIdentical(t *testing.T) {
	fake := newFakeYouTube(t, fakeTrack{lang: "en", name: "English", events: englishEvents})
	fetcher := fake.newFetcher(t)

	serialize := func(entries []Entry) []byte {
		var buf bytes.Buffer
		for _, e := range entries {
			line, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("marshal entry: %v", err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes()
	}

	first, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := fetcher.FetchEnglish(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if !bytes.Equal(serialize(first), serialize(second)) {
		t.Error("expected repeated fetches to serialize identically")
	}
}

func TestList(t *testing.T) {
	fake := newFakeYouTube(t,
		fakeTrack{lang: "en", name: "English", events: `[]`},
		fakeTrack{lang: "de", kind: "asr", name: "German (auto-generated)", events: `[]`},
	)
	fetcher := fake.newFetcher(t)

	tracks, err := fetcher.List(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	if tracks[0].LanguageCode != "en" || tracks[0].AutoGenerated {
		t.Errorf("unexpected first track: %+v", tracks[0])
	}
	if tracks[1].LanguageCode != "de" || !tracks[1].AutoGenerated {
		t.Errorf("unexpected second track: %+v", tracks[1])
	}
	if tracks[0].BaseURL == "" {
		t.Error("expected player tracks to carry a download url")
	}
}

func TestListEmptyVideoID(t *testing.T) {
	fetcher := NewFetcher(WithHTTPClient(testHTTPClient()))
	defer fetcher.Close()

	_, err := fetcher.List(context.Background(), "")
	if !errors.Is(err, ErrInvalidVideoID) {
		t.Fatalf("expected ErrInvalidVideoID, got %v", err)
	}
}

func TestFindTrack(t *testing.T) {
	tracks := []Track{
		{LanguageCode: "de", AutoGenerated: false},
		{LanguageCode: "en", AutoGenerated: true},
		{LanguageCode: "en", AutoGenerated: false},
		{LanguageCode: "en-GB", AutoGenerated: false},
	}

	tests := []struct {
		name      string
		languages []string
		wantLang  string
		wantAuto  bool
		wantErr   bool
	}{
		{name: "manual beats auto", languages: []string{"en"}, wantLang: "en", wantAuto: false},
		{name: "auto when only auto", languages: []string{"en"}, wantLang: "en", wantAuto: true},
		{name: "preference order", languages: []string{"fr", "en-GB"}, wantLang: "en-GB"},
		{name: "exact code match only", languages: []string{"en-US"}, wantErr: true},
		{name: "no match", languages: []string{"ja"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := tracks
			if tt.name == "auto when only auto" {
				candidates = []Track{
					{LanguageCode: "en", AutoGenerated: true},
				}
			}

			track, err := findTrack(candidates, tt.languages)
			if tt.wantErr {
				if !errors.Is(err, ErrNoTranscript) {
					t.Fatalf("expected ErrNoTranscript, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if track.LanguageCode != tt.wantLang || track.AutoGenerated != tt.wantAuto {
				t.Errorf("got %+v, want lang=%s auto=%v", track, tt.wantLang, tt.wantAuto)
			}
		})
	}
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{
		VideoID:   "abc123def45",
		Languages: []string{"en"},
		Err:       ErrNoTranscript,
	}
	msg := err.Error()
	if !strings.Contains(msg, "abc123def45") || !strings.Contains(msg, "(en)") {
		t.Errorf("unexpected error message: %q", msg)
	}
}

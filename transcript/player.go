package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// defaultPlayerURL is the Innertube endpoint that returns the player
	// response, including the caption track list.
	defaultPlayerURL = "https://www.youtube.com/youtubei/v1/player"

	// clientName and clientVersion identify a web client to Innertube.
	clientName    = "WEB"
	clientVersion = "2.20240101.00.00"
)

// playerRequest is the Innertube player request body.
type playerRequest struct {
	Context clientContext `json:"context"`
	VideoID string        `json:"videoId"`
}

// clientContext contains client identification for the API request.
type clientContext struct {
	Client innertubeClient `json:"client"`
}

// innertubeClient identifies the client making the request.
type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
	GL            string `json:"gl"`
}

// playerResponse is the subset of the player response we consume.
type playerResponse struct {
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus,omitempty"`
	Captions          *captionsWrapper   `json:"captions,omitempty"`
}

// playabilityStatus reports whether the video can be played.
type playabilityStatus struct {
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// captionsWrapper holds the caption track list renderer.
type captionsWrapper struct {
	PlayerCaptionsTracklistRenderer *tracklistRenderer `json:"playerCaptionsTracklistRenderer,omitempty"`
}

// tracklistRenderer lists the video's caption tracks.
type tracklistRenderer struct {
	CaptionTracks []captionTrack `json:"captionTracks,omitempty"`
}

// captionTrack describes one caption track in the player response.
type captionTrack struct {
	BaseURL        string    `json:"baseUrl,omitempty"`
	Name           *textRuns `json:"name,omitempty"`
	VssID          string    `json:"vssId,omitempty"`
	LanguageCode   string    `json:"languageCode,omitempty"`
	Kind           string    `json:"kind,omitempty"` // "asr" for auto-generated
	IsTranslatable bool      `json:"isTranslatable,omitempty"`
}

// textRuns contains text either as a simple string or as runs.
type textRuns struct {
	SimpleText string    `json:"simpleText,omitempty"`
	Runs       []textRun `json:"runs,omitempty"`
}

// textRun is a segment of text.
type textRun struct {
	Text string `json:"text,omitempty"`
}

// text extracts plain text from textRuns.
func (t *textRuns) text() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var sb strings.Builder
	for _, run := range t.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

// fetchTracks queries the player endpoint and returns the video's caption
// tracks in the order the provider lists them.
func (f *Fetcher) fetchTracks(ctx context.Context, videoID string) ([]Track, error) {
	req := &playerRequest{
		Context: clientContext{
			Client: innertubeClient{
				ClientName:    clientName,
				ClientVersion: clientVersion,
				HL:            "en",
				GL:            "US",
			},
		},
		VideoID: videoID,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Origin":       "https://www.youtube.com",
		"Referer":      "https://www.youtube.com/watch?v=" + videoID,
	}

	httpResp, err := f.client.Do(ctx, http.MethodPost, f.playerURL, body, headers)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}

	var resp playerResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal player response: %w", err)
	}

	if err := checkPlayability(resp.PlayabilityStatus); err != nil {
		return nil, err
	}

	if resp.Captions == nil || resp.Captions.PlayerCaptionsTracklistRenderer == nil ||
		len(resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	raw := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]Track, 0, len(raw))
	for _, ct := range raw {
		tracks = append(tracks, Track{
			LanguageCode:  ct.LanguageCode,
			Name:          ct.Name.text(),
			AutoGenerated: ct.Kind == "asr",
			Translatable:  ct.IsTranslatable,
			BaseURL:       ct.BaseURL,
		})
	}
	return tracks, nil
}

// checkPlayability maps the player's playability status onto typed errors.
func checkPlayability(ps *playabilityStatus) error {
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}

	switch ps.Status {
	case "LOGIN_REQUIRED":
		if ps.Reason != "" {
			return fmt.Errorf("%w: %s", ErrAgeRestricted, ps.Reason)
		}
		return ErrAgeRestricted
	case "ERROR", "UNPLAYABLE":
		if ps.Reason != "" {
			return fmt.Errorf("%w: %s", ErrVideoUnavailable, ps.Reason)
		}
		return ErrVideoUnavailable
	default:
		return fmt.Errorf("%w: playability status %s", ErrVideoUnavailable, ps.Status)
	}
}

package transcript

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// APILister lists a video's caption tracks through the YouTube Data API v3.
// Unlike the player endpoint this uses documented, quota-metered API surface,
// but an API-key client cannot download track content, so the returned
// tracks carry no BaseURL.
type APILister struct {
	service *youtubeapi.Service
}

// NewAPILister creates a Data API caption lister.
func NewAPILister(ctx context.Context, apiKey string) (*APILister, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}

	service, err := youtubeapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &APILister{service: service}, nil
}

// List returns the caption tracks registered for the video.
func (a *APILister) List(ctx context.Context, videoID string) ([]Track, error) {
	if videoID == "" {
		return nil, &FetchError{VideoID: videoID, Err: ErrInvalidVideoID}
	}

	resp, err := a.service.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("captions.list: %w", err)}
	}

	tracks := make([]Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		tracks = append(tracks, Track{
			LanguageCode:  item.Snippet.Language,
			Name:          item.Snippet.Name,
			AutoGenerated: strings.EqualFold(item.Snippet.TrackKind, "asr"),
		})
	}
	return tracks, nil
}

package storage

import "time"

// Transcript is a cached transcript for one video in one language.
type Transcript struct {
	ID        string    `json:"id"`         // Internal UUID
	VideoID   string    `json:"video_id"`   // YouTube video ID
	Language  string    `json:"language"`   // Language code, e.g. "en", "en-US"
	Generated bool      `json:"generated"`  // True for auto-generated tracks
	Segments  []Segment `json:"segments"`   // Timed entries in playback order
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Segment is one timed transcript segment.
type Segment struct {
	Text     string  `json:"text"`     // Segment text
	Start    float64 `json:"start"`    // Start time in seconds
	Duration float64 `json:"duration"` // Display duration in seconds
}

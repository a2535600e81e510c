package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format represents a supported transcript output format.
type Format string

const (
	// FormatNDJSON emits one JSON object per entry, one per line.
	FormatNDJSON Format = "ndjson"
	// FormatJSON emits a single JSON document with an "entries" array.
	FormatJSON Format = "json"
	// FormatText emits the plain text, one entry per line.
	FormatText Format = "text"
	// FormatSRT emits the SubRip format.
	FormatSRT Format = "srt"
	// FormatVTT emits the WebVTT format.
	FormatVTT Format = "vtt"
)

// ParseFormatName validates an output format name.
func ParseFormatName(name string) (Format, error) {
	switch Format(name) {
	case FormatNDJSON, FormatJSON, FormatText, FormatSRT, FormatVTT:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown format: %s", name)
	}
}

// Convert renders transcript entries in the given format.
func Convert(entries []Entry, format Format) (string, error) {
	switch format {
	case FormatNDJSON:
		return toNDJSON(entries)
	case FormatJSON:
		return toJSON(entries)
	case FormatText:
		return toText(entries), nil
	case FormatSRT:
		return toSRT(entries), nil
	case FormatVTT:
		return toVTT(entries), nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

// toNDJSON marshals each entry as one JSON line. The encoding is
// deterministic, so identical entries always produce identical output.
func toNDJSON(entries []Entry) (string, error) {
	var sb strings.Builder
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return "", fmt.Errorf("marshal entry: %w", err)
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// toJSON marshals all entries as a single indented document.
func toJSON(entries []Entry) (string, error) {
	data, err := json.MarshalIndent(map[string]any{"entries": entries}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}
	return string(data) + "\n", nil
}

// toText emits entry text only, one line per entry.
func toText(entries []Entry) string {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// toSRT converts entries to SubRip format.
func toSRT(entries []Entry) string {
	var sb strings.Builder
	for i, entry := range entries {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(entry.Start), formatSRTTime(entry.Start+entry.Duration)))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// toVTT converts entries to WebVTT format.
func toVTT(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(entry.Start), formatVTTTime(entry.Start+entry.Duration)))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// formatVTTTime formats seconds as WebVTT time (HH:MM:SS.mmm).
func formatVTTTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// formatSRTTime formats seconds as SubRip time (HH:MM:SS,mmm).
func formatSRTTime(seconds float64) string {
	// SubRip uses a comma before the milliseconds.
	return strings.Replace(formatVTTTime(seconds), ".", ",", 1)
}

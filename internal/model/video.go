package model

import (
	"fmt"
	"math"
)

// VideoDescriptor describes one uploaded video. Metadata fields are best
// effort and get filled in as probing and decoding progress.
type VideoDescriptor struct {
	Filename  string `json:"filename"`
	MediaType string `json:"mimetype"`
	Size      int64  `json:"size"`

	Codec           string  `json:"codec,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	TotalFrames     int     `json:"total_frames,omitempty"`
	HasAudio        bool    `json:"has_audio"`
	AudioCodec      string  `json:"audio_codec,omitempty"`

	// FrameCount is the number of frames that made it into the evidence set.
	FrameCount     int    `json:"frame_count"`
	EvidenceSource string `json:"evidence_source,omitempty"`

	// Path is the scratch file holding the decoded upload.
	Path string `json:"-"`
}

// NewVideoDescriptor starts a descriptor for an upload persisted at path.
func NewVideoDescriptor(item UploadItem, path string) *VideoDescriptor {
	name := item.Filename
	if name == "" {
		name = "unknown_video"
	}
	return &VideoDescriptor{
		Filename:  name,
		MediaType: item.MediaType,
		Size:      item.Size,
		Duration:  "Unknown",
		Path:      path,
	}
}

// SetDuration records the duration in seconds together with its M:SS form.
// Non-positive values are ignored.
func (v *VideoDescriptor) SetDuration(seconds float64) {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	v.DurationSeconds = seconds
	v.Duration = FormatDuration(seconds)
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds float64) string {
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}

// Package media classifies an upload set and enforces the declared type and
// size limits. Only declared metadata is read; file contents are never
// inspected.
package media

import (
	"fmt"
	"strings"

	"github.com/sells-group/bottle-claims/internal/model"
)

// MB is the unit the size limits are expressed in.
const MB = 1024 * 1024

// Mode is the submission shape of a validated upload set.
type Mode string

const (
	ModeImages Mode = "images"
	ModeVideo  Mode = "video"
)

// Limits holds the accepted media types and per-file size ceilings.
type Limits struct {
	MaxImageBytes int64
	MaxVideoBytes int64
	ImageTypes    []string
	VideoTypes    []string

	// LabelImageTypes are the types accepted for a single label photo in
	// date verification. It covers every still format the vision model reads.
	LabelImageTypes []string
}

// DefaultLimits accepts JPG/PNG images up to 10MB each or one MP4 up to 50MB.
// Label photos may also be GIF or WebP.
func DefaultLimits() Limits {
	return Limits{
		MaxImageBytes:   10 * MB,
		MaxVideoBytes:   50 * MB,
		ImageTypes:      []string{"image/jpeg", "image/jpg", "image/png"},
		VideoTypes:      []string{"video/mp4"},
		LabelImageTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
	}
}

// Validator checks upload sets against Limits.
type Validator struct {
	limits Limits
}

// NewValidator returns a validator, filling zero limits from DefaultLimits.
func NewValidator(l Limits) *Validator {
	def := DefaultLimits()
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = def.MaxImageBytes
	}
	if l.MaxVideoBytes <= 0 {
		l.MaxVideoBytes = def.MaxVideoBytes
	}
	if len(l.ImageTypes) == 0 {
		l.ImageTypes = def.ImageTypes
	}
	if len(l.VideoTypes) == 0 {
		l.VideoTypes = def.VideoTypes
	}
	if len(l.LabelImageTypes) == 0 {
		l.LabelImageTypes = def.LabelImageTypes
	}
	return &Validator{limits: l}
}

// Limits returns the effective limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// IsImage reports whether the declared media type is an accepted image type.
func (v *Validator) IsImage(mediaType string) bool {
	return contains(v.limits.ImageTypes, mediaType)
}

// IsVideo reports whether the declared media type is an accepted video type.
func (v *Validator) IsVideo(mediaType string) bool {
	return contains(v.limits.VideoTypes, mediaType)
}

// Validate determines the submission mode of items.
func (v *Validator) Validate(items []model.UploadItem) (Mode, error) {
	if len(items) == 0 {
		return "", model.NewError(model.KindNoFilesProvided, "No media files provided.")
	}

	if len(items) == 1 && v.IsVideo(items[0].MediaType) {
		if items[0].Size > v.limits.MaxVideoBytes {
			return "", model.NewError(model.KindPayloadTooLarge,
				fmt.Sprintf("Video file too large. Maximum size allowed is %s.", formatMB(v.limits.MaxVideoBytes)))
		}
		return ModeVideo, nil
	}

	allImages := true
	var unsupported []string
	for _, it := range items {
		switch {
		case v.IsImage(it.MediaType):
		case v.IsVideo(it.MediaType):
			allImages = false
		default:
			allImages = false
			unsupported = append(unsupported, it.Filename)
		}
	}

	if allImages {
		for _, it := range items {
			if it.Size > v.limits.MaxImageBytes {
				return "", model.NewError(model.KindPayloadTooLarge,
					fmt.Sprintf("Image file '%s' too large. Maximum size allowed is %s.", it.Filename, formatMB(v.limits.MaxImageBytes)))
			}
		}
		return ModeImages, nil
	}

	if len(unsupported) > 0 {
		return "", model.NewError(model.KindUnsupportedMediaType,
			fmt.Sprintf("Unsupported file type(s): %s. Only JPG, PNG images and MP4 videos are supported.", strings.Join(unsupported, ", ")))
	}

	return "", model.NewError(model.KindInvalidCombination,
		"Invalid file combination. Please upload one or more images (JPG, PNG) or a single video (MP4).")
}

// ValidateImage checks a single label image for the date verification flow.
func (v *Validator) ValidateImage(item model.UploadItem) error {
	if !contains(v.limits.LabelImageTypes, item.MediaType) {
		return model.NewError(model.KindUnsupportedMediaType,
			fmt.Sprintf("Unsupported file type: %s. Only JPG, PNG, GIF and WebP images are supported.", item.MediaType))
	}
	if item.Size > v.limits.MaxImageBytes {
		return model.NewError(model.KindPayloadTooLarge,
			fmt.Sprintf("Image file '%s' too large. Maximum size allowed is %s.", item.Filename, formatMB(v.limits.MaxImageBytes)))
	}
	return nil
}

// NormalizeType lowercases a declared media type and drops any parameters.
func NormalizeType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func contains(types []string, mediaType string) bool {
	mediaType = NormalizeType(mediaType)
	for _, t := range types {
		if NormalizeType(t) == mediaType {
			return true
		}
	}
	return false
}

func formatMB(n int64) string {
	if n%MB == 0 {
		return fmt.Sprintf("%dMB", n/MB)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/MB)
}

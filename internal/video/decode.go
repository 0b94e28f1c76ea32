package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/model"
)

// DefaultTargetFrames is the number of frames sampled from a video.
const DefaultTargetFrames = 10

// FrameSource decodes a sequence of frames from the video described by desc.
// An error means the source could not open the video at all; individual
// frames that fail to decode are skipped.
type FrameSource interface {
	Frames(ctx context.Context, desc *model.VideoDescriptor) ([]*image.RGBA, error)
}

// FrameIndices selects target evenly spaced frame indices out of total,
// floor(i*total/target) for i in [0, target). target is capped at total.
func FrameIndices(total, target int) []int {
	if total <= 0 || target <= 0 {
		return nil
	}
	if target > total {
		target = total
	}
	idx := make([]int, target)
	for i := range idx {
		idx[i] = int(int64(i) * int64(total) / int64(target))
	}
	return idx
}

// Timestamps returns n evenly spaced offsets i*duration/n in seconds.
func Timestamps(duration float64, n int) []float64 {
	if !(duration > 0) || n <= 0 {
		return nil
	}
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * duration / float64(n)
	}
	return ts
}

// IndexDecoder counts the frames of the stream and decodes the selected
// indices in a single ffmpeg pass.
type IndexDecoder struct {
	ffmpeg string
	prober *Prober
	runner Runner
	target int
}

// NewIndexDecoder creates an IndexDecoder that samples target frames.
func NewIndexDecoder(ffmpeg string, prober *Prober, runner Runner, target int) *IndexDecoder {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if target <= 0 {
		target = DefaultTargetFrames
	}
	return &IndexDecoder{ffmpeg: ffmpeg, prober: prober, runner: runner, target: target}
}

// Frames implements FrameSource.
func (d *IndexDecoder) Frames(ctx context.Context, desc *model.VideoDescriptor) ([]*image.RGBA, error) {
	fps, total, err := d.prober.CountFrames(ctx, desc.Path)
	if err != nil {
		return nil, err
	}

	if fps > 0 {
		desc.FrameRate = fps
	}
	if total > 0 {
		desc.TotalFrames = total
	}
	if fps > 0 && total > 0 {
		desc.SetDuration(float64(total) / fps)
	}

	indices := FrameIndices(total, d.target)
	if len(indices) == 0 {
		return nil, nil
	}

	out, err := d.runner.Run(ctx, d.ffmpeg,
		"-v", "error",
		"-i", desc.Path,
		"-vf", SelectFilter(indices),
		"-vsync", "0",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	if err != nil {
		zap.L().Debug("video: index decode failed", zap.Ints("indices", indices), zap.Error(err))
		return nil, nil
	}
	return decodePNGStream(out, len(indices)), nil
}

// SelectFilter builds an ffmpeg select filter passing exactly the frames at
// indices.
func SelectFilter(indices []int) string {
	terms := make([]string, len(indices))
	for i, idx := range indices {
		terms[i] = "eq(n\\," + strconv.Itoa(idx) + ")"
	}
	return "select=" + strings.Join(terms, "+")
}

// decodePNGStream splits concatenated PNG images. Decoding stops at the first
// image that does not decode since the stream cannot be resynchronized.
func decodePNGStream(data []byte, limit int) []*image.RGBA {
	r := bytes.NewReader(data)
	var frames []*image.RGBA
	for r.Len() > 0 && len(frames) < limit {
		img, err := png.Decode(r)
		if err != nil {
			zap.L().Debug("video: undecodable frame in stream", zap.Int("decoded", len(frames)), zap.Error(err))
			break
		}
		frames = append(frames, ToRGBA(img))
	}
	return frames
}

// TimestampDecoder grabs one still per timestamp into a scratch directory.
// It needs a known duration.
type TimestampDecoder struct {
	ffmpeg     string
	runner     Runner
	scratchDir string
	count      int
}

// NewTimestampDecoder creates a TimestampDecoder writing stills under
// scratchDir (the system temp dir when empty).
func NewTimestampDecoder(ffmpeg string, runner Runner, scratchDir string, count int) *TimestampDecoder {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if count <= 0 {
		count = DefaultTargetFrames
	}
	return &TimestampDecoder{ffmpeg: ffmpeg, runner: runner, scratchDir: scratchDir, count: count}
}

// Frames implements FrameSource.
func (d *TimestampDecoder) Frames(ctx context.Context, desc *model.VideoDescriptor) ([]*image.RGBA, error) {
	stamps := Timestamps(desc.DurationSeconds, d.count)
	if len(stamps) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp(d.scratchDir, "stills-*")
	if err != nil {
		return nil, eris.Wrap(err, "video: create stills dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	var frames []*image.RGBA
	for i, ts := range stamps {
		if ctx.Err() != nil {
			break
		}
		still := filepath.Join(dir, fmt.Sprintf("still_%02d.jpg", i))
		if _, err := d.runner.Run(ctx, d.ffmpeg,
			"-v", "error",
			"-y",
			"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
			"-i", desc.Path,
			"-frames:v", "1",
			"-q:v", "2",
			still,
		); err != nil {
			zap.L().Debug("video: skip still", zap.Float64("timestamp", ts), zap.Error(err))
			continue
		}

		img, err := loadStill(still)
		if err != nil {
			zap.L().Debug("video: skip unreadable still", zap.Float64("timestamp", ts), zap.Error(err))
			continue
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func loadStill(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "video: read still")
	}
	if len(data) == 0 {
		return nil, eris.New("video: empty still")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "video: decode still")
	}
	return ToRGBA(img), nil
}

// ToRGBA normalizes img to 8-bit RGBA with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

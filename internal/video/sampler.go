// Package video samples a bounded, evenly spaced set of frames from an
// uploaded video using ffprobe and ffmpeg.
package video

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/resilience"
)

// Strategy names reported in Sample.Strategy.
const (
	StrategyIndex     = "index"
	StrategyTimestamp = "timestamp"
)

// MetadataProber reads container metadata ahead of decoding.
type MetadataProber interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// Sample is the outcome of sampling one video.
type Sample struct {
	Frames []*image.RGBA
	// Strategy names the source that produced Frames, empty when none did.
	Strategy string
}

// Sampler runs the metadata probe and then the primary frame source,
// falling back to the secondary source when the primary yields nothing.
type Sampler struct {
	prober   MetadataProber
	primary  FrameSource
	fallback FrameSource
}

// NewSampler creates a Sampler. prober and fallback may be nil.
func NewSampler(prober MetadataProber, primary, fallback FrameSource) *Sampler {
	return &Sampler{prober: prober, primary: primary, fallback: fallback}
}

// Options configures the ffmpeg-backed sampler.
type Options struct {
	FFmpeg       string
	FFprobe      string
	ScratchDir   string
	TargetFrames int
	Runner       Runner
}

// NewFFmpegSampler wires the ffprobe probe, the index decoder and the
// timestamp decoder.
func NewFFmpegSampler(opts Options) *Sampler {
	prober := NewProber(opts.FFprobe, opts.Runner)
	return NewSampler(
		prober,
		NewIndexDecoder(opts.FFmpeg, prober, opts.Runner, opts.TargetFrames),
		NewTimestampDecoder(opts.FFmpeg, opts.Runner, opts.ScratchDir, opts.TargetFrames),
	)
}

// Sample enriches desc and returns its frames. Decode failures never escape;
// the worst case is an empty Sample.
func (s *Sampler) Sample(ctx context.Context, desc *model.VideoDescriptor) Sample {
	log := zap.L().With(zap.String("video", desc.Filename))

	if s.prober != nil {
		if meta, err := s.prober.Probe(ctx, desc.Path); err != nil {
			log.Warn("video: metadata probe failed", zap.Error(err))
		} else {
			meta.Apply(desc)
		}
	}

	chain := resilience.Fallback[[]*image.RGBA]{
		Accept: func(frames []*image.RGBA) bool { return len(frames) > 0 },
		OnFallback: func(from, to string, err error) {
			log.Info("video: primary decode produced no frames, trying fallback",
				zap.String("from", from), zap.String("to", to), zap.Error(err))
		},
	}
	for _, src := range []struct {
		name string
		fs   FrameSource
	}{
		{StrategyIndex, s.primary},
		{StrategyTimestamp, s.fallback},
	} {
		if src.fs == nil {
			continue
		}
		fs := src.fs
		chain.Strategies = append(chain.Strategies, resilience.Strategy[[]*image.RGBA]{
			Name: src.name,
			Run: func(ctx context.Context) ([]*image.RGBA, error) {
				return fs.Frames(ctx, desc)
			},
		})
	}

	res := chain.Run(ctx)
	if res.Exhausted() {
		if res.Err != nil {
			log.Warn("video: no frames decoded", zap.Strings("attempted", res.Attempted), zap.Error(res.Err))
		}
		desc.FrameCount = 0
		desc.EvidenceSource = ""
		return Sample{}
	}

	desc.FrameCount = len(res.Value)
	desc.EvidenceSource = res.Strategy
	log.Debug("video: sampled frames",
		zap.String("strategy", res.Strategy),
		zap.Int("frames", len(res.Value)),
		zap.Int("total_frames", desc.TotalFrames))
	return Sample{Frames: res.Value, Strategy: res.Strategy}
}

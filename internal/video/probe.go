package video

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bottle-claims/internal/model"
)

// Metadata is container and stream information read before decoding.
type Metadata struct {
	Codec      string
	Width      int
	Height     int
	FrameRate  float64
	Duration   float64
	Frames     int
	HasAudio   bool
	AudioCodec string
}

// Apply copies every known field onto desc.
func (m *Metadata) Apply(desc *model.VideoDescriptor) {
	if m.Codec != "" {
		desc.Codec = m.Codec
	}
	if m.Width > 0 && m.Height > 0 {
		desc.Width, desc.Height = m.Width, m.Height
	}
	if m.FrameRate > 0 {
		desc.FrameRate = m.FrameRate
	}
	if m.Frames > 0 {
		desc.TotalFrames = m.Frames
	}
	desc.SetDuration(m.Duration)
	desc.HasAudio = m.HasAudio
	desc.AudioCodec = m.AudioCodec
}

// Prober reads video metadata with ffprobe.
type Prober struct {
	bin    string
	runner Runner
}

// NewProber creates a Prober. If bin is empty, "ffprobe" is used.
func NewProber(bin string, runner Runner) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Prober{bin: bin, runner: runner}
}

type probeOutput struct {
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		Duration      string `json:"duration"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads codec, dimensions, frame rate, duration, frame count and audio
// presence of the file at path.
func (p *Prober) Probe(ctx context.Context, path string) (*Metadata, error) {
	out, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path,
	)
	if err != nil {
		return nil, eris.Wrap(err, "video: probe")
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return nil, eris.Wrap(err, "video: decode probe output")
	}

	m := &Metadata{}
	videoFound := false
	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			if videoFound {
				continue
			}
			videoFound = true
			m.Codec = s.CodecName
			m.Width, m.Height = s.Width, s.Height
			m.FrameRate = ParseRate(s.RFrameRate)
			if m.FrameRate <= 0 {
				m.FrameRate = ParseRate(s.AvgFrameRate)
			}
			m.Duration = parseFloat(s.Duration)
			m.Frames, _ = strconv.Atoi(s.NbFrames)
		case "audio":
			if !m.HasAudio {
				m.HasAudio = true
				m.AudioCodec = s.CodecName
			}
		}
	}
	if !videoFound {
		return nil, eris.New("video: no video stream found")
	}
	if m.Duration <= 0 {
		m.Duration = parseFloat(po.Format.Duration)
	}
	return m, nil
}

// CountFrames opens the first video stream and returns its frame rate and
// decoded packet count.
func (p *Prober) CountFrames(ctx context.Context, path string) (float64, int, error) {
	out, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=r_frame_rate,nb_read_packets,nb_frames",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, 0, eris.Wrap(err, "video: open stream")
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return 0, 0, eris.Wrap(err, "video: decode stream info")
	}
	if len(po.Streams) == 0 {
		return 0, 0, eris.New("video: no video stream found")
	}

	s := po.Streams[0]
	frames, err := strconv.Atoi(s.NbReadPackets)
	if err != nil || frames <= 0 {
		frames, _ = strconv.Atoi(s.NbFrames)
	}
	return ParseRate(s.RFrameRate), frames, nil
}

// ParseRate converts an ffprobe rational ("30000/1001") or decimal rate to a
// float. Malformed values and zero denominators yield 0.
func ParseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return parseFloat(num)
	}
	n, d := parseFloat(num), parseFloat(den)
	if n <= 0 || d <= 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(f > 0) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

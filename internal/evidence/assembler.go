// Package evidence turns validated uploads into the ordered, base64 encoded
// image set submitted to the vision model.
package evidence

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/video"
)

// DefaultJPEGQuality is the quality sampled frames are encoded at.
const DefaultJPEGQuality = 90

// FrameSampler produces frames for a persisted video.
type FrameSampler interface {
	Sample(ctx context.Context, desc *model.VideoDescriptor) video.Sample
}

// VideoEvidence is the outcome of assembling a video upload.
type VideoEvidence struct {
	Evidence model.EvidenceSet
	Video    *model.VideoDescriptor
	// NoVisualEvidence is set when no frame could be decoded. The caller
	// falls back to a metadata-only assessment.
	NoVisualEvidence bool
}

// Assembler builds evidence sets.
type Assembler struct {
	sampler    FrameSampler
	scratchDir string
	quality    int
}

// NewAssembler creates an Assembler. Videos are persisted under scratchDir
// (the system temp dir when empty).
func NewAssembler(sampler FrameSampler, scratchDir string, quality int) *Assembler {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Assembler{sampler: sampler, scratchDir: scratchDir, quality: quality}
}

// FromImages encodes each upload in input order. Every upload is released
// before the next one is opened.
func (a *Assembler) FromImages(items []model.UploadItem) (model.EvidenceSet, error) {
	set := make(model.EvidenceSet, 0, len(items))
	for _, it := range items {
		data, err := it.ReadAll()
		if err != nil {
			return nil, eris.Wrap(err, "evidence: read image")
		}
		set = append(set, model.Evidence{
			MediaType: ImageMediaType(it.MediaType),
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	return set, nil
}

// FromVideo persists the upload to a scratch file, samples it and encodes the
// frames. The scratch file is removed before returning on every path.
func (a *Assembler) FromVideo(ctx context.Context, item model.UploadItem) (*VideoEvidence, error) {
	path, err := a.persist(item)
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				zap.L().Warn("evidence: remove scratch video", zap.String("path", path), zap.Error(rmErr))
			}
		}()
	}
	if err != nil {
		return nil, err
	}

	desc := model.NewVideoDescriptor(item, path)
	sample := a.sampler.Sample(ctx, desc)
	if len(sample.Frames) == 0 {
		return &VideoEvidence{Video: desc, NoVisualEvidence: true}, nil
	}

	set, err := EncodeFrames(ctx, sample.Frames, a.quality)
	if err != nil {
		return nil, err
	}
	return &VideoEvidence{Evidence: set, Video: desc}, nil
}

func (a *Assembler) persist(item model.UploadItem) (string, error) {
	dir := a.scratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "claim-"+uuid.NewString()+".mp4")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", eris.Wrap(err, "evidence: create scratch video")
	}

	src, err := item.Open()
	if err != nil {
		f.Close() //nolint:errcheck
		return path, err
	}
	defer src.Close() //nolint:errcheck

	if _, err := io.Copy(f, src); err != nil {
		f.Close() //nolint:errcheck
		return path, eris.Wrap(err, "evidence: write scratch video")
	}
	if err := f.Close(); err != nil {
		return path, eris.Wrap(err, "evidence: close scratch video")
	}
	return path, nil
}

// EncodeFrames JPEG encodes frames concurrently and returns them base64
// encoded in their original order.
func EncodeFrames(ctx context.Context, frames []*image.RGBA, quality int) (model.EvidenceSet, error) {
	set := make(model.EvidenceSet, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	for i, frame := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "evidence: encode frames")
			}
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: quality}); err != nil {
				return eris.Wrapf(err, "evidence: encode frame %d", i)
			}
			set[i] = model.Evidence{
				MediaType: "image/jpeg",
				Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// ImageMediaType maps a declared image type to the media type the vision API
// accepts.
func ImageMediaType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "":
		return "image/jpeg"
	}
	return t
}

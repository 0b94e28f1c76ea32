package evidence

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sells-group/bottle-claims/internal/model"
)

// MetadataSummary describes a video from its attributes alone. It stands in
// for visual evidence when no frame could be decoded.
func MetadataSummary(desc *model.VideoDescriptor) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A video file named '%s' with duration %s.", desc.Filename, desc.Duration)
	if desc.Size > 0 {
		fmt.Fprintf(&b, " Size: %s.", humanize.IBytes(uint64(desc.Size)))
	}
	if desc.Width > 0 && desc.Height > 0 {
		fmt.Fprintf(&b, " Resolution: %dx%d.", desc.Width, desc.Height)
	} else {
		b.WriteString(" Resolution: unknown.")
	}
	if desc.HasAudio {
		codec := desc.AudioCodec
		if codec == "" {
			codec = "unknown"
		}
		fmt.Fprintf(&b, " The video has audio using %s codec.", codec)
	} else {
		b.WriteString(" The video does not have audio.")
	}
	if ext := strings.ToLower(filepath.Ext(desc.Filename)); ext != "" {
		fmt.Fprintf(&b, " The video format is %s.", ext)
	}
	return b.String()
}

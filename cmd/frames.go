package main

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bottle-claims/internal/evidence"
	"github.com/sells-group/bottle-claims/internal/model"
)

var framesOut string

var framesCmd = &cobra.Command{
	Use:   "frames <video>",
	Short: "Sample frames from a video the way claim assessment does",
	Long:  "Probes the video, samples frames with the primary and fallback decoders, prints the metadata summary and optionally writes the frames as JPEG files.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("frames"); err != nil {
			return err
		}

		item, err := fileUpload(args[0])
		if err != nil {
			return err
		}

		desc := model.NewVideoDescriptor(item, args[0])
		sample := newSampler(cfg).Sample(cmd.Context(), desc)

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, evidence.MetadataSummary(desc))
		if sample.Strategy == "" {
			fmt.Fprintln(w, "No frames could be decoded; assessment would use the metadata summary.")
		} else {
			fmt.Fprintf(w, "Sampled %d frame(s) with the %s decoder.\n", len(sample.Frames), sample.Strategy)
		}

		if framesOut == "" || len(sample.Frames) == 0 {
			return nil
		}
		if err := os.MkdirAll(framesOut, 0o755); err != nil {
			return eris.Wrap(err, "frames: create output dir")
		}
		for i, frame := range sample.Frames {
			path := filepath.Join(framesOut, fmt.Sprintf("frame_%02d.jpg", i))
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "frames: create frame file")
			}
			if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: cfg.Media.JPEGQuality}); err != nil {
				f.Close() //nolint:errcheck
				return eris.Wrapf(err, "frames: encode %s", path)
			}
			if err := f.Close(); err != nil {
				return eris.Wrapf(err, "frames: close %s", path)
			}
			fmt.Fprintln(w, path)
		}
		return nil
	},
}

func init() {
	framesCmd.Flags().StringVar(&framesOut, "out", "", "directory to write sampled frames to")
	rootCmd.AddCommand(framesCmd)
}

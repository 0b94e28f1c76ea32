package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bottle-claims/internal/model"
)

var verifyDateCmd = &cobra.Command{
	Use:   "verify-date <label-image>",
	Short: "Read a bottle's production date and check the claim window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := initService("verify-date")
		if err != nil {
			return err
		}

		item, err := fileUpload(args[0])
		if err != nil {
			return err
		}

		out, err := svc.VerifyDate(cmd.Context(), item)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var assessPrior string

var assessCmd = &cobra.Command{
	Use:   "assess <file>...",
	Short: "Assess damage from one or more images or a single video",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := initService("assess")
		if err != nil {
			return err
		}

		prior, err := readPrior(assessPrior)
		if err != nil {
			return err
		}

		items := make([]model.UploadItem, 0, len(args))
		for _, path := range args {
			item, err := fileUpload(path)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		out, err := svc.AssessClaim(cmd.Context(), items, prior)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessPrior, "date-verification", "", "prior verify-date result as JSON, or @file to read it from a file")
	rootCmd.AddCommand(verifyDateCmd, assessCmd)
}

// readPrior decodes the --date-verification flag. A leading @ names a file.
func readPrior(flag string) (*model.PriorVerification, error) {
	raw := flag
	if path, ok := strings.CutPrefix(flag, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read date verification %s", path)
		}
		raw = string(data)
	}
	return model.ParsePriorVerification(raw)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

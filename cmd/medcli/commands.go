package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-medicine-lookup/internal/service"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [name]",
	Short: "Resolve information about a medicine",
	Long: `Look the name up in the drug label registry, then the encyclopedia,
then the drug nomenclature service, and print the first answer.`,
	Example: `  medcli lookup Tylenol
  medcli lookup "ibuprofen lysine" --pretty`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()

		resp, err := c.Service().ResolveInfo(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, cmd.OutOrStdout(), resp)
	},
}

var suggestCmd = &cobra.Command{
	Use:     "suggest [prefix]",
	Short:   "Suggest brand names starting with a prefix",
	Example: `  medcli suggest tyl`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()

		return printJSON(cmd, cmd.OutOrStdout(), c.Service().Suggest(ctx, args[0]))
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [image-file]",
	Short: "Read the medicine name from a package photo",
	Example: `  medcli extract box.jpg
  OCR_PROVIDERS=huggingface medcli extract box.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()

		path := args[0]
		data, err := readLimited(path, c.Config().MaxUploadSize)
		if err != nil {
			return err
		}

		resp, err := c.Service().ExtractName(ctx, service.ImageUpload{
			Data:     data,
			MimeType: mimetype.Detect(data).String(),
			Filename: filepath.Base(path),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, cmd.OutOrStdout(), resp)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file|-]",
	Short: "Summarize long label text",
	Long:  `Summarize the text in file, or standard input when the argument is "-" or missing.`,
	Example: `  medcli summarize warnings.txt
  cat label.txt | medcli summarize -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()

		var raw []byte
		if len(args) == 0 || args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}

		resp, err := c.Service().Summarize(ctx, strings.TrimSpace(string(raw)))
		if err != nil {
			return err
		}
		return printJSON(cmd, cmd.OutOrStdout(), resp)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd, suggestCmd, extractCmd, summarizeCmd)
}

// readLimited reads at most limit+1 bytes so oversized files reach the
// upload validator instead of being loaded whole.
func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

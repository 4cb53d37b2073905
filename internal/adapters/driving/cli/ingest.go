package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/core/domain"
)

var (
	ingestOwner      string
	ingestDepartment string
	ingestMeta       []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index documents into the knowledge base",
	Long: `Registers and processes one or more files. Supported formats:
txt, md, pdf and csv. Files an owner already ingested (by content
hash) are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOwner, "owner", "admin", "owner recorded on the documents")
	ingestCmd.Flags().StringVar(&ingestDepartment, "department", "", "department metadata stamped on every chunk")
	ingestCmd.Flags().StringArrayVar(&ingestMeta, "meta", nil, "extra metadata as key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureDocumentService(cmd.Context()); err != nil {
		return err
	}

	metadata, err := parseMetadata()
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var ingested, skipped, failed int
	for _, path := range args {
		err := ingestFile(cmd, path, metadata)
		switch {
		case err == nil:
			ingested++
		case errors.Is(err, domain.ErrDuplicateContent):
			skipped++
			cmd.PrintErrf("skip %s: already ingested\n", path)
		default:
			failed++
			cmd.PrintErrf("fail %s: %v\n", path, err)
		}
		bar.Add(1) //nolint:errcheck // progress display only
	}

	cmd.Printf("Ingested %d, skipped %d, failed %d\n", ingested, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

func ingestFile(cmd *cobra.Command, path string, metadata map[string]any) error {
	doc, err := documentService.Register(cmd.Context(), ingestOwner, path, metadata)
	if err != nil {
		return err
	}
	count, err := documentService.Process(cmd.Context(), doc.ID)
	if err != nil {
		return err
	}
	cmd.PrintErrf("done %s: %d chunks (document %s)\n", path, count, doc.ID)
	return nil
}

func parseMetadata() (map[string]any, error) {
	metadata := make(map[string]any)
	if ingestDepartment != "" {
		metadata["department"] = ingestDepartment
	}
	for _, pair := range ingestMeta {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

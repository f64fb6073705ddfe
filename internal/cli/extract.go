package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/docsense/internal/models"
	"github.com/markdave123-py/docsense/internal/services"
)

var (
	chunksJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Print the OCR text of a PDF",
	Long: `Rasterizes every page, runs OCR on them in parallel and prints the joined text.
The text is read from the extraction cache when the file has not changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var chunksCmd = &cobra.Command{
	Use:   "chunks <pdf>",
	Short: "Print the retrieval chunks of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

func init() {
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(chunksCmd)
}

// loadDocument loads path through docs, printing page progress to stderr.
func loadDocument(ctx context.Context, cmd *cobra.Command, docs *services.DocumentService, path string) (*models.Session, error) {
	progress := make(chan models.PageProgress)
	printed := watchProgress(cmd.ErrOrStderr(), progress)
	sess, err := docs.Load(ctx, path, progress)
	close(progress)
	<-printed
	if err != nil {
		return nil, err
	}
	if sess.Document.FromCache {
		cmd.PrintErrln("Loaded text from cache.")
	}
	if n := len(sess.Document.FailedPages); n > 0 {
		cmd.PrintErrf("Warning: %d page(s) could not be read: %v\n", n, sess.Document.FailedPages)
	}
	return sess, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := openPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	sess, err := loadDocument(ctx, cmd, p.Documents, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sess.Document.Text)
	return nil
}

func runChunks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := openPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	sess, err := loadDocument(ctx, cmd, p.Documents, args[0])
	if err != nil {
		return err
	}

	chunks := sess.Document.Chunks
	if chunksJSON {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, c := range chunks {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n", c.Ordinal, c.Text)
	}
	cmd.PrintErrf("%d chunks\n", len(chunks))
	return nil
}

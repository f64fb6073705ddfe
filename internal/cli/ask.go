package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/docsense/internal/services"
)

var askAI bool

var askCmd = &cobra.Command{
	Use:   "ask [pdf] [question]",
	Short: "Ask questions about a PDF",
	Long: `Loads a PDF and answers questions with the most relevant passages.
With a question argument the answer is printed once. Otherwise an interactive
session starts: type 'back' to choose another PDF or 'quit' to exit.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askAI, "ai", false, "also generate a prose answer from the results")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := openPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	docs := p.Documents
	if askAI && !docs.CanSynthesize() {
		return services.ErrSynthesisUnavailable
	}

	if len(args) == 2 {
		sess, err := loadDocument(ctx, cmd, docs, args[0])
		if err != nil {
			return err
		}
		ans, err := docs.Ask(ctx, sess.ID, args[1], askAI)
		if err != nil {
			return err
		}
		printAnswer(cmd.OutOrStdout(), ans)
		return nil
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	return interactive(ctx, cmd, docs, path)
}

// interactive runs the prompt loop. An empty path asks for one first.
func interactive(ctx context.Context, cmd *cobra.Command, docs *services.DocumentService, path string) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		if path == "" {
			line, ok := prompt(in, out, "\nEnter the path to your PDF file (or 'quit' to exit): ")
			if !ok || strings.EqualFold(line, "quit") {
				return nil
			}
			path = line
		}

		fmt.Fprintln(out, "\nExtracting text from PDF...")
		sess, err := loadDocument(ctx, cmd, docs, path)
		path = ""
		if err != nil {
			fmt.Fprintf(out, "\nAn error occurred: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\nReady to answer questions! Found %d text segments.\n", len(sess.Document.Chunks))

		back, err := questionLoop(ctx, in, out, docs, sess.ID)
		if err != nil || !back {
			return err
		}
	}
}

// questionLoop returns true when the user asked to go back to document selection.
func questionLoop(ctx context.Context, in *bufio.Scanner, out io.Writer, docs *services.DocumentService, id string) (bool, error) {
	for {
		query, ok := prompt(in, out, "\nEnter your question about the document (or 'back' to choose another PDF, 'quit' to exit): ")
		if !ok || strings.EqualFold(query, "quit") {
			return false, nil
		}
		if strings.EqualFold(query, "back") {
			return true, nil
		}
		if query == "" {
			fmt.Fprintln(out, "Please enter a question!")
			continue
		}

		fmt.Fprintln(out, "\nSearching for relevant information...")
		ans, err := docs.Ask(ctx, id, query, askAI)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			fmt.Fprintf(out, "\nAn error occurred: %v\n", err)
			continue
		}
		printAnswer(out, ans)
	}
}

func prompt(in *bufio.Scanner, out io.Writer, msg string) (string, bool) {
	fmt.Fprint(out, msg)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/markdave123-py/docsense/internal/models"
)

var separator = strings.Repeat("-", 80)

// watchProgress prints page progress to w until progress is closed.
// The returned channel is closed once the last line is written.
func watchProgress(w io.Writer, progress <-chan models.PageProgress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := false
		for p := range progress {
			seen = true
			fmt.Fprintf(w, "\rProcessing page %d of %d", p.Done, p.Total)
		}
		if seen {
			fmt.Fprintln(w)
		}
	}()
	return done
}

func printResults(w io.Writer, results []models.RankedResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No relevant information found. Please try rephrasing your question.")
		return
	}
	fmt.Fprintln(w, "\nRelevant information found:")
	fmt.Fprintln(w)
	for i, r := range results {
		fmt.Fprintf(w, "Result %d (Confidence: %.2f)\n", i+1, r.Score)
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%s\n\n", r.Chunk.Text)
	}
}

func printAnswer(w io.Writer, ans *models.Answer) {
	printResults(w, ans.Results)
	switch {
	case ans.Text != "":
		fmt.Fprintln(w, "AI answer:")
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%s\n\n", ans.Text)
	case ans.SynthesisError != "":
		fmt.Fprintf(w, "AI answer unavailable: %s\n\n", ans.SynthesisError)
	}
}

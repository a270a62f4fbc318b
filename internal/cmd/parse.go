package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsem/go-client/pkg/async"
	"github.com/parsem/go-client/pkg/parsem"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file> [<file> ...]",
	Short: "Parse resume files and print the results",
	Long: `Parse resume files and print the results.

The files are parsed concurrently, up to the configured concurrency limit.
Each result is printed as soon as it is available, paired with its file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		api := newAPI()

		pool := async.NewPool(ctx, async.WithSlotsCount(cfg.Concurrency))
		tracker := parsem.NewDocumentTracker(pool)

		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf(`cannot read file "%s": %w`, path, err)
			}
			api.TrackParseText(tracker, string(content), path)
		}

		var failed int
		for !tracker.IsComplete() {
			res, err := tracker.Await(ctx)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if res == nil {
				break
			}
			printDocument(res.ResourceID, res.Result)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func printDocument(file string, doc *parsem.Document) {
	fmt.Printf("%s:\n", file)
	fmt.Printf("  Document:  %s\n", doc.ID)
	fmt.Printf("  Candidate: %s %s\n", doc.Candidate.FirstName, doc.Candidate.LastName)
	if doc.Candidate.Email != "" {
		fmt.Printf("  Email:     %s\n", doc.Candidate.Email)
	}
	if len(doc.Skills) > 0 {
		fmt.Printf("  Skills:    %d found\n", len(doc.Skills))
	}
}

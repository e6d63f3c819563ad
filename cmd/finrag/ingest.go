package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestDir    string
	ingestExport bool
	ingestList   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk every PDF and text document in a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if ingestList {
			batches, err := s.app.Batches(s.ctx)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Println("no exported batches")
				return nil
			}
			for _, b := range batches {
				fmt.Printf("%-50s %6d chunks\n", b.Key, b.Chunks)
			}
			return nil
		}

		result, err := s.app.Ingest(s.ctx, ingestDir, ingestExport)
		if err != nil {
			return err
		}

		sources := make(map[string]struct{})
		for _, c := range result.Chunks {
			sources[c.Metadata.FilePath] = struct{}{}
		}
		s.log.Info("ingest complete",
			zap.Int("documents", len(sources)),
			zap.Int("chunks", len(result.Chunks)))

		fmt.Printf("Created %d chunks from %d documents\n", len(result.Chunks), len(sources))
		if result.ExportKey != "" {
			fmt.Printf("Exported to %s\n", result.ExportKey)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "document directory (default paths.data_dir)")
	ingestCmd.Flags().BoolVar(&ingestExport, "export", false, "export chunks as JSON Lines to the configured storage")
	ingestCmd.Flags().BoolVar(&ingestList, "list", false, "list exported batches instead of ingesting")
	rootCmd.AddCommand(ingestCmd)
}

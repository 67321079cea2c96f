package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataCategory string
	sweepLimit   int
	auditLimit   int
)

var speakersCmd = &cobra.Command{
	Use:   "speakers <video-id> <payload-file>",
	Short: "Submit a speaker annotation payload (JSON file, or - for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readJSONArg(args[1])
		if err != nil {
			return err
		}
		result, err := apiClient().SubmitSpeakers(cmd.Context(), dataCategory, args[0], payload)
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(result)
			return nil
		}
		fmt.Printf("names: %v\ntags: %v\n", result.ExistingNames, result.ExistingTags)
		return nil
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata <metadata-file>",
	Short: "Write a batch of metadata records (JSON map of video id to record)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readJSONArg(args[0])
		if err != nil {
			return err
		}
		var records map[string]map[string]any
		if err := json.Unmarshal(raw, &records); err != nil {
			return fmt.Errorf("parse metadata: %w", err)
		}
		if err := apiClient().SetMetadata(cmd.Context(), dataCategory, records); err != nil {
			return err
		}
		fmt.Printf("wrote %d records\n", len(records))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run a path-migration sweep over the object store",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := apiClient().Migrate(cmd.Context(), dataCategory, sweepLimit)
		if err != nil {
			return err
		}
		printJSON(stats)
		return nil
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rebuild the metadata index from canonical metadata blobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := apiClient().RegenerateMetadata(cmd.Context(), dataCategory, sweepLimit)
		if err != nil {
			return err
		}
		printJSON(stats)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List audit records for a category, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := apiClient().ListAudit(cmd.Context(), dataCategory, auditLimit)
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(entries)
			return nil
		}
		for _, e := range entries {
			fmt.Println(e.TxnID)
		}
		fmt.Printf("%d records\n", len(entries))
		return nil
	},
}

func readJSONArg(arg string) (json.RawMessage, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: not valid JSON", arg)
	}
	return json.RawMessage(data), nil
}

func init() {
	for _, c := range []*cobra.Command{speakersCmd, metadataCmd, migrateCmd, regenerateCmd, auditCmd} {
		c.Flags().StringVar(&dataCategory, "category", "", "Category name")
		c.MarkFlagRequired("category")
	}
	migrateCmd.Flags().IntVar(&sweepLimit, "limit", 0, "Cap on source items inspected (0 = unlimited)")
	regenerateCmd.Flags().IntVar(&sweepLimit, "limit", 0, "Cap on source items inspected (0 = unlimited)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum records to return")

	rootCmd.AddCommand(speakersCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(auditCmd)
}

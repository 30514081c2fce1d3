package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Report which exports of a route module are chunkable",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	splitter, closer, err := newSplitter(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	detection, err := splitter.DetectChunks(cmd.Context(), path, string(source))
	if err != nil {
		return fmt.Errorf("detect chunks in %s: %w", path, err)
	}

	out, err := json.MarshalIndent(detection, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

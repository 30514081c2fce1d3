package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"routechunks/internal/astjs"
	"routechunks/internal/chunk"
)

var splitOutDir string

var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Write the chunk and main outputs for a route module",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

func init() {
	splitCmd.Flags().StringVar(&splitOutDir, "out-dir", ".",
		"Directory the chunk files are written to")
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
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

	written, err := splitModule(cmd, splitter, path, string(source), splitOutDir)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no chunkable exports; module left as-is")
	}
	return nil
}

// splitModule emits every chunk of one module into outDir and returns the
// chunk names written. The main chunk is always attempted; absent chunks
// are skipped silently.
func splitModule(cmd *cobra.Command, splitter *chunk.Splitter, path, source, outDir string) ([]string, error) {
	opts := astjs.PrintOptions{LeadingComments: true}

	var written []string
	for _, name := range append(splitter.ChunkNames(), chunk.MainChunkName) {
		out, err := splitter.GetChunk(cmd.Context(), path, source, name, opts)
		if err != nil {
			return nil, fmt.Errorf("emit chunk %q of %s: %w", name, path, err)
		}
		if out == nil {
			continue
		}
		target := chunkFileName(outDir, path, name)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(target, []byte(out.Code), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", target)
		written = append(written, name)
	}
	return written, nil
}

// chunkFileName derives the output path: route.tsx -> route.clientLoader.tsx
func chunkFileName(outDir, path, chunkName string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(outDir, stem+"."+chunkName+ext)
}

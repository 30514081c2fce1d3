package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"routechunks/internal/discovery"
)

var (
	batchOutDir   string
	batchManifest string
)

var batchCmd = &cobra.Command{
	Use:   "batch <root>",
	Short: "Discover and split every route module under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "routechunks-out",
		"Directory the chunk files are written to")
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "",
		"Write a yaml manifest of produced chunks to this path")
	rootCmd.AddCommand(batchCmd)
}

// batchManifestDoc is the yaml document written after a batch run.
type batchManifestDoc struct {
	RunID   string              `yaml:"runId"`
	Root    string              `yaml:"root"`
	Modules []batchManifestItem `yaml:"modules"`
}

type batchManifestItem struct {
	Path   string   `yaml:"path"`
	Chunks []string `yaml:"chunks"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	splitter, closer, err := newSplitter(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	root := args[0]
	runID := uuid.New().String()
	logger.Info("batch split starting", "root", root, "runId", runID)

	modules, err := discovery.DiscoverRoutes(root, cfg.Discovery.Include, cfg.Discovery.Exclude)
	if err != nil {
		return fmt.Errorf("discover route modules under %s: %w", root, err)
	}
	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no route modules found")
		return nil
	}

	bar := progressbar.NewOptions(len(modules),
		progressbar.OptionSetDescription("splitting"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionClearOnFinish(),
	)

	doc := batchManifestDoc{RunID: runID, Root: root}
	for _, module := range modules {
		// Mirror the route's directory under the output root so equal
		// basenames in different route directories cannot collide.
		outDir := filepath.Join(batchOutDir, filepath.Dir(filepath.FromSlash(module.CacheKey)))
		written, err := splitModule(cmd, splitter, module.CacheKey, module.Source, outDir)
		if err != nil {
			return err
		}
		if len(written) > 0 {
			doc.Modules = append(doc.Modules, batchManifestItem{
				Path:   module.CacheKey,
				Chunks: written,
			})
		}
		bar.Add(1)
	}

	logger.Info("batch split finished",
		"runId", runID, "modules", len(modules), "split", len(doc.Modules))

	if batchManifest != "" {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		if err := os.WriteFile(batchManifest, data, 0644); err != nil {
			return fmt.Errorf("write manifest %s: %w", batchManifest, err)
		}
	}
	return nil
}

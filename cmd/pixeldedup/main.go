// pixeldedup - Perceptual duplicate image finder
// Groups visually identical or near-identical images by fingerprint distance.

package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixeldedup/pixeldedup/internal/config"
	"github.com/pixeldedup/pixeldedup/internal/core"
	"github.com/pixeldedup/pixeldedup/internal/imageio"
	"github.com/pixeldedup/pixeldedup/internal/memory"
	"github.com/pixeldedup/pixeldedup/internal/pdq"
	"github.com/pixeldedup/pixeldedup/internal/phash"
	"github.com/pixeldedup/pixeldedup/internal/report"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

var (
	version = "0.1.0-dev"

	dirPath      string
	configFile   string
	outputDir    string
	outputFormat string
	mode         string
	radius       uint8
	minGroupSize uint16
	threads      uint16
	recursive    bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pixeldedup",
		Short: "pixeldedup - perceptual duplicate image finder",
		Long: `pixeldedup groups visually identical or near-identical images in a
directory by perceptual hash (pHash/PDQ) or by raw pixel/file equality.

Quick start:
  pixeldedup dedup -d ./photos -r 5 -o ./report`,
	}

	dedupCmd := &cobra.Command{
		Use:   "dedup",
		Short: "Scan a directory and group duplicate images",
		RunE:  runDedup,
	}
	dedupCmd.Flags().StringVarP(&dirPath, "dir", "d", "", "Directory to scan (required)")
	dedupCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML)")
	dedupCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the report into")
	dedupCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Report format: json, html, markdown")
	dedupCmd.Flags().StringVarP(&mode, "mode", "m", "", "perceptual64, perceptual256, pixelhash16bpp, filebitidentical")
	dedupCmd.Flags().Uint8VarP(&radius, "radius", "r", 0, "Max Hamming distance for linking two images into a group (0 = config default)")
	dedupCmd.Flags().Uint16Var(&minGroupSize, "min-group-size", 0, "Minimum group size to report (0 = config default)")
	dedupCmd.Flags().Uint16VarP(&threads, "threads", "t", 0, "Worker threads (0 = hardware concurrency)")
	dedupCmd.Flags().BoolVar(&recursive, "recursive", true, "Recurse into subdirectories")
	dedupCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.AddCommand(dedupCmd)

	hashCmd := &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the perceptual hash of a single image",
		Args:  cobra.ExactArgs(1),
		RunE:  runHash,
	}
	hashCmd.Flags().StringVarP(&mode, "mode", "m", "perceptual64", "perceptual64 or perceptual256")
	rootCmd.AddCommand(hashCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pixeldedup version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println()
	fmt.Println("  pixeldedup - perceptual duplicate image finder")
	fmt.Printf("  v%s\n", version)
	fmt.Println()
}

func runHash(cmd *cobra.Command, args []string) error {
	decoded, err := imageio.DecodeFile(args[0])
	if err != nil {
		return err
	}

	switch mode {
	case "perceptual256":
		fp, err := pdq.Compute(decoded.Buffer)
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", fp.Limbs)
	default:
		fp, err := phash.Compute(decoded.Buffer)
		if err != nil {
			return err
		}
		fmt.Printf("%016x\n", fp.Limbs[0])
	}
	return nil
}

func runDedup(cmd *cobra.Command, args []string) error {
	printBanner()

	if dirPath == "" {
		return fmt.Errorf("no directory specified: use --dir")
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	typesCfg, err := cfg.ToTypesConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(&typesCfg)

	if verbose {
		fmt.Printf("  [*] Directory: %s\n", dirPath)
		fmt.Printf("  [*] Mode: %s\n", typesCfg.Mode)
		fmt.Printf("  [*] Radius: %d\n", typesCfg.Radius)
		fmt.Printf("  [*] Threads: %d\n", typesCfg.Threads)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	session := core.NewSession(typesCfg)

	done := make(chan error, 1)
	var rep *report.Report
	go func() {
		var err error
		rep, err = runSession(session, typesCfg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-sigChan:
		fmt.Println("\n  [*] Cancelling...")
		session.Cancel()
		<-done
		return fmt.Errorf("dedup: cancelled")
	}

	manager := report.NewManager(outputDir)
	path, err := manager.Generate(rep, outputFormat)
	if err != nil {
		return fmt.Errorf("dedup: writing report: %w", err)
	}

	fmt.Printf("\n  [*] %d groups found across %d items.\n", rep.Statistics.GroupsFound, rep.Statistics.ItemsIngested)
	fmt.Printf("  [*] Report written to %s\n", path)
	return nil
}

func runSession(session *core.Session, cfg types.Config) (*report.Report, error) {
	start := time.Now()
	logger := slog.Default()

	// A long ingest batch allocates one decode buffer and one (or more)
	// hash-producer scratch matrix per image; the monitor's periodic
	// heap/goroutine snapshots are the first sign those aren't being
	// recycled fast enough by internal/memory's pools.
	monitor := memory.NewMonitor(5*time.Second, memory.DefaultThreshold())
	monitor.Start()
	defer monitor.Stop()
	go func() {
		for alert := range monitor.GetAlerts() {
			logger.Warn("memory threshold exceeded",
				"type", alert.Type, "message", alert.Message,
				"value", alert.Value, "threshold", alert.Threshold)
		}
	}()

	paths, err := discoverImages(dirPath, recursive)
	if err != nil {
		return nil, err
	}

	payloadByID := make(map[types.FingerprintId]types.PayloadRef)
	for _, path := range paths {
		decoded, err := imageio.DecodeFile(path)
		if err != nil {
			session.Report().Add(path, err)
			continue
		}
		id, err := session.Ingest(path, decoded.Buffer, decoded.ContentHash)
		if err != nil {
			continue
		}
		payloadByID[id] = path
	}

	monitor.LogStats(logger)

	if err := session.FreezeAndIndex(cfg.Radius); err != nil {
		return nil, err
	}

	groups, err := session.FindDuplicates(cfg.Radius, cfg.MinGroupSize)
	if err != nil {
		return nil, err
	}

	rep := report.NewReport(fmt.Sprintf("Duplicate scan of %s", dirPath))
	for i, g := range groups {
		rep.AddGroup(renderGroup(session, i, g, payloadByID))
	}

	ingestReport := session.Report()
	storeStats := session.StoreStats()
	rep.SetStatistics(report.Statistics{
		Mode:          cfg.Mode.String(),
		Radius:        cfg.Radius,
		MinGroupSize:  cfg.MinGroupSize,
		ItemsIngested: int64(len(payloadByID)),
		Deduped:       storeStats.Deduped,
		DecodeFailed:  ingestReport.DecodeFailed,
		Degenerate:    ingestReport.DegenerateImage,
		Duration:      time.Since(start),
	})
	return rep, nil
}

func renderGroup(session *core.Session, id int, g types.DuplicateGroup, payloadByID map[types.FingerprintId]types.PayloadRef) report.Group {
	members := make([]report.Member, len(g.Members))
	representative, hasRepresentative := session.Fingerprint(g.Members[0])
	for i, fid := range g.Members {
		m := report.Member{Payload: payloadByID[fid]}
		if fp, ok := session.Fingerprint(fid); ok {
			m.Width = fp.Width
			if hasRepresentative {
				m.Hamming = fp.Hamming(representative)
			}
		}
		members[i] = m
	}
	return report.Group{ID: id, Members: members}
}

// discoverImages walks dirPath for files with a recognized image extension.
// Non-recursive scans only look at dirPath's immediate entries.
func discoverImages(root string, recursive bool) ([]string, error) {
	var paths []string
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isImageExt(path) {
			paths = append(paths, path)
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("dedup: scanning %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

func isImageExt(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

func resolveConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.DefaultConfig(), nil
}

func applyFlagOverrides(cfg *types.Config) {
	if mode != "" {
		if parsed, err := (&config.Config{Engine: config.EngineConfig{Mode: mode}}).ModeValue(); err == nil {
			cfg.Mode = parsed
		}
	}
	if radius != 0 {
		cfg.Radius = radius
	}
	if minGroupSize != 0 {
		cfg.MinGroupSize = minGroupSize
	}
	if threads != 0 {
		cfg.Threads = threads
	}
}

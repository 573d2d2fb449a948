package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/praetorian-inc/annotscan/pkg/datastore"
	"github.com/praetorian-inc/annotscan/pkg/enum"
	"github.com/praetorian-inc/annotscan/pkg/matcher"
	"github.com/praetorian-inc/annotscan/pkg/rule"
	"github.com/praetorian-inc/annotscan/pkg/sarif"
	"github.com/praetorian-inc/annotscan/pkg/scanner"
	"github.com/praetorian-inc/annotscan/pkg/store"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

var (
	scanRulesPath     string
	scanRulesInclude  string
	scanRulesExclude  string
	scanOutputPath    string
	scanOutputFormat  string
	scanGit           bool
	scanRef           string
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanExtensions    []string
	scanExcludes      []string
	scanContextLines  int
	scanDedupe        string
	scanIncremental   bool
	scanStoreBlobs    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target> [target...]",
	Short: "Scan PHP sources for validator annotations",
	Long: `Scan files, directories, or git repositories for Symfony validator
annotations in PHP docblocks. Results are stored in a SQLite datastore.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
}

// addScanFlags binds the scan flags to cmd, resetting them to defaults.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to custom rules file or directory")
	cmd.Flags().StringVar(&scanRulesInclude, "rules-include", "", "Include rules matching regex pattern (comma-separated)")
	cmd.Flags().StringVar(&scanRulesExclude, "rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	cmd.Flags().StringVar(&scanOutputPath, "output", "annotscan.db", "Output database path (:memory: for no datastore)")
	cmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: json, sarif, human")
	cmd.Flags().BoolVar(&scanGit, "git", false, "Treat targets as git repositories and scan a revision")
	cmd.Flags().StringVar(&scanRef, "ref", enum.DefaultRef, "Git revision to scan (with --git)")
	cmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	cmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	cmd.Flags().StringSliceVar(&scanExtensions, "extensions", nil, "File extensions to scan (default php, * for all)")
	cmd.Flags().StringSliceVar(&scanExcludes, "exclude", nil, "Gitignore-style patterns to skip")
	cmd.Flags().IntVar(&scanContextLines, "context-lines", 2, "Lines of context before/after matches (0 to disable)")
	cmd.Flags().StringVar(&scanDedupe, "dedupe", "location", "Collapse repeated annotations in a file: location, finding")
	cmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip already-scanned blobs")
	cmd.Flags().BoolVar(&scanStoreBlobs, "store-blobs", false, "Write a datastore directory at --output that keeps the content of matching blobs")
}

// scanStats counts what a scan stored.
type scanStats struct {
	blobs    int
	matches  int
	findings int
	skipped  int
}

func runScan(cmd *cobra.Command, args []string) error {
	for _, target := range args {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	cfg, err := loadConfig(configPath, args[0])
	if err != nil {
		return err
	}
	applyScanConfig(cmd, cfg)

	dedupe, ok := matcher.ParseDedupeMode(scanDedupe)
	if !ok {
		return fmt.Errorf("unknown dedupe mode: %s", scanDedupe)
	}
	switch scanOutputFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}

	rules, err := loadRules(scanRulesPath, scanRulesInclude, scanRulesExclude)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	m, err := matcher.New(matcher.Config{
		Rules:        rules,
		ContextLines: scanContextLines,
		Dedupe:       dedupe,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	var (
		s     store.Store
		blobs *datastore.BlobStore
	)
	if scanStoreBlobs {
		ds, err := datastore.Open(scanOutputPath, datastore.Options{StoreBlobs: true, Logger: logger})
		if err != nil {
			return fmt.Errorf("opening datastore: %w", err)
		}
		defer ds.Close()
		s, blobs = ds.Store, ds.Blobs
	} else {
		s, err = store.New(store.Config{
			Path: scanOutputPath,
		})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
	}

	for _, r := range rules {
		if err := s.AddRule(r); err != nil {
			return fmt.Errorf("storing rule %s: %w", r.ID, err)
		}
	}

	enumerator := createEnumerator(args)
	if combined, ok := enumerator.(*enum.CombinedEnumerator); ok {
		// A blob seen under an earlier target is not rescanned, only located.
		combined.OnDuplicate = func(_ []byte, blobID types.BlobID, prov types.Provenance) error {
			return s.AddProvenance(blobID, prov)
		}
	}
	logger.Info("scanning",
		zap.Strings("targets", args),
		zap.Int("rules", len(rules)),
		zap.Bool("git", scanGit))

	stats, err := scanTargets(commandContext(cmd), enumerator, m, s, blobs)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	logger.Info("scan complete",
		zap.Int("blobs", stats.blobs),
		zap.Int("matches", stats.matches),
		zap.Int("findings", stats.findings),
		zap.Int("skipped", stats.skipped))

	// Keep stdout pure JSON for machine formats.
	summary := cmd.OutOrStdout()
	if scanOutputFormat != "human" {
		summary = cmd.ErrOrStderr()
	}
	if scanIncremental {
		fmt.Fprintf(summary, "Scan complete: %d blobs, %d matches, %d findings (%d blobs skipped)\n",
			stats.blobs, stats.matches, stats.findings, stats.skipped)
	} else {
		fmt.Fprintf(summary, "Scan complete: %d blobs, %d matches, %d findings\n",
			stats.blobs, stats.matches, stats.findings)
	}
	if scanOutputPath != store.MemoryPath {
		fmt.Fprintf(summary, "Results stored in: %s\n", scanOutputPath)
	}

	switch scanOutputFormat {
	case "json":
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		return writeJSON(cmd, matches)
	case "sarif":
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		return outputSARIF(cmd, s, rules, matches)
	default:
		findings, err := s.GetFindings()
		if err != nil {
			return fmt.Errorf("retrieving findings: %w", err)
		}
		return outputFindings(cmd, findings)
	}
}

// scanTargets matches every enumerated blob and records it in s.
// When blobs is set, the content of every blob with matches is kept there.
func scanTargets(ctx context.Context, enumerator enum.Enumerator, m matcher.Matcher, s store.Store, blobs *datastore.BlobStore) (scanStats, error) {
	var (
		mu    sync.Mutex
		stats scanStats
	)

	err := enumerator.Enumerate(ctx, func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		mu.Lock()
		defer mu.Unlock()

		if scanIncremental {
			exists, err := s.BlobExists(blobID)
			if err != nil {
				return fmt.Errorf("checking blob: %w", err)
			}
			if exists {
				stats.skipped++
				// A known blob may still turn up at a new path.
				return s.AddProvenance(blobID, prov)
			}
		}

		matches, err := m.MatchWithBlobID(content, blobID)
		if err != nil {
			return fmt.Errorf("matching %s: %w", prov.Path(), err)
		}

		added, err := scanner.Record(s, blobID, int64(len(content)), prov, matches)
		if err != nil {
			return err
		}
		stats.blobs++
		stats.matches += len(matches)
		stats.findings += added

		if len(matches) > 0 && blobs != nil {
			if err := blobs.Put(blobID, content); err != nil {
				return err
			}
		}

		if len(matches) > 0 {
			logger.Debug("annotations found",
				zap.String("path", prov.Path()),
				zap.Int("matches", len(matches)))
		}
		return nil
	})
	return stats, err
}

// =============================================================================
// HELPERS
// =============================================================================

func loadRules(path, include, exclude string) ([]*types.Rule, error) {
	loader := rule.NewLoader()

	var rules []*types.Rule
	var err error

	if path != "" {
		rules, err = loader.LoadRulesPath(path)
		if err != nil {
			return nil, err
		}
		if err := rule.ValidateRules(rules); err != nil {
			return nil, err
		}
	} else {
		rules, err = loader.LoadBuiltinRules()
		if err != nil {
			return nil, err
		}
	}

	if include != "" || exclude != "" {
		config := rule.FilterConfig{
			Include: rule.ParsePatterns(include),
			Exclude: rule.ParsePatterns(exclude),
		}
		rules, err = rule.Filter(rules, config)
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules selected")
	}
	return rules, nil
}

func createEnumerator(targets []string) enum.Enumerator {
	enumerators := make([]enum.Enumerator, 0, len(targets))
	for _, target := range targets {
		config := enum.Config{
			Root:           target,
			IncludeHidden:  scanIncludeHidden,
			MaxFileSize:    scanMaxFileSize,
			FollowSymlinks: false,
			Extensions:     scanExtensions,
			Excludes:       scanExcludes,
		}

		if scanGit {
			e := enum.NewGitEnumerator(config)
			e.CommitRef = scanRef
			enumerators = append(enumerators, e)
			continue
		}
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(config))
	}

	if len(enumerators) == 1 {
		return enumerators[0]
	}
	return enum.NewCombinedEnumerator(enumerators...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputFindings(cmd *cobra.Command, findings []*types.Finding) error {
	out := cmd.OutOrStdout()
	if len(findings) == 0 {
		fmt.Fprintf(out, "\nNo findings.\n")
		return nil
	}

	fmt.Fprintf(out, "\nFindings:\n")
	for i, f := range findings {
		fmt.Fprintf(out, "%d. %s: @%s%s (%d matches)\n",
			i+1, f.RuleID, f.QualifiedName, f.Description, len(f.Matches))
	}
	return nil
}

// outputSARIF outputs matches in SARIF 2.1.0 format.
func outputSARIF(cmd *cobra.Command, s store.Store, rules []*types.Rule, matches []*types.Match) error {
	report := sarif.NewReport(version)

	for _, r := range rules {
		report.AddRule(r)
	}

	// Cache provenance by blob ID to avoid repeated queries
	paths := make(map[types.BlobID]string)
	for _, match := range matches {
		filePath, ok := paths[match.BlobID]
		if !ok {
			filePath = match.BlobID.Hex()
			provs, err := s.GetProvenance(match.BlobID)
			if err == nil && len(provs) > 0 {
				filePath = provs[0].Path()
			}
			paths[match.BlobID] = filePath
		}
		report.AddResult(match, filePath)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

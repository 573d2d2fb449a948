package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/praetorian-inc/annotscan/pkg/scanner"
	"github.com/praetorian-inc/annotscan/pkg/serve"
)

var (
	serveRulesPath    string
	serveRulesInclude string
	serveRulesExclude string
	serveContextLines int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming NDJSON server",
	Long: `Run annotscan as a long-lived streaming server that accepts scan requests
via stdin and writes responses to stdout, one JSON object per line.

Rules are loaded once at startup. Findings accumulate in an in-memory
session until stdin closes, a "close" request arrives or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveRulesPath, "rules", "", "Path to custom rules file or directory")
	cmd.Flags().StringVar(&serveRulesInclude, "rules-include", "", "Include rules matching regex pattern (comma-separated)")
	cmd.Flags().StringVar(&serveRulesExclude, "rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	cmd.Flags().IntVar(&serveContextLines, "context-lines", 2, "Lines of context before and after each match")
}

func runServe(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(serveRulesPath, serveRulesInclude, serveRulesExclude)
	if err != nil {
		return err
	}

	core, err := scanner.NewCore(scanner.Config{
		Rules:        rules,
		ContextLines: serveContextLines,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer core.Close()

	// Set up signal handling
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Debug("serving", zap.Int("rules", len(rules)))

	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	srv.SetLogger(logger)
	srv.SetRuleCount(len(rules))
	return srv.Run(ctx)
}

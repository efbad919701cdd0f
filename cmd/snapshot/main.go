// Command snapshot generates the JSON corpus snapshot from a directory of
// markdown documentation pages. Run it whenever the docs change; the API
// server reads the output at startup.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/snapshot"
)

func main() {
	docsDir := flag.String("docs", filepath.Join("content", "docs", "documentation"), "directory of .md/.mdx pages")
	outPath := flag.String("out", filepath.Join("data", "content-db.json"), "snapshot output path")
	flag.Parse()

	logger, err := logpkg.NewLogger(config.GetEnv())
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	gen := snapshot.New(*docsDir, logger)
	n, err := gen.WriteFile(*outPath)
	if err != nil {
		logger.Error("snapshot generation failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("snapshot generated",
		zap.Int("documents", n),
		zap.String("path", *outPath),
	)
}

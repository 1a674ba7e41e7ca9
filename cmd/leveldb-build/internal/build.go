package internal

import (
	"io"
	"os"

	"github.com/goplus/leveldb-build/internal/config"
	"github.com/goplus/leveldb-build/internal/link"
	"github.com/goplus/leveldb-build/internal/pipeline"
	"github.com/goplus/leveldb-build/internal/runner"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, err := directiveWriter(cfg.Format)
	if err != nil {
		return err
	}

	var verbose io.Writer
	if flags.verbose {
		verbose = os.Stderr
	}
	res, err := pipeline.Run(pipeline.Options{
		Features:   cfg.Features,
		Target:     cfg.Target,
		Pins:       cfg.Pins,
		VendorRoot: cfg.VendorRoot,
		OutDir:     cfg.OutDir,
		Jobs:       cfg.Jobs,
		Runner:     &runner.Exec{Verbose: verbose},
	})
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), res.Directives)
}

// loadConfig reads the environment and lets explicitly set flags override
// it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if flags.verbose {
		log.SetOutputLevel(log.Ldebug)
	} else {
		log.SetOutputLevel(log.Linfo)
	}

	cfg, err := config.Load(flags.manifestDir)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("snappy") {
		cfg.Features.Snappy = flags.snappy
	}
	if fs.Changed("vendor") {
		cfg.Features.Vendor = flags.vendor
	}
	if flags.target != "" {
		cfg.Target = flags.target
	}
	if flags.outDir != "" {
		cfg.OutDir = flags.outDir
	}
	if flags.jobs > 0 {
		cfg.Jobs = flags.jobs
	}
	if flags.format != "" {
		cfg.Format = flags.format
	}

	if err := cfg.LoadPins(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func directiveWriter(format string) (link.Writer, error) {
	if format == "cgo" && flags.pkg != "" {
		return &link.CgoFormat{Package: flags.pkg}, nil
	}
	return link.Format(format)
}

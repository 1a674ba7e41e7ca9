package internal

import (
	"github.com/goplus/leveldb-build/internal/styles"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leveldb-build",
	Short: "leveldb-build builds the native leveldb and snappy libraries",
	Long: `leveldb-build compiles vendored snappy and leveldb sources into static
archives and prints the linker directives a host build needs to link them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

var flags struct {
	snappy      bool
	vendor      bool
	target      string
	outDir      string
	manifestDir string
	jobs        int
	format      string
	pkg         string
	verbose     bool
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.snappy, "snappy", true, "Build leveldb with snappy compression")
	pf.BoolVar(&flags.vendor, "vendor", true, "Build the vendored sources instead of linking system libraries")
	pf.StringVar(&flags.target, "target", "", "Target triple (default $TARGET or the host)")
	pf.StringVar(&flags.outDir, "out-dir", "", "Install prefix (default $OUT_DIR or the user cache directory)")
	pf.StringVar(&flags.manifestDir, "manifest-dir", "", "Package directory holding deps/ (default $CARGO_MANIFEST_DIR or the working directory)")
	pf.IntVarP(&flags.jobs, "jobs", "j", 0, "Parallel build jobs (default $NUM_JOBS or the CPU count)")
	pf.StringVar(&flags.format, "format", "", "Directive format: cargo, plain or cgo")
	pf.StringVar(&flags.pkg, "package", "", "Go package name for the cgo format")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose build output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(styles.Error(err.Error()))
	}
}

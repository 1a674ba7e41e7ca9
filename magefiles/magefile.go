//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/goplus/leveldb-build/internal/styles"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// CI runs format, vet and tests in order
func CI() {
	mg.SerialDeps(Format, Vet, Test)
	fmt.Println(styles.Success("CI pipeline completed"))
}

// Test runs all tests in the project
func Test() error {
	fmt.Println(styles.Info("Running tests..."))

	if err := sh.RunV("go", "test", "./...", "-count=1"); err != nil {
		return fmt.Errorf("%s tests failed: %v", styles.Error("Error:"), err)
	}

	fmt.Println(styles.Success("All tests passed"))
	return nil
}

// Vet runs go vet on the project
func Vet() error {
	fmt.Println(styles.Info("Running go vet..."))

	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("%s vet failed: %v", styles.Error("Error:"), err)
	}
	return nil
}

// Format runs gofmt on all Go files in the project
func Format() error {
	fmt.Println(styles.Info("Formatting Go code with gofmt..."))

	if err := sh.RunV("gofmt", "-s", "-w", "."); err != nil {
		return fmt.Errorf("%s formatting failed: %v", styles.Error("Error:"), err)
	}
	return nil
}

// Plan prints the build plan resolved from the current environment
func Plan() error {
	return sh.RunV("go", "run", "./cmd/leveldb-build", "plan")
}

// Native builds the vendored libraries into $OUT_DIR (or the user cache)
// and prints the plain directives
func Native() error {
	fmt.Println(styles.Info("Building native libraries..."))

	env := map[string]string{}
	if dir := os.Getenv("OUT_DIR"); dir != "" {
		env["OUT_DIR"] = dir
	}
	if err := sh.RunWithV(env, "go", "run", "./cmd/leveldb-build", "--format", "plain", "-v"); err != nil {
		return fmt.Errorf("%s native build failed: %v", styles.Error("Error:"), err)
	}

	fmt.Println(styles.Success("Native libraries built"))
	return nil
}

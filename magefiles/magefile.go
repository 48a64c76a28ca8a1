//go:build mage

// Package main contains Mage build targets for pdfmd developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "pdfmd"
	cmdPkg  = "./cmd/pdfmd"

	// samplesDir holds PDFs for the Convert target.
	samplesDir = "samples"
)

// localDirs lists the working directories created by Init.
var localDirs = []string{
	binDir,
	samplesDir,
	".secrets",
}

// sampleConfig is written by Init when no pdfmd.yaml exists.
const sampleConfig = `# pdfmd configuration. Every key can also be set as PDFMD_<SECTION>_<KEY>.
log_level: info
ai:
  provider: azure
  model: gpt-4.1
  endpoint: ""
server:
  addr: ":8000"
processing:
  defaults:
    ai_analysis: true
    images_inline: true
    include_page_numbers: false
`

// Init creates the local working directories and a starter pdfmd.yaml.
func Init() error {
	for _, dir := range localDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("pdfmd.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("pdfmd.yaml", []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing pdfmd.yaml: %w", err)
		}
		fmt.Println("   pdfmd.yaml")
	}
	fmt.Println("Workspace initialized. Put API keys in .secrets/ (azure-api-key, pdfmd-api-key).")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from
// $VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Serve builds the binary and starts the HTTP API in the foreground.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}

// Convert builds the binary and converts every PDF in samples/.
func Convert() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "convert", "--batch", samplesDir)
}

// Stats prints project metrics: Go production/test lines and documentation word count.
func Stats() error {
	var prod, tests int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var words int
	for _, doc := range []string{"README.md", "DESIGN.md", "SPEC_FULL.md"} {
		data, err := os.ReadFile(doc)
		if err != nil {
			continue
		}
		words += len(bytes.Fields(data))
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// countLines counts the non-blank lines of a file.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}

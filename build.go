//go:build ignore

// build.go - InfraPulse Build System
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, release, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	module  = "infrapulse"
	command = "./cmd/infrapulse"
)

var (
	distDir = "dist"

	// release platforms as GOOS/GOARCH
	platforms = []string{
		"linux/amd64",
		"linux/arm64",
		"darwin/arm64",
		"windows/amd64",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}
	fmt.Println(colorCyan + "InfraPulse build" + colorReset)

	start := time.Now()
	var err error
	switch *target {
	case "build":
		err = build(runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		err = run(*verbose, "go", "test", "-race", "./...")
	case "release":
		err = release(*verbose)
	case "clean":
		err = os.RemoveAll(distDir)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("%s completed in %s", *target, time.Since(start).Round(time.Millisecond)))
}

// ldflags stamps build time and commit into pkg/contracts
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	}
	pkg := module + "/pkg/contracts"
	return fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		pkg, time.Now().UTC().Format(time.RFC3339), pkg, commit)
}

func build(goos, goarch string, verbose bool) error {
	name := "infrapulse"
	if goos == "windows" {
		name += ".exe"
	}
	out := filepath.Join(distDir, goos+"_"+goarch, name)
	printInfo(fmt.Sprintf("Building %s for %s/%s", name, goos, goarch))

	cmd := exec.Command("go", "build", "-trimpath", "-ldflags", ldflags(), "-o", out, command)
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	if err := runCmd(cmd, verbose); err != nil {
		return fmt.Errorf("build %s/%s: %w", goos, goarch, err)
	}
	if info, err := os.Stat(out); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", out, float64(info.Size())/1024/1024))
	}
	return nil
}

func release(verbose bool) error {
	if err := run(verbose, "go", "test", "./..."); err != nil {
		return fmt.Errorf("tests failed, not releasing: %w", err)
	}
	for _, p := range platforms {
		goos, goarch, _ := strings.Cut(p, "/")
		if err := build(goos, goarch, verbose); err != nil {
			return err
		}
	}
	return nil
}

func run(verbose bool, name string, args ...string) error {
	return runCmd(exec.Command(name, args...), verbose)
}

func runCmd(cmd *exec.Cmd, verbose bool) error {
	if verbose {
		fmt.Println(colorYellow + strings.Join(cmd.Args, " ") + colorReset)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET")
	fmt.Println("  build     build for the host platform")
	fmt.Println("  test      run tests with the race detector")
	fmt.Println("  release   test, then cross-compile into dist/")
	fmt.Println("  clean     remove dist/")
}

func printInfo(msg string)    { fmt.Println(colorCyan + "-> " + colorReset + msg) }
func printSuccess(msg string) { fmt.Println(colorGreen + "ok " + colorReset + msg) }
func printError(msg string)   { fmt.Println(colorRed + "error " + colorReset + msg) }

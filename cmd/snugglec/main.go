// Command snugglec is the Snuggle compiler's CLI driver shell (SPEC_FULL
// §1.3), grounded on dingo's cmd/dingo/main.go: a cobra root command with
// build/check/version subcommands, beautified with pkg/ui the same way
// dingo's buildCmd drives ui.BuildOutput through each pipeline stage.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/driver"
	"github.com/snuggle-lang/snugglec/pkg/resolve"
	"github.com/snuggle-lang/snugglec/pkg/ui"
	"github.com/snuggle-lang/snugglec/pkg/writer"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "snugglec",
		Short:        "snugglec - the Snuggle language compiler",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildCmd(), checkCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// fsLoader resolves import paths against the local filesystem, the
// production resolve.Loader a real `snugglec build` invocation needs
// (tests and the LSP server use driver.MapLoader instead).
type fsLoader struct{}

func (fsLoader) Load(path string) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return b, true
}

func loadConfig(dumpGoStub bool, falliblePolicy string) (*config.Config, error) {
	overrides := &config.Config{}
	if dumpGoStub {
		overrides.Writer.DumpGoStub = true
	}
	if falliblePolicy != "" {
		overrides.Checker.FalliblePatternPolicy = config.FalliblePatternPolicy(falliblePolicy)
	}
	return config.Load(overrides)
}

func buildCmd() *cobra.Command {
	var (
		output         string
		dumpGoStub     bool
		falliblePolicy string
	)

	cmd := &cobra.Command{
		Use:   "build [file.sn]...",
		Short: "Compile Snuggle source files to the class-file-shaped container",
		Long: `Build runs the full pipeline over each file:

  lex -> parse -> resolve -> check -> lower -> write

producing one "<file>.snc" container per input (SPEC_FULL §2/§4.5 — a
deterministic binary stand-in for the real bytecode-writer output, which
is out of scope for the compiler core per spec §1).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dumpGoStub, falliblePolicy)
			if err != nil {
				return err
			}

			buildUI := ui.NewBuildOutput()
			buildUI.PrintHeader(version)
			buildUI.PrintBuildStart(len(args))

			success := true
			var lastErr error
			for _, inputPath := range args {
				if err := buildFile(inputPath, output, buildUI, cfg); err != nil {
					success = false
					lastErr = err
					buildUI.PrintError(err.Error())
					break
				}
			}

			if success {
				buildUI.PrintSummary(true, "")
				return nil
			}
			buildUI.PrintSummary(false, lastErr.Error())
			return lastErr
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output container path (default: replace .sn with .snc)")
	cmd.Flags().BoolVar(&dumpGoStub, "dump-go-stub", false, "Also print a diagnostic-only Go-syntax skeleton of the generated program")
	cmd.Flags().StringVar(&falliblePolicy, "fallible-pattern-policy", "", "Override checker.fallible_pattern_policy (\"reject\" or \"warn\")")
	return cmd
}

func outputPathFor(inputPath, override string) string {
	if override != "" {
		return override
	}
	if len(inputPath) > 3 && inputPath[len(inputPath)-3:] == ".sn" {
		return inputPath[:len(inputPath)-3] + ".snc"
	}
	return inputPath + ".snc"
}

func buildFile(inputPath, outputOverride string, buildUI *ui.BuildOutput, cfg *config.Config) error {
	outputPath := outputPathFor(inputPath, outputOverride)
	buildUI.PrintFileStart(inputPath, outputPath)

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	start := time.Now()
	result := driver.Compile(inputPath, src, fsLoader{}, cfg)
	duration := time.Since(start)

	if !result.Bag.Empty() {
		status := ui.StepWarning
		for _, e := range result.Bag.Errors() {
			if !e.Warning {
				status = ui.StepError
				break
			}
		}
		buildUI.PrintStep(ui.Step{Name: "compile", Status: status, Duration: duration})
		for _, e := range result.Bag.Errors() {
			fmt.Println(e.Render(result.FileSet))
		}
	}
	if result.Program == nil {
		return fmt.Errorf("compilation failed with %d error(s)", len(result.Bag.Errors()))
	}
	if result.Bag.Empty() {
		buildUI.PrintStep(ui.Step{Name: "compile", Status: ui.StepSuccess, Duration: duration})
	}

	if cfg.Writer.DumpGoStub {
		stub, err := writer.DumpGoStub(result.Program)
		if err != nil {
			buildUI.PrintWarning(fmt.Sprintf("--dump-go-stub: %v", err))
		} else {
			fmt.Println(stub)
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := writer.Write(out, result.Program); err != nil {
		return fmt.Errorf("failed to write container: %w", err)
	}

	names := writer.SortedTypeNames(result.Program)
	buildUI.PrintStep(ui.Step{
		Name:    "write",
		Status:  ui.StepSuccess,
		Message: fmt.Sprintf("%d type(s) emitted to %s", len(names), outputPath),
	})
	return nil
}

func checkCmd() *cobra.Command {
	var falliblePolicy string

	cmd := &cobra.Command{
		Use:   "check [file.sn]...",
		Short: "Run resolution and type checking without lowering or writing output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false, falliblePolicy)
			if err != nil {
				return err
			}

			totalErrs := 0
			for _, inputPath := range args {
				src, err := os.ReadFile(inputPath)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", inputPath, err)
				}
				result := driver.CheckOnly(inputPath, src, fsLoader{}, cfg)
				for _, e := range result.Bag.Errors() {
					fmt.Println(e.Render(result.FileSet))
					totalErrs++
				}
			}

			fmt.Println(ui.Table([][]string{
				{"files checked", fmt.Sprintf("%d", len(args))},
				{"errors", fmt.Sprintf("%d", totalErrs)},
			}))

			if totalErrs > 0 {
				return fmt.Errorf("%d error(s)", totalErrs)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&falliblePolicy, "fallible-pattern-policy", "", "Override checker.fallible_pattern_policy (\"reject\" or \"warn\")")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the snugglec version",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersionInfo(version)
		},
	}
}

var _ resolve.Loader = fsLoader{}

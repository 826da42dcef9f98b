// =============================================================================
// RCDV Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the offline counterpart of
// POST /gerar-rcdv. It turns one or more spreadsheets into zip archives of
// RCDV forms.
//
// COMMAND USAGE:
//   rcdv generate [files...] [flags]
//
// FLAGS:
//   --input, -i       : Spreadsheet to process (repeatable, or pass as arguments)
//   --entity          : Entity code (SESI selects the social template)
//   --project         : Project name
//   --manager         : Approving manager
//   --accountant      : Accountant
//   --issue-date      : Issue date, YYYY-MM-DD (default today)
//   --issue-date-text : Text printed verbatim as the issue date
//   --order           : Only render these orders (repeatable)
//   --output, -o      : Archive path (single input only)
//   --dry-run         : Run every step but do not write archives
//
// PROCESSING PIPELINE:
//   1. Resolve entity, issue date and output names
//   2. For each file (concurrently):
//      a. Load and validate the spreadsheet
//      b. Aggregate and render every order
//      c. Write the archive atomically
//   3. Print a summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/batch"
	"github.com/ginjaninja78/rcdv-generator/internal/sheet"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
	"github.com/ginjaninja78/rcdv-generator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputFiles []string
	entityCode string
	project    string
	manager    string
	accountant string
	issueDate  string
	issueText  string
	orders     []int64
	outputPath string
	dryRun     bool
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate RCDV forms from spreadsheets",
	Long: `The generate command loads each spreadsheet, renders one form per order
with the template of the selected entity, and writes one zip archive per
spreadsheet to the output directory.

Files are processed concurrently. A failure in one file does not stop the
others; the command exits with an error if any file failed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := append(append([]string{}, inputFiles...), args...)
		if len(inputs) == 0 {
			return errors.New("no input spreadsheet given (use --input or pass files as arguments)")
		}
		if outputPath != "" && len(inputs) > 1 {
			return errors.New("--output can only be used with a single input")
		}

		if issueDate != "" && issueText != "" {
			return errors.New("--issue-date and --issue-date-text cannot be used together")
		}

		date, err := resolveIssueDate(issueDate, issueText, appConfig.StrictIssueDate, time.Now(), appLogger)
		if err != nil {
			return err
		}

		gen, err := newGenerator(appConfig, appLogger)
		if err != nil {
			return err
		}

		opts := generateOptions{
			Meta: summary.Metadata{
				Entity:     summary.ResolveEntity(entityCode),
				Project:    project,
				Manager:    manager,
				Accountant: accountant,
				IssueDate:  date,
			},
			Orders:     orders,
			Output:     outputPath,
			OutputDir:  appConfig.OutputDir,
			NameFormat: appConfig.ArchiveNameFormat,
			DryRun:     dryRun,
		}

		return runGenerate(cmd.Context(), gen, appLogger, inputs, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringSliceVarP(&inputFiles, "input", "i", nil, "Spreadsheet to process (repeatable)")
	generateCmd.Flags().StringVar(&entityCode, "entity", "", "Entity code, e.g. SESI or SENAI")
	generateCmd.Flags().StringVar(&project, "project", "", "Project name")
	generateCmd.Flags().StringVar(&manager, "manager", "", "Approving manager")
	generateCmd.Flags().StringVar(&accountant, "accountant", "", "Accountant")
	generateCmd.Flags().StringVar(&issueDate, "issue-date", "", "Issue date, YYYY-MM-DD (default today)")
	generateCmd.Flags().StringVar(&issueText, "issue-date-text", "", "Text printed verbatim as the issue date, e.g. \"março de 2024\"")
	generateCmd.Flags().Int64SliceVar(&orders, "order", nil, "Only render these orders (repeatable)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Archive path (single input only)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every step but do not write archives")

	_ = generateCmd.MarkFlagRequired("entity")
	_ = generateCmd.MarkFlagRequired("project")
	_ = generateCmd.MarkFlagRequired("manager")
	_ = generateCmd.MarkFlagRequired("accountant")
}

// =============================================================================
// PROCESSING
// =============================================================================

// generateOptions is everything a run needs besides the inputs.
type generateOptions struct {
	Meta       summary.Metadata
	Orders     []int64
	Output     string
	OutputDir  string
	NameFormat string
	DryRun     bool
}

// fileResult is the outcome of one input file.
type fileResult struct {
	Input  string
	Output string
	Result *batch.Result
	Err    error

	// Warnings are the non-fatal problems found in the spreadsheet.
	Warnings []*validation.ValidationError
}

// runGenerate processes every input concurrently and prints a summary to out.
//
// RETURNS:
//   - An error if at least one file failed.
func runGenerate(ctx context.Context, gen *batch.Generator, log *zap.Logger, inputs []string, opts generateOptions, out io.Writer) error {
	start := time.Now()

	var wg sync.WaitGroup
	results := make(chan fileResult, len(inputs))

	for _, input := range inputs {
		wg.Add(1)
		go func(input string) {
			defer wg.Done()
			results <- generateFile(ctx, gen, log, input, outputFor(input, len(inputs), opts), opts)
		}(input)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed int
	for r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(r.Input), r.Err)
			continue
		}
		target := r.Output
		if opts.DryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  ✓ %s -> %s (%d form(s))\n", filepath.Base(r.Input), target, len(r.Result.Documents))
		if len(r.Warnings) > 0 {
			fmt.Fprint(out, indent(validation.FormatErrors(r.Warnings), "      "))
		}
	}

	fmt.Fprintln(out, "\n=== Generation Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", len(inputs))
	fmt.Fprintf(out, "Successful:      %d\n", len(inputs)-failed)
	fmt.Fprintf(out, "Errors:          %d\n", failed)
	fmt.Fprintf(out, "Time elapsed:    %s\n", time.Since(start))

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(inputs))
	}
	return nil
}

// generateFile runs one spreadsheet through the batch generator.
func generateFile(ctx context.Context, gen *batch.Generator, log *zap.Logger, input, output string, opts generateOptions) fileResult {
	res := fileResult{Input: input, Output: output}

	f, err := os.Open(input)
	if err != nil {
		res.Err = fmt.Errorf("failed to open input: %w", err)
		return res
	}
	defer f.Close()

	sh, err := sheet.Parse(f, filepath.Base(input))
	if err != nil {
		res.Err = err
		return res
	}
	res.Warnings = validation.Warnings(sh.Warnings)
	for _, w := range res.Warnings {
		log.Debug("spreadsheet warning", zap.String("file", input), zap.String("warning", w.Error()))
	}

	req := batch.Request{Table: sh.Table, Meta: opts.Meta, Orders: opts.Orders}

	if opts.DryRun {
		res.Result, res.Err = gen.Generate(ctx, req, io.Discard)
		return res
	}

	res.Err = utils.WriteFileAtomic(output, func(w io.Writer) error {
		var err error
		res.Result, err = gen.Generate(ctx, req, w)
		return err
	})
	return res
}

// outputFor names the archive of one input. With several inputs the input
// name is folded in so the archives do not collide.
func outputFor(input string, count int, opts generateOptions) string {
	if opts.Output != "" {
		return opts.Output
	}

	format := opts.NameFormat
	if count > 1 && !strings.Contains(format, "{input}") && !strings.Contains(format, "{uuid}") {
		format = "{input}_" + format
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := utils.GenerateOutputFileName(format, map[string]string{
		"entity": opts.Meta.Entity.Code,
		"input":  stem,
	}, "zip")
	return filepath.Join(opts.OutputDir, name)
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line != "" {
			b.WriteString(prefix + line)
		}
	}
	return b.String()
}

// resolveIssueDate parses the --issue-date flag. An empty value means today.
// A non-empty text is printed verbatim and skips parsing.
func resolveIssueDate(raw, text string, strict bool, now time.Time, log *zap.Logger) (summary.IssueDate, error) {
	if text = strings.TrimSpace(text); text != "" {
		return summary.RawIssueDate(text), nil
	}
	if strings.TrimSpace(raw) == "" {
		return summary.IssueDate{Time: now}, nil
	}

	date, ok := summary.ParseIssueDate(raw, now)
	if !ok {
		if strict {
			return date, fmt.Errorf("%w: invalid issue date %q", validation.ErrInvalidInput, raw)
		}
		log.Warn("unparseable issue date, using today", zap.String("value", raw))
	}
	return date, nil
}

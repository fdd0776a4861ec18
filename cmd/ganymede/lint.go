package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/datamodel"
	"mercator-hq/ganymede/pkg/source"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
	"mercator-hq/ganymede/pkg/yang/parser"
)

var lintFlags struct {
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the module set for definition errors",
	Long: `Check the YANG module set named by the library document.

The lint command runs in two passes:
  - Syntax: every module and submodule is parsed on its own, so a
    broken file is reported with its source coordinates
  - Build: the whole set is compiled into a schema tree, catching
    cross-module problems such as missing imports, bad leafref paths
    or disabled features

Examples:
  # Lint the module set from config.yaml
  ganymede lint

  # Lint an explicit library and search path
  ganymede lint --library yang-library.json --module-dir modules/

  # JSON output for CI/CD
  ganymede lint --format json`,
	RunE: lintModules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	addModelFlags(lintCmd)
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintReport is the result of linting one module set.
type LintReport struct {
	Library string       `json:"library"`
	Valid   bool         `json:"valid"`
	Modules []LintModule `json:"modules,omitempty"`
	Issues  []LintIssue  `json:"issues,omitempty"`
}

// LintModule is one module of the set as the library declares it.
type LintModule struct {
	Name        string `json:"name"`
	Revision    string `json:"revision,omitempty"`
	Conformance string `json:"conformance"`
	File        string `json:"file,omitempty"`
}

// LintIssue is a single problem found while linting.
type LintIssue struct {
	Module  string `json:"module,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func lintModules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	report := runLint(cfg)

	if format == cli.FormatJSON {
		formatter := &cli.JSONFormatter{Indent: true}
		if err := formatter.FormatTo(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printLintReport(os.Stdout, report)
	}

	if !report.Valid {
		return cli.NewCommandError("lint", fmt.Errorf("module set has errors"))
	}
	return nil
}

// runLint lints the module set named by the configuration.
func runLint(cfg *config.Config) *LintReport {
	report := &LintReport{Library: cfg.Modules.Library, Valid: true}

	lib, err := loadLibrary(cfg)
	if err != nil {
		report.Valid = false
		report.Issues = append(report.Issues, LintIssue{Message: err.Error()})
		return report
	}

	src := source.NewDirSource(cfg.Modules.SearchPaths, nil)

	// Syntax pass
	for _, lm := range lib.Modules {
		file := lintParse(src, lm.Name, lm.Revision, report)
		report.Modules = append(report.Modules, LintModule{
			Name:        lm.Name,
			Revision:    string(lm.Revision),
			Conformance: lm.Conformance.String(),
			File:        file,
		})
		for _, sub := range lm.Submodules {
			lintParse(src, sub.Name, sub.Revision, report)
		}
	}
	if len(report.Issues) > 0 {
		report.Valid = false
		return report
	}

	// Build pass
	if _, err := datamodel.NewFromLibrary(lib, source.Loader(src)); err != nil {
		report.Valid = false
		report.Issues = append(report.Issues, lintIssue("", "", err))
	}
	return report
}

// lintParse loads and parses one module, appending any issue to the
// report. It returns the file the module was loaded from.
func lintParse(src source.Source, name string, rev yang.Revision, report *LintReport) string {
	data, origin, err := src.Load(name, rev)
	if err != nil {
		report.Issues = append(report.Issues, lintIssue(name, "", err))
		return ""
	}
	if _, err := parser.Parse(data, origin); err != nil {
		report.Issues = append(report.Issues, lintIssue(name, origin, err))
	}
	return origin
}

// lintIssue builds an issue from an error, extracting parser
// coordinates when the error carries them.
func lintIssue(module, file string, err error) LintIssue {
	issue := LintIssue{Module: module, File: file, Message: err.Error()}

	var unexpected *yangErrors.UnexpectedInput
	var eof *yangErrors.EndOfInput
	var notFound *yangErrors.ModuleNotFound
	var notRegistered *yangErrors.ModuleNotRegistered
	switch {
	case errors.As(err, &unexpected):
		issue.File = unexpected.Location.File
		issue.Line = unexpected.Location.Line
		issue.Column = unexpected.Location.Column
	case errors.As(err, &eof):
		issue.File = eof.Location.File
		issue.Line = eof.Location.Line
		issue.Column = eof.Location.Column
	case errors.As(err, &notFound) && issue.Module == "":
		issue.Module = notFound.Name
	case errors.As(err, &notRegistered) && issue.Module == "":
		issue.Module = notRegistered.Name
	}
	return issue
}

func printLintReport(w io.Writer, report *LintReport) {
	fmt.Fprintf(w, "Linting module set from %s...\n\n", report.Library)

	issuesByModule := make(map[string][]LintIssue)
	var general []LintIssue
	for _, issue := range report.Issues {
		if issue.Module == "" {
			general = append(general, issue)
			continue
		}
		issuesByModule[issue.Module] = append(issuesByModule[issue.Module], issue)
	}

	for _, mod := range report.Modules {
		issues := issuesByModule[mod.Name]
		if len(issues) == 0 {
			fmt.Fprintf(w, "✓ %s", mod.Name)
			if mod.Revision != "" {
				fmt.Fprintf(w, "@%s", mod.Revision)
			}
			fmt.Fprintf(w, " (%s)", mod.Conformance)
			if mod.File != "" {
				fmt.Fprintf(w, " %s", mod.File)
			}
			fmt.Fprintln(w)
			continue
		}
		for _, issue := range issues {
			printLintIssue(w, issue)
		}
		delete(issuesByModule, mod.Name)
	}

	// Issues against modules the library does not list, typically
	// submodules, plus set-wide build failures.
	for _, issues := range issuesByModule {
		for _, issue := range issues {
			printLintIssue(w, issue)
		}
	}
	for _, issue := range general {
		printLintIssue(w, issue)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d module(s), %d issue(s)\n", len(report.Modules), len(report.Issues))
}

func printLintIssue(w io.Writer, issue LintIssue) {
	fmt.Fprintf(w, "✗ Error: %s", issue.Message)
	if issue.Module != "" {
		fmt.Fprintf(w, " [%s]", issue.Module)
	}
	fmt.Fprintln(w)
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pablobm/calculate/internal/harness"
)

// ScenarioValidation is the validation outcome of one scenario file.
type ScenarioValidation struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                 `json:"valid"`
	Scenarios []ScenarioValidation `json:"scenarios"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-file-or-dir>...",
		Short: "Validate scenario files without running them",
		Long: `Load and validate scenario files without binding any formula.

Checks YAML structure, unknown fields, calculation references and
assertion types. Faster than test for development feedback.

Exit codes:
  0 - Every scenario is valid
  1 - One or more scenarios are invalid
  2 - Command error (path not found)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := collectScenarioFiles(paths, "")
	if err != nil {
		_ = out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	out.VerboseLog("Found %d scenario file(s)", len(files))

	result := ValidationResult{Valid: true, Scenarios: make([]ScenarioValidation, 0, len(files))}
	for _, file := range files {
		v := ScenarioValidation{File: file}
		s, err := harness.LoadScenario(file)
		if err != nil {
			v.Error = err.Error()
			result.Valid = false
		} else {
			v.Name = s.Name
		}
		result.Scenarios = append(result.Scenarios, v)
	}

	if out.Format == "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		w := out.Writer
		for _, v := range result.Scenarios {
			if v.Error != "" {
				fmt.Fprintf(w, "✗ %s\n  %s\n", v.File, v.Error)
				continue
			}
			fmt.Fprintf(w, "✓ %s (%s)\n", v.File, v.Name)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// collectScenarioFiles expands files and directories into scenario files.
// Directories are walked for .yaml and .yml files whose base name matches
// filter, when one is given.
func collectScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			if filter != "" {
				matched, err := filepath.Match(filter, trimExt(filepath.Base(path)))
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
				if !matched {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

package main

import (
	"fmt"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	validateFile   string
	validateSheet  string
	validateWrite  bool
	validateOut    string
	validateCells  bool
	validateFailOn string
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every schedule sheet of a workbook",
		Long: `Validate a schedule workbook and print each sheet's summary.

The log sheet is rebuilt and each summary cell filled in memory; use --write
to save the annotated workbook in place or --out to save a copy.

Examples:
  # Print summaries
  checker validate -f schedule.xlsx

  # Annotate the workbook in place and print the audit log
  checker validate -f schedule.xlsx --write --cells

  # Fail CI when any critical conflict exists
  checker validate -f schedule.xlsx --fail-on critical`,
		RunE: runValidate,
	}

	cmd.Flags().StringVarP(&validateFile, "filename", "f", "", "Workbook to validate (required)")
	cmd.Flags().StringVarP(&validateSheet, "sheet", "s", "", "Validate a single sheet without writing")
	cmd.Flags().BoolVarP(&validateWrite, "write", "w", false, "Save summaries and the log back into the workbook")
	cmd.Flags().StringVar(&validateOut, "out", "", "Save the annotated workbook to this path")
	cmd.Flags().BoolVar(&validateCells, "cells", false, "Include per-cell audit entries")
	cmd.Flags().StringVar(&validateFailOn, "fail-on", "none", "Exit non-zero on: none, caution, critical")
	cmd.MarkFlagRequired("filename")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	if !validator.HasExtension(validateFile, ".xlsx", ".xlsm") {
		return fmt.Errorf("%s is not an .xlsx or .xlsm workbook", validateFile)
	}
	if !validator.IsInSlice(validateFailOn, []string{"none", "caution", "critical"}) {
		return fmt.Errorf("--fail-on must be one of: none, caution, critical")
	}
	if validateSheet != "" && (validateWrite || validateOut != "") {
		return fmt.Errorf("--sheet cannot be combined with --write or --out")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := newChecker(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	var result validation.WorkbookResult
	if validateSheet != "" {
		result, err = c.validateSheet(ctx, validateFile, validateSheet)
	} else {
		dest := validateOut
		if dest == "" {
			dest = validateFile
		}
		result, err = c.validateFile(ctx, validateFile, dest, validateWrite || validateOut != "")
	}
	if err != nil {
		return err
	}

	if err := printResult(cmd.OutOrStdout(), result, validateCells); err != nil {
		return err
	}

	return checkFailOn(result, validateFailOn)
}

func checkFailOn(result validation.WorkbookResult, failOn string) error {
	worst := worstSeverity(result)
	switch {
	case failOn == "critical" && worst == validation.SeverityCritical,
		failOn == "caution" && worst >= validation.SeverityCaution:
		return fmt.Errorf("schedule has %s conflicts", worst)
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/JMS2088/gablok/pkg/perimeter"
	"github.com/JMS2088/gablok/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.Path != "" {
				fmt.Printf("    -> %s = %v\n", e.Path, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.Path != "" {
				fmt.Printf("    -> %s = %v\n", w.Path, w.ActualValue)
			}
			if w.Expected != "" {
				fmt.Printf("    expected: %s\n", w.Expected)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printRebuildResult(r perimeter.RebuildResult) {
	fmt.Println("Perimeter rebuild")
	fmt.Println("=================")
	fmt.Printf("  %-10s %6d\n", "Purged", r.Purged)
	fmt.Printf("  %-10s %6d\n", "Dragged", r.Dragged)
	fmt.Printf("  %-10s %6d\n", "Added", r.Added)
	fmt.Printf("  %-10s %6d\n", "Welded", r.Welded)
	fmt.Printf("  %-10s %6d\n", "Yielded", r.Yielded)
	fmt.Printf("  %-10s %6d\n", "Deduped", r.Deduped)
	fmt.Printf("  %-10s %6d\n", "Skipped", r.Skipped)
	fmt.Printf("  %-10s %6d\n", "Walls", r.Strips)
}

func printConsistency(c perimeter.Consistency) {
	status := "OK"
	if !c.OK() {
		status = "MISMATCH"
	}
	fmt.Printf("Level %d: %s\n", c.Level, status)
	fmt.Printf("  %-16s %10d\n", "expected edges", c.ExpectedCount)
	fmt.Printf("  %-16s %10d\n", "walls", c.ActualCount)
	fmt.Printf("  %-16s %10d\n", "user-drawn", c.UserStrips)
	fmt.Printf("  %-16s %10d\n", "welded matches", c.WeldedCount)
	fmt.Printf("  %-16s %10.3f m\n", "expected length", c.ExpectedLength)
	fmt.Printf("  %-16s %10.3f m\n", "actual length", c.ActualLength)
	fmt.Printf("  %-16s %+10.3f m\n", "difference", c.LengthDiff)
	fmt.Printf("  %-16s %10.3f m2\n", "floor area", c.FloorArea)
	if len(c.Missing) > 0 {
		fmt.Printf("  missing: %s\n", strings.Join(c.Missing, ", "))
	}
	if len(c.Extra) > 0 {
		fmt.Printf("  extra:   %s\n", strings.Join(c.Extra, ", "))
	}
}

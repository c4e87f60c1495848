//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Db rebuilds the lattice database from reports/lattice_report.csv.
// Depends on Build so it always runs the current binary.
func Db() error {
	mg.Deps(Build)

	report := filepath.Join("reports", "lattice_report.csv")
	if _, err := os.Stat(report); err != nil {
		return fmt.Errorf("no custom report at %s: %w", report, err)
	}

	cmd := exec.Command(filepath.Join(binDir, binName), "db", "create", report)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("db create: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdbfile rewrites PDB-format coordinate files into the
// standardized single-model, single-chain form the downstream
// molecular-replacement programs consume.
package pdbfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// keptHeaderRecords are the non-coordinate records preserved in the
// rewritten file. CRYST1 and the SCALE records carry the crystal
// symmetry and must survive.
var keptHeaderRecords = map[string]bool{
	"HEADER": true,
	"TITLE":  true,
	"CRYST1": true,
	"SCALE1": true,
	"SCALE2": true,
	"SCALE3": true,
}

// ReduceToSingleChain copies a PDB file from r to w keeping only the
// first chain's ATOM and TER records of the first model, plus the header
// records above. ANISOU records and HETATM records (ligands, waters) are
// dropped. The output always terminates with END.
func ReduceToSingleChain(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	bw := bufio.NewWriter(w)

	var chain byte
	haveChain := false
	pastFirstModel := false

	for sc.Scan() {
		line := sc.Text()
		rec := recordName(line)

		switch rec {
		case "ENDMDL":
			pastFirstModel = true
			continue
		case "MODEL", "ANISOU", "HETATM", "END", "MASTER", "CONECT":
			continue
		}

		if pastFirstModel {
			continue
		}

		if keptHeaderRecords[rec] {
			fmt.Fprintln(bw, line)
			continue
		}

		if rec == "ATOM" || rec == "TER" {
			if len(line) < 22 {
				continue
			}
			id := line[21]
			if !haveChain {
				chain = id
				haveChain = true
			}
			if id == chain {
				fmt.Fprintln(bw, line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading PDB: %w", err)
	}

	if !haveChain {
		return fmt.Errorf("no coordinate records found")
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

// recordName returns the record type of a PDB line: the first six
// columns with trailing spaces removed.
func recordName(line string) string {
	if len(line) > 6 {
		line = line[:6]
	}
	return strings.TrimRight(line, " ")
}

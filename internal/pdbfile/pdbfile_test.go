package pdbfile

import (
	"bytes"
	"strings"
	"testing"
)

const multiChainPDB = `HEADER    HYDROLASE                               01-JAN-20   1DTX
TITLE     SAMPLE ENTRY
REMARK   2 RESOLUTION.    1.80 ANGSTROMS.
CRYST1   23.190   38.730   73.580  90.00  90.00  90.00 P 21 21 21    4
SCALE1      0.043122  0.000000  0.000000        0.00000
SCALE2      0.000000  0.025820  0.000000        0.00000
SCALE3      0.000000  0.000000  0.013591        0.00000
ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ANISOU    1  N   ALA A   1     1000   1000   1000      0      0      0       N
ATOM      2  CA  ALA A   1      11.639   6.071  -5.147  1.00  0.00           C
HETATM    3  O   HOH A 201       1.000   2.000   3.000  1.00  0.00           O
TER       4      ALA A   1
ATOM      5  N   GLY B   1       8.444   9.220  -4.984  1.00  0.00           N
HETATM    6  O   HOH B 101       2.000   3.000   4.000  1.00  0.00           O
CONECT    1    2
MASTER        0    0    0    0    0    0    0    0    4    1    1    1
END
`

const multiModelPDB = `MODEL        1
ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ENDMDL
MODEL        2
ATOM      1  N   ALA A   1      12.000   6.134  -6.504  1.00  0.00           N
ENDMDL
END
`

func reduce(t *testing.T, input string) []string {
	t.Helper()
	var out bytes.Buffer
	if err := ReduceToSingleChain(strings.NewReader(input), &out); err != nil {
		t.Fatalf("ReduceToSingleChain: %v", err)
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestReduceKeepsFirstChainOnly(t *testing.T) {
	lines := reduce(t, multiChainPDB)

	for _, line := range lines {
		if strings.Contains(line, " B ") {
			t.Errorf("chain B survived: %q", line)
		}
		for _, rec := range []string{"ANISOU", "HETATM", "CONECT", "MASTER", "REMARK"} {
			if strings.HasPrefix(line, rec) {
				t.Errorf("%s record survived: %q", rec, line)
			}
		}
	}

	var atoms, ters int
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "ATOM"):
			atoms++
		case strings.HasPrefix(line, "TER"):
			ters++
		}
	}
	if atoms != 2 || ters != 1 {
		t.Errorf("got %d ATOM and %d TER lines, want 2 and 1", atoms, ters)
	}
}

func TestReducePreservesCrystalRecords(t *testing.T) {
	lines := reduce(t, multiChainPDB)

	want := []string{"HEADER", "TITLE", "CRYST1", "SCALE1", "SCALE2", "SCALE3"}
	for _, rec := range want {
		found := false
		for _, line := range lines {
			if strings.HasPrefix(line, rec) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s record missing from output", rec)
		}
	}
	if lines[len(lines)-1] != "END" {
		t.Errorf("last line = %q, want END", lines[len(lines)-1])
	}
}

func TestReduceKeepsFirstModelOnly(t *testing.T) {
	lines := reduce(t, multiModelPDB)

	var atoms []string
	for _, line := range lines {
		if strings.HasPrefix(line, "ATOM") {
			atoms = append(atoms, line)
		}
	}
	if len(atoms) != 1 {
		t.Fatalf("got %d ATOM lines, want 1 (first model only)", len(atoms))
	}
	if !strings.Contains(atoms[0], "11.104") {
		t.Errorf("wrong model kept: %q", atoms[0])
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "MODEL") || strings.HasPrefix(line, "ENDMDL") {
			t.Errorf("model record survived: %q", line)
		}
	}
}

func TestReduceNoCoordinates(t *testing.T) {
	var out bytes.Buffer
	err := ReduceToSingleChain(strings.NewReader("HEADER    EMPTY\nEND\n"), &out)
	if err == nil {
		t.Fatal("file without coordinates accepted")
	}
}

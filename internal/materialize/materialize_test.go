package materialize

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lattice-search/pkg/types"
)

const samplePDB = `HEADER    HYDROLASE                               01-JAN-20   1DTX
TITLE     SAMPLE ENTRY
CRYST1   23.190   38.730   73.580  90.00  90.00  90.00 P 21 21 21    4
ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  ALA A   1      11.639   6.071  -5.147  1.00  0.00           C
TER       3      ALA A   1
ATOM      4  N   GLY B   1       8.444   9.220  -4.984  1.00  0.00           N
END
`

func sampleHit(code string) types.LatticeHit {
	cell, _ := types.NewUnitCell(23.19, 38.73, 73.58, 90, 90, 90)
	return types.LatticeHit{
		PDBCode:      code,
		Cell:         cell,
		TotalPenalty: 0.5,
		Probability:  0.88,
	}
}

// writeMirrorEntry places a gzipped entry at its sharded mirror location.
func writeMirrorEntry(t *testing.T, mirrorDir, code, content string) {
	t.Helper()
	path := MirrorPath(mirrorDir, code)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating mirror shard: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating mirror file: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("writing mirror file: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing mirror file: %v", err)
	}
}

func TestMirrorPath(t *testing.T) {
	got := MirrorPath("/data/pdb", "1DTX")
	want := filepath.Join("/data/pdb", "dt", "pdb1dtx.ent.gz")
	if got != want {
		t.Errorf("MirrorPath = %q, want %q", got, want)
	}
}

func TestCopyBatch(t *testing.T) {
	mirrorDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "models")
	writeMirrorEntry(t, mirrorDir, "1DTX", samplePDB)

	hits := []types.LatticeHit{sampleHit("1DTX"), sampleHit("2ABS")}
	var buf bytes.Buffer
	kept, summary, err := CopyBatch(hits, mirrorDir, destDir, &buf)
	if err != nil {
		t.Fatalf("CopyBatch: %v", err)
	}

	if summary.Resolved != 1 || summary.Failed != 1 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 1 resolved, 1 failed", summary)
	}
	if len(kept) != 1 || kept[0].PDBCode != "1DTX" {
		t.Fatalf("kept = %v, want only 1DTX", kept)
	}
	if kept[0].PDBPath != filepath.Join(destDir, "1DTX.pdb") {
		t.Errorf("PDBPath = %q", kept[0].PDBPath)
	}
	if !strings.Contains(buf.String(), "2ABS") {
		t.Errorf("missing-entry warning not written: %q", buf.String())
	}

	data, err := os.ReadFile(kept[0].PDBPath)
	if err != nil {
		t.Fatalf("reading copied file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, " B   1") {
		t.Error("second chain not removed from copied file")
	}
	if !strings.Contains(content, "CRYST1") {
		t.Error("CRYST1 record missing from copied file")
	}
}

func TestCopyBatchSkipsExisting(t *testing.T) {
	mirrorDir := t.TempDir()
	destDir := t.TempDir()
	writeMirrorEntry(t, mirrorDir, "1DTX", samplePDB)
	existing := filepath.Join(destDir, "1DTX.pdb")
	if err := os.WriteFile(existing, []byte("placeholder\n"), 0o644); err != nil {
		t.Fatalf("seeding existing file: %v", err)
	}

	kept, summary, err := CopyBatch([]types.LatticeHit{sampleHit("1DTX")}, mirrorDir, destDir, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("CopyBatch: %v", err)
	}
	if summary.Skipped != 1 || summary.Resolved != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
	if len(kept) != 1 || kept[0].PDBPath != existing {
		t.Fatalf("kept = %v, want existing path retained", kept)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "placeholder\n" {
		t.Error("existing file was overwritten")
	}
}

func TestCopyBatchWritesMetadata(t *testing.T) {
	mirrorDir := t.TempDir()
	destDir := t.TempDir()
	writeMirrorEntry(t, mirrorDir, "1DTX", samplePDB)

	kept, _, err := CopyBatch([]types.LatticeHit{sampleHit("1DTX")}, mirrorDir, destDir, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("CopyBatch: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("kept = %v", kept)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "metadata", "1DTX.yaml"))
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var got types.LatticeHit
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshalling metadata: %v", err)
	}
	if got.PDBCode != "1DTX" || got.Probability != 0.88 {
		t.Errorf("metadata = %+v", got)
	}
}

func TestDownloadBatch(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if strings.Contains(r.URL.Path, "pdb9xxx") {
			http.NotFound(rw, r)
			return
		}
		rw.Write([]byte(samplePDB))
	}))
	defer srv.Close()

	// Route all requests to the test server regardless of the archive host.
	client := &http.Client{Transport: rewriteTransport{base: srv.URL}}

	destDir := t.TempDir()
	cfg := types.MaterializeConfig{DestinationDir: destDir}
	cfg.UserAgent = "lattice-search/test"

	hits := []types.LatticeHit{sampleHit("1DTX"), sampleHit("9XXX")}
	var buf bytes.Buffer
	kept, summary, err := DownloadBatch(context.Background(), client, hits, cfg, &buf)
	if err != nil {
		t.Fatalf("DownloadBatch: %v", err)
	}

	if summary.Resolved != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 resolved, 1 failed", summary)
	}
	if len(kept) != 1 || kept[0].PDBCode != "1DTX" {
		t.Fatalf("kept = %v, want only 1DTX", kept)
	}
	if len(requested) != 2 || !strings.HasSuffix(requested[0], "pdb1dtx.ent") {
		t.Errorf("requested paths = %v", requested)
	}
	if !strings.Contains(buf.String(), "9XXX") {
		t.Errorf("download-failure warning not written: %q", buf.String())
	}

	data, err := os.ReadFile(kept[0].PDBPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if strings.Contains(string(data), " B   1") {
		t.Error("second chain not removed from downloaded file")
	}
}

func TestDownloadBatchSkipsExisting(t *testing.T) {
	destDir := t.TempDir()
	existing := filepath.Join(destDir, "1DTX.pdb")
	if err := os.WriteFile(existing, []byte("placeholder\n"), 0o644); err != nil {
		t.Fatalf("seeding existing file: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Error("request made for an already materialized entry")
	}))
	defer srv.Close()
	client := &http.Client{Transport: rewriteTransport{base: srv.URL}}

	cfg := types.MaterializeConfig{DestinationDir: destDir}
	kept, summary, err := DownloadBatch(context.Background(), client, []types.LatticeHit{sampleHit("1DTX")}, cfg, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("DownloadBatch: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
	if len(kept) != 1 || kept[0].PDBPath != existing {
		t.Fatalf("kept = %v", kept)
	}
}

// rewriteTransport redirects every request to a local test server.
type rewriteTransport struct {
	base string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten := req.Clone(req.Context())
	rewritten.URL.Scheme = "http"
	rewritten.URL.Host = strings.TrimPrefix(rt.base, "http://")
	return http.DefaultTransport.RoundTrip(rewritten)
}

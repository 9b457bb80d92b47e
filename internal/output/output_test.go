package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vulnverified/blobsweep/internal/engine"
)

func sampleScan() *engine.ScanResult {
	return &engine.ScanResult{
		Base:         "contoso",
		DurationSecs: 2.5,
		Accounts:     []string{"contoso.blob.core.windows.net", "contosodev.blob.core.windows.net"},
		Containers: []engine.ContainerResult{
			{Kind: engine.KindObject, Endpoint: "contoso.blob.core.windows.net/public", URL: "https://contoso.blob.core.windows.net/public/a.txt"},
			{Kind: engine.KindObject, Endpoint: "contoso.blob.core.windows.net/public", URL: "https://contoso.blob.core.windows.net/public/b.txt"},
			{Kind: engine.KindEmptyContainer, Endpoint: "contosodev.blob.core.windows.net/backup", URL: "https://contosodev.blob.core.windows.net/backup?restype=container&comp=list"},
		},
		Summary: engine.Summary{
			CandidatesTested: 5,
			AccountsFound:    2,
			PathsProbed:      4,
			ObjectsFound:     2,
			EmptyContainers:  1,
		},
	}
}

func TestProgress_Silent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true, true, true)
	p.Stage(1, 3, "stage")
	p.Detail("detail")
	p.Warn("warn")
	p.Found(engine.FoundAccount, "a.blob.core.windows.net")
	tick, done := p.Track("Resolving", 10)
	tick()
	done()
	p.Complete()

	if buf.Len() != 0 {
		t.Errorf("silent progress wrote %q", buf.String())
	}
}

func TestProgress_FoundAndDetail(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false, false)
	p.Found(engine.FoundAccount, "contoso.blob.core.windows.net")
	p.Found(engine.FoundEmptyContainer, "https://x/y?restype=container&comp=list")
	p.Detail("hidden")

	out := buf.String()
	if !strings.Contains(out, "Found Storage Account") || !strings.Contains(out, "contoso.blob.core.windows.net") {
		t.Errorf("missing account finding:\n%s", out)
	}
	if !strings.Contains(out, "Empty Public Container Available") {
		t.Errorf("missing empty container finding:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("detail printed without verbose")
	}

	buf.Reset()
	NewProgress(&buf, true, false, false).Detail("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("detail not printed in verbose mode")
	}
}

func TestProgress_TrackWithoutBars(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false, false)
	tick, done := p.Track("Resolving", 3)
	for i := 0; i < 3; i++ {
		tick()
	}
	done()
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProgress_TrackBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false, true)
	tick, done := p.Track("Probing containers", 3)
	for i := 0; i < 3; i++ {
		tick()
	}
	done()
	done()

	if !strings.Contains(buf.String(), "Probing containers") {
		t.Errorf("bar description missing from %q", buf.String())
	}
}

func TestProgress_VerboseDisablesBars(t *testing.T) {
	p := NewProgress(&bytes.Buffer{}, true, false, true)
	if p.bars {
		t.Error("bars enabled in verbose mode")
	}
}

func TestWriteSubdomainTable(t *testing.T) {
	result := &engine.SubdomainResult{
		Subdomains: []engine.Subdomain{
			{Host: "contoso.azurewebsites.net", Service: "App Services"},
			{Host: "contoso.blob.core.windows.net", Service: "Storage Accounts - Blobs"},
		},
	}

	var buf bytes.Buffer
	WriteSubdomainTable(&buf, result, true)
	out := buf.String()
	for _, want := range []string{"Subdomain", "Service", "contoso.azurewebsites.net", "Storage Accounts - Blobs"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "App Services") > strings.Index(out, "Storage Accounts") {
		t.Error("rows reordered")
	}

	buf.Reset()
	WriteSubdomainTable(&buf, &engine.SubdomainResult{}, true)
	if !strings.Contains(buf.String(), "No subdomains discovered.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteContainerTable(t *testing.T) {
	var buf bytes.Buffer
	WriteContainerTable(&buf, sampleScan(), true)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	// header, separator, one row per container
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "contoso.blob.core.windows.net/public") || !strings.Contains(lines[2], "public") || !strings.Contains(lines[2], "a.txt") {
		t.Errorf("unexpected row %q", lines[2])
	}
	if !strings.Contains(lines[3], "empty") {
		t.Errorf("unexpected row %q", lines[3])
	}

	buf.Reset()
	WriteContainerTable(&buf, &engine.ScanResult{}, false)
	if !strings.Contains(buf.String(), "No public containers discovered.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteContainerTable_Styled(t *testing.T) {
	var buf bytes.Buffer
	WriteContainerTable(&buf, sampleScan(), false)
	if !strings.Contains(buf.String(), "Container") {
		t.Errorf("styled table missing header:\n%s", buf.String())
	}
}

func TestWriteContainerSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteContainerSummary(&buf, sampleScan(), true)
	out := buf.String()

	for _, want := range []string{
		"Base: contoso",
		"Accounts: 2 found of 5 candidates",
		"Objects: 2 publicly listed",
		"Duration: 2.5s",
		"! 2 publicly listable containers: backup, public",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSubdomainSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSubdomainSummary(&buf, &engine.SubdomainResult{
		Bases:   []string{"contoso", "fabrikam"},
		Summary: engine.SubdomainSummary{CandidatesTested: 36, SubdomainsFound: 3, ServicesFound: 2},
	}, true)
	out := buf.String()
	if !strings.Contains(out, "Bases: contoso, fabrikam") || !strings.Contains(out, "3 resolved of 36 candidates") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleScan()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	containers, ok := decoded["containers"].([]any)
	if !ok || len(containers) != 3 {
		t.Fatalf("containers = %v", decoded["containers"])
	}
	first := containers[0].(map[string]any)
	if first["kind"] != "object" {
		t.Errorf("kind = %v", first["kind"])
	}
}

func TestFileSink_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	sink := &FileSink{Path: path}

	if err := sink.Write([]string{"a", "b"}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := sink.Write([]string{"c"}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "a\nb\nc\n" {
		t.Errorf("file = %q", data)
	}
}

func TestFileSink_BadPath(t *testing.T) {
	sink := &FileSink{Path: filepath.Join(t.TempDir(), "missing", "out.txt")}
	if err := sink.Write([]string{"a"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

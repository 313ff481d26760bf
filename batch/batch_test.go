package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const sampleCSV = `date,hour,narrative_text,extra
2024-01-01,06:00,<b>Now:</b> Cloudy.,x
2024-01-01,07:00,FAIL,x
2024-01-01,08:00,Sunny.,x
,09:00,no date,x
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "narratives.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeRender(text string) ([]byte, error) {
	if text == "FAIL" {
		return nil, errors.New("boom")
	}
	return []byte("png:" + text), nil
}

func TestReadRecords(t *testing.T) {
	recs, err := ReadRecords(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadRecords error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Narrative != "<b>Now:</b> Cloudy." || recs[0].Filename() != "2024-01-01-06-00.png" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if _, err := ReadRecords(strings.NewReader("date,text\n")); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}

func TestRunRendersSkipsAndFails(t *testing.T) {
	out := t.TempDir()
	existing := filepath.Join(out, "2024-01-01-08-00.png")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := Run(context.Background(), Job{CSVPath: writeCSV(t, sampleCSV), OutDir: out, Workers: 2, Render: fakeRender})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Total != 3 || sum.Rendered != 1 || sum.Skipped != 1 || sum.Failed != 1 || len(sum.Errors) != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	data, err := os.ReadFile(filepath.Join(out, "2024-01-01-06-00.png"))
	if err != nil || string(data) != "png:<b>Now:</b> Cloudy." {
		t.Fatalf("rendered file = %q, %v", data, err)
	}
	if sum.Bytes != int64(len(data)) {
		t.Fatalf("bytes = %d", sum.Bytes)
	}
	if old, _ := os.ReadFile(existing); string(old) != "old" {
		t.Fatalf("existing file must not be overwritten")
	}

	present, missing, err := Verify(writeCSV(t, sampleCSV), out)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if present != 2 || len(missing) != 1 || missing[0] != "2024-01-01-07-00.png" {
		t.Fatalf("verify = %d %v", present, missing)
	}
}

func TestRunMax(t *testing.T) {
	out := filepath.Join(t.TempDir(), "images")
	sum, err := Run(context.Background(), Job{CSVPath: writeCSV(t, sampleCSV), OutDir: out, Max: 1, Render: fakeRender})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Total != 1 || sum.Rendered != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := Run(ctx, Job{CSVPath: writeCSV(t, sampleCSV), OutDir: t.TempDir(), Render: fakeRender})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum.Rendered != 0 {
		t.Fatalf("nothing should render after cancellation: %+v", sum)
	}
}

func TestRunRequiresRender(t *testing.T) {
	if _, err := Run(context.Background(), Job{CSVPath: writeCSV(t, sampleCSV), OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without render func")
	}
}

func TestRunDuplicateRecordsRenderOnce(t *testing.T) {
	csv := `date,hour,narrative_text
2024-01-01,06:00,first
2024-01-01,06:00,second
2024-01-01,06:00,third
`
	var calls atomic.Int32
	render := func(text string) ([]byte, error) {
		calls.Add(1)
		return []byte(text), nil
	}
	out := t.TempDir()
	sum, err := Run(context.Background(), Job{CSVPath: writeCSV(t, csv), OutDir: out, Workers: 4, Render: render})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls.Load() != 1 || sum.Rendered != 1 || sum.Skipped != 2 {
		t.Fatalf("duplicate records should render once: calls=%d %+v", calls.Load(), sum)
	}
	data, err := os.ReadFile(filepath.Join(out, "2024-01-01-06-00.png"))
	if err != nil || string(data) != "first" {
		t.Fatalf("expected first record on disk, got %q (%v)", data, err)
	}
}

func TestRunRejectsPathSeparators(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}
	csvPath := writeCSV(t, `date,hour,narrative_text
../evil,06:00,escape
2024-01-01,..\07:00,escape
2024-01-01,08:00,ok
`)
	sum, err := Run(context.Background(), Job{CSVPath: csvPath, OutDir: out, Render: fakeRender})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Failed != 2 || sum.Rendered != 1 || len(sum.Errors) != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(root, "evil-06-00.png")); !os.IsNotExist(err) {
		t.Fatalf("file escaped output dir: %v", err)
	}
	entries, err := os.ReadDir(out)
	if err != nil || len(entries) != 1 || entries[0].Name() != "2024-01-01-08-00.png" {
		t.Fatalf("unexpected output dir contents: %v (%v)", entries, err)
	}
	present, missing, err := Verify(csvPath, out)
	if err != nil || present != 1 || len(missing) != 2 {
		t.Fatalf("Verify = %d %v %v", present, missing, err)
	}
}

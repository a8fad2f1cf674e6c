package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCorpus_MergesRecordsPerCase(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.jsonl", `
{"U_id":"MPX1","Case":{"Title":"First"}}
{"U_id":"MPX2","Case":{"Title":"Other"}}
{"U_id":"MPX1","Description":{"Caption":"axial ct"}}
`)

	cases, err := LoadCorpus(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 merged cases, got %d", len(cases))
	}
	if cases[0].ID != "MPX1" || cases[1].ID != "MPX2" {
		t.Errorf("order = %s, %s", cases[0].ID, cases[1].ID)
	}
	if got := sectionStr(cases[0].section("Description"), "Caption"); got != "axial ct" {
		t.Errorf("merged caption = %q", got)
	}
	if got := sectionStr(cases[0].section("Case"), "Title"); got != "First" {
		t.Errorf("merged title = %q", got)
	}
}

func TestLoadCorpus_SkipsRecordsWithoutID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.jsonl", `
{"Case":{"Title":"orphan"}}
{"U_id":"MPX9"}
`)

	cases, err := LoadCorpus(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(cases) != 1 || cases[0].ID != "MPX9" {
		t.Errorf("cases = %+v", cases)
	}
}

func TestLoadCorpus_MalformedLineSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.jsonl", `{not json}
{"U_id":"MPX1","Case":{"Case Diagnosis":"Stroke"}}
`)

	cases, err := LoadCorpus(context.Background(), path)
	if err != nil {
		t.Fatalf("a malformed line must not abort the load: %v", err)
	}
	if len(cases) != 1 || cases[0].ID != "MPX1" {
		t.Errorf("cases = %+v", cases)
	}
}

func TestLoadCorpus_MissingFileFails(t *testing.T) {
	if _, err := LoadCorpus(context.Background(), "/nonexistent/corpus.jsonl"); err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestListImages_LastImageWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "MPX1_01.png", "a")
	writeFile(t, dir, "MPX1_02.jpg", "b")
	writeFile(t, dir, "MPX2_01.jpeg", "c")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "noid.png", "ignored")

	images, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 case images, got %d: %v", len(images), images)
	}
	if filepath.Base(images["MPX1"]) != "MPX1_02.jpg" {
		t.Errorf("MPX1 image = %q, want last in sorted listing", images["MPX1"])
	}
	if filepath.Base(images["MPX2"]) != "MPX2_01.jpeg" {
		t.Errorf("MPX2 image = %q", images["MPX2"])
	}
}

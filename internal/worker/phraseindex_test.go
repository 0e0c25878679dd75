package worker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDict(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPhraseDictionariesEmptyDir(t *testing.T) {
	idx, err := LoadPhraseDictionaries(t.TempDir())
	if err != nil {
		t.Fatalf("LoadPhraseDictionaries() error = %v", err)
	}
	if !idx.Empty() {
		t.Fatal("expected an empty index for a directory with no dictionaries")
	}
}

func TestLoadPhraseDictionariesEntities(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "people.yaml", "label: PERSON\nitems:\n  - John Doe\n  - Jane Smith\n")

	idx, err := LoadPhraseDictionaries(dir)
	if err != nil {
		t.Fatalf("LoadPhraseDictionaries() error = %v", err)
	}
	if idx.Empty() {
		t.Fatal("expected a non-empty index")
	}

	hits := idx.Match("a statement from John Doe this morning")
	if len(hits) != 1 || hits[0].Phrase != "John Doe" || hits[0].Label != "PERSON" {
		t.Fatalf("hits = %+v, want one John Doe/PERSON hit", hits)
	}
}

func TestLoadPhraseDictionariesAlertsFallsBackToFilenameLabel(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "breaking.yaml", "phrases:\n  - urgent update\n")

	idx, err := LoadPhraseDictionaries(dir)
	if err != nil {
		t.Fatalf("LoadPhraseDictionaries() error = %v", err)
	}

	hits := idx.Match("this is an urgent update for viewers")
	if len(hits) != 1 || hits[0].Label != "breaking" {
		t.Fatalf("hits = %+v, want label 'breaking' from the filename", hits)
	}
}

func TestLoadPhraseDictionariesSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDict(t, dir, "broken.yaml", "not: [valid: yaml")
	writeDict(t, dir, "good.yaml", "label: TERM\nitems:\n  - weather\n")

	idx, err := LoadPhraseDictionaries(dir)
	if err != nil {
		t.Fatalf("LoadPhraseDictionaries() error = %v", err)
	}
	if idx.Empty() {
		t.Fatal("expected the valid dictionary to still load")
	}
	if hits := idx.Match("today's weather forecast"); len(hits) != 1 {
		t.Fatalf("hits = %+v, want one weather hit", hits)
	}
}

func TestPhraseIndexMatchOnNilIndex(t *testing.T) {
	var idx *PhraseIndex
	if !idx.Empty() {
		t.Fatal("nil index should report Empty")
	}
	if hits := idx.Match("anything"); hits != nil {
		t.Fatalf("Match() on nil index = %v, want nil", hits)
	}
}

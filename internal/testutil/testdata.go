package testutil

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture pairs a captured advertisement payload with its expected fields.
type Fixture struct {
	Name    string
	Payload []byte
	Fields  map[string]any
}

// LoadFixture reads testdata/<dir>/<name>.hex and the matching .json file.
func LoadFixture(t *testing.T, dir, name string) Fixture {
	t.Helper()
	f := Fixture{Name: name, Payload: LoadHex(t, filepath.Join(dir, name+".hex"))}
	LoadJSON(t, filepath.Join(dir, name+".json"), &f.Fields)
	return f
}

// LoadJSON decodes a JSON fixture from testdata.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns the bytes of a hex fixture; whitespace is ignored.
func LoadHex(t *testing.T, rel string) []byte {
	t.Helper()
	clean := strings.Join(strings.Fields(string(readTestdata(t, rel))), "")
	b, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
	return b
}

// FixtureNames lists the .hex fixtures in a testdata directory.
func FixtureNames(t *testing.T, dir string) []string {
	t.Helper()
	for _, root := range testdataRoots() {
		matches, err := filepath.Glob(filepath.Join(root, dir, "*.hex"))
		if err != nil || len(matches) == 0 {
			continue
		}
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, strings.TrimSuffix(filepath.Base(m), ".hex"))
		}
		return names
	}
	t.Fatalf("no fixtures found in testdata/%s", dir)
	return nil
}

func testdataRoots() []string {
	return []string{
		"testdata",
		filepath.Join("..", "testdata"),
		filepath.Join("..", "..", "testdata"),
	}
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	for _, root := range testdataRoots() {
		if data, err := os.ReadFile(filepath.Join(root, rel)); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}

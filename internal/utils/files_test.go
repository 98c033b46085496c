package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.csv")
	if err := utils.SafeWriteFile(p, []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "a,b\n1,2\n" {
		t.Fatalf("content = %q", string(b))
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSwapExt(t *testing.T) {
	cases := []struct{ in, ext, want string }{
		{"data/origin.csv", ".xlsx", "data/origin.xlsx"},
		{"preprocessing_cleaned.xlsx", ".csv", "preprocessing_cleaned.csv"},
		{"noext", ".csv", "noext.csv"},
	}
	for _, c := range cases {
		if got := utils.SwapExt(c.in, c.ext); got != c.want {
			t.Errorf("SwapExt(%q, %q) = %q, want %q", c.in, c.ext, got, c.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := utils.ExpandHome("~/.surveyloom/studies")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := filepath.Join(home, ".surveyloom", "studies"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

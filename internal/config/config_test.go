package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(home, ".surveyloom", "studies"); c.StudiesDir != want {
		t.Fatalf("studies_dir = %q, want %q", c.StudiesDir, want)
	}
	if c.Quality.DominantThreshold != 20 || c.Quality.RunThreshold != 8 {
		t.Fatalf("quality = %+v", c.Quality)
	}
	if c.Simulate.N != 300 || c.Simulate.Seed != 42 || !c.Simulate.LogTime {
		t.Fatalf("simulate = %+v", c.Simulate)
	}
	if len(c.Analysis.TeacherFeedback) != 12 || len(c.Analysis.StudentPerception) != 22 {
		t.Fatalf("item groups = %d/%d", len(c.Analysis.TeacherFeedback), len(c.Analysis.StudentPerception))
	}
	if len(c.Analysis.FeedbackType) != 5 || len(c.Analysis.WritingAbility) != 5 || len(c.Analysis.Expectation) != 4 {
		t.Fatalf("feedback groups = %+v", c.Analysis)
	}

	l := c.Layout()
	if l.GenderColumn != "性别：" || l.ExcludeTrailing != 1 || l.ScalePoints != 5 {
		t.Fatalf("layout = %+v", l)
	}
	if len(l.ReverseItems) != 1 || l.ReverseItems[0] != defaultReverseItem {
		t.Fatalf("reverse items = %v", l.ReverseItems)
	}

	m := c.ModelOptions()
	if m.Target != defaultModelTarget || m.Threshold != 4 || len(m.Features) != 6 {
		t.Fatalf("model options = %+v", m)
	}
	if m.Features[5] != "性别：" {
		t.Fatalf("last feature = %q", m.Features[5])
	}
	if groups := c.MeanGroups(); len(groups) != 3 {
		t.Fatalf("mean groups = %d", len(groups))
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "quality:\n  run_threshold: 6\nsimulate:\n  n: 50\nsurvey:\n  reverse_items: []\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SURVEYLOOM_SIMULATE_SEED", "7")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Quality.RunThreshold != 6 || c.Quality.DominantThreshold != 20 {
		t.Fatalf("quality = %+v", c.Quality)
	}
	if c.Simulate.N != 50 || c.Simulate.Seed != 7 {
		t.Fatalf("simulate = %+v", c.Simulate)
	}
	if len(c.Layout().ReverseItems) != 0 {
		t.Fatalf("reverse items should be cleared: %v", c.Layout().ReverseItems)
	}
	if th := c.Thresholds(38); th.Run != 6 || th.Dominant != 20 {
		t.Fatalf("thresholds = %+v", th)
	}
	c.Quality.ScaleToItems = true
	if th := c.Thresholds(19); th.Dominant != 10 || th.Run != 4 {
		t.Fatalf("scaled thresholds = %+v", th)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Simulate.Bandwidth = 0.25
	c.Analysis.ModelTarget = "Q18"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Simulate.Bandwidth != 0.25 || back.Analysis.ModelTarget != "Q18" {
		t.Fatalf("reloaded = %+v", back)
	}
	if len(back.Analysis.TeacherFeedback) != 12 {
		t.Fatalf("teacher feedback lost on round trip: %d", len(back.Analysis.TeacherFeedback))
	}
}

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
	"github.com/KaramelBytes/surveyloom-cli/internal/testkit"
)

// resetFlags restores every flag in the command tree to its default so
// values and Changed state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// isolate points HOME at a temp dir so config and studies stay local.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// fixtureConfig maps the analysis item groups onto the Qnn test columns.
func fixtureConfig(t *testing.T, dir string) string {
	t.Helper()
	content := `analysis:
  teacher_feedback: [Q01, Q02, Q03, Q04]
  student_perception: [Q10, Q11, Q12]
  expectation: [Q20, Q21]
  feedback_type: [Q01, Q02, Q03]
  writing_ability: [Q10, Q11, Q12]
  model_target: Q18
`
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func readFixture(t *testing.T, path string) *table.Table {
	t.Helper()
	tb, err := table.ReadFile(path, table.ReadOptions{})
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return tb
}

func TestCLI_CleanSimulateConvertModel(t *testing.T) {
	home := isolate(t)
	conf := fixtureConfig(t, home)

	ref := testkit.ReferenceTable(60, 3)
	ref.Append(testkit.Row(61, 30, "1", make38(3)))
	origin := testkit.WriteTable(t, home, "origin.csv", ref)

	runCmd(t, "init", "wave1", "-d", "integration study")

	cleaned := filepath.Join(home, "preprocessing_cleaned.csv")
	report := filepath.Join(home, "discarded.csv")
	runCmd(t, "clean", "-i", origin, "-o", cleaned, "--report", report, "-p", "wave1")
	kept := readFixture(t, cleaned)
	discarded := readFixture(t, report)
	if kept.Len()+discarded.Len() != ref.Len() {
		t.Fatalf("kept %d + discarded %d != %d", kept.Len(), discarded.Len(), ref.Len())
	}
	if discarded.Len() == 0 {
		t.Fatalf("straight-lined row 61 should be discarded")
	}
	if strings.Join(kept.Header, ",") != strings.Join(ref.Header, ",") {
		t.Fatalf("column order changed")
	}

	sim := filepath.Join(home, "simulated.csv")
	runCmd(t, "simulate", "-i", cleaned, "-o", sim, "-n", "50", "--seed", "9", "-p", "wave1")
	first, err := os.ReadFile(sim)
	if err != nil {
		t.Fatalf("read simulated: %v", err)
	}
	again := filepath.Join(home, "simulated_again.csv")
	runCmd(t, "simulate", "-i", cleaned, "-o", again, "-n", "50", "--seed", "9")
	second, err := os.ReadFile(again)
	if err != nil {
		t.Fatalf("read simulated again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("same seed must produce identical output")
	}
	simTable := readFixture(t, sim)
	if simTable.Len() != 50 || len(simTable.Header) != 6+testkit.ItemCount {
		t.Fatalf("simulated shape = %dx%d", simTable.Len(), len(simTable.Header))
	}

	xdir := filepath.Join(home, "xlsx")
	cdir := filepath.Join(home, "csv")
	runCmd(t, "convert", sim, "--to", "xlsx", "--out-dir", xdir, "-p", "wave1")
	runCmd(t, "convert", filepath.Join(xdir, "*.xlsx"), "--to", "csv", "--out-dir", cdir)
	back := readFixture(t, filepath.Join(cdir, "simulated.csv"))
	if back.Len() != simTable.Len() {
		t.Fatalf("round trip rows = %d, want %d", back.Len(), simTable.Len())
	}
	for i := range simTable.Rows {
		if strings.Join(back.Rows[i], ",") != strings.Join(simTable.Rows[i], ",") {
			t.Fatalf("row %d changed: %v != %v", i, back.Rows[i], simTable.Rows[i])
		}
	}

	modelOut := filepath.Join(home, "model.md")
	runCmd(t, "--config", conf, "model", "-i", cleaned, "-o", modelOut)
	body, err := os.ReadFile(modelOut)
	if err != nil {
		t.Fatalf("read model report: %v", err)
	}
	for _, want := range []string{"[CLASSIFICATION REPORT]", "[CONFUSION MATRIX]", "Target: Q18 >= 4"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("model report missing %q", want)
		}
	}

	dir, err := resolveStudyDirByName("wave1")
	if err != nil {
		t.Fatalf("resolve study: %v", err)
	}
	s, err := study.LoadStudy(dir)
	if err != nil {
		t.Fatalf("load study: %v", err)
	}
	kinds := map[study.Kind]int{}
	for _, d := range s.List() {
		kinds[d.Kind]++
	}
	if kinds[study.KindCleaned] != 1 || kinds[study.KindSimulated] != 1 || kinds[study.KindConverted] != 1 {
		t.Fatalf("recorded kinds = %v", kinds)
	}
}

func TestCLI_AnalyzeWithCharts(t *testing.T) {
	home := isolate(t)
	conf := fixtureConfig(t, home)
	data := testkit.WriteTable(t, home, "survey.csv", testkit.ReferenceTable(40, 11))

	out := filepath.Join(home, "report.md")
	charts := filepath.Join(home, "charts")
	runCmd(t, "--config", conf, "analyze", "-i", data, "-o", out, "--charts", charts)
	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[ITEM MEANS]", "[FEEDBACK TYPE CORRELATIONS]", "[RELIABILITY]"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("report missing %q", want)
		}
	}
	for _, name := range []string{"teacher_feedback_means.png", "student_perception_means.png", "expectation_means.png", "feedback_correlations.png"} {
		if _, err := os.Stat(filepath.Join(charts, name)); err != nil {
			t.Fatalf("missing chart %s: %v", name, err)
		}
	}

	hist := filepath.Join(home, "time.svg")
	runCmd(t, "plot", "hist", "-i", data, "-o", hist, "--bins", "10", "--kde")
	if _, err := os.Stat(hist); err != nil {
		t.Fatalf("missing histogram: %v", err)
	}
	bars := filepath.Join(home, "bars.png")
	runCmd(t, "--config", conf, "plot", "bars", "-i", data, "-o", bars)
	if _, err := os.Stat(bars); err != nil {
		t.Fatalf("missing bar chart: %v", err)
	}
}

func TestCLI_CleanStrictAndLenient(t *testing.T) {
	home := isolate(t)
	ref := testkit.ReferenceTable(10, 5)
	bad := testkit.Row(11, 100, "2", testkit.Varied(testkit.ItemCount))
	bad[7] = "seven"
	ref.Append(bad)
	origin := testkit.WriteTable(t, home, "origin.csv", ref)
	out := filepath.Join(home, "out.csv")

	if err := execCmd("clean", "-i", origin, "-o", out); err == nil {
		t.Fatalf("strict mode should fail on a malformed row")
	}
	runCmd(t, "clean", "-i", origin, "-o", out, "--lenient")
	if got := readFixture(t, out); got.Len() > 10 {
		t.Fatalf("malformed row should be skipped, kept %d", got.Len())
	}
}

func TestCLI_ConvertReportsFailuresAndContinues(t *testing.T) {
	home := isolate(t)
	good := testkit.WriteTable(t, home, "good.csv", testkit.ReferenceTable(5, 1))
	broken := filepath.Join(home, "broken.xlsx")
	if err := os.WriteFile(broken, []byte("not a workbook"), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	outDir := filepath.Join(home, "out")
	if err := execCmd("convert", good, broken, "--to", "tsv", "--out-dir", outDir); err == nil {
		t.Fatalf("expected an error for the broken workbook")
	}
	if _, err := os.Stat(filepath.Join(outDir, "good.tsv")); err != nil {
		t.Fatalf("good file should still convert: %v", err)
	}
}

func TestCLI_ConvertRejectsCollidingOutputs(t *testing.T) {
	home := isolate(t)
	ref := testkit.ReferenceTable(4, 2)
	a := testkit.WriteTable(t, home, "wave.csv", ref)
	b := testkit.WriteTable(t, home, "wave.tsv", ref)
	outDir := filepath.Join(home, "out")
	err := execCmd("convert", a, b, "--to", "xlsx", "--out-dir", outDir)
	if err == nil || !strings.Contains(err.Error(), "both be written") {
		t.Fatalf("expected collision error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "wave.xlsx")); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written on a collision: %v", err)
	}
}

func TestCLI_AnalyzeSkipsReflectionForSimulatedData(t *testing.T) {
	home := isolate(t)
	conf := fixtureConfig(t, home)
	ref := testkit.WriteTable(t, home, "ref.csv", testkit.ReferenceTable(40, 4))
	runCmd(t, "init", "sim")
	sim := filepath.Join(home, "sim.csv")
	runCmd(t, "simulate", "-i", ref, "-o", sim, "-n", "60", "-p", "sim")

	plain := filepath.Join(home, "plain.md")
	runCmd(t, "--config", conf, "analyze", "-i", sim, "-o", plain)
	forced := filepath.Join(home, "forced.md")
	runCmd(t, "--config", conf, "analyze", "-i", sim, "-o", forced, "-p", "sim", "--reflect-reverse")
	a, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("read plain: %v", err)
	}
	b, err := os.ReadFile(forced)
	if err != nil {
		t.Fatalf("read forced: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("simulated data must not be reflected again:\n%s\n---\n%s", a, b)
	}
	if !strings.Contains(string(a), "Reflected before scoring: none") {
		t.Fatalf("report should state no reflection")
	}

	raw := filepath.Join(home, "raw.md")
	runCmd(t, "--config", conf, "analyze", "-i", ref, "-o", raw, "--reflect-reverse")
	body, err := os.ReadFile(raw)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if !strings.Contains(string(body), "Reflected before scoring: "+testkit.ReverseItem) {
		t.Fatalf("raw export should reflect the reverse item")
	}
}

func TestCLI_InitRefusesExistingStudy(t *testing.T) {
	isolate(t)
	runCmd(t, "init", "dup")
	if err := execCmd("init", "dup"); err == nil {
		t.Fatalf("expected error re-initializing a study")
	}
	runCmd(t, "list", "--studies")
	runCmd(t, "list", "--datasets", "-p", "dup")
	runCmd(t, "list", "--datasets", "-p", "dup", "--kind", "simulated")
	if err := execCmd("list", "--datasets", "-p", "dup", "--kind", "bogus"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := execCmd("list"); err == nil {
		t.Fatalf("expected error without --studies or --datasets")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "conf.yaml")
	runCmd(t, "--config", path, "config", "set", "quality.run_threshold", "6")
	runCmd(t, "--config", path, "config", "set", "analysis.feedback_type", "Q01|Q02")
	runCmd(t, "--config", path, "config", "show")
	if cfg == nil || cfg.Quality.RunThreshold != 6 || len(cfg.Analysis.FeedbackType) != 2 {
		t.Fatalf("config not applied: %+v", cfg)
	}
	if err := execCmd("--config", path, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := execCmd("--config", path, "config", "set", "--", "simulate.bandwidth", "-1"); err == nil {
		t.Fatalf("expected error for negative bandwidth")
	}
}

func make38(v int) []int {
	out := make([]int, testkit.ItemCount)
	for i := range out {
		out[i] = v
	}
	return out
}

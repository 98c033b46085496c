package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/surveyloom-cli/internal/analysis"
	"github.com/KaramelBytes/surveyloom-cli/internal/quality"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

const dirName = ".surveyloom"

// Global configuration structure.
type Global struct {
	StudiesDir  string `mapstructure:"studies_dir" yaml:"studies_dir"`
	ScalePoints int    `mapstructure:"scale_points" yaml:"scale_points"`

	Survey   SurveyConfig   `mapstructure:"survey" yaml:"survey"`
	Quality  QualityConfig  `mapstructure:"quality" yaml:"quality"`
	Simulate SimulateConfig `mapstructure:"simulate" yaml:"simulate"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
}

// SurveyConfig names the columns of the questionnaire export.
type SurveyConfig struct {
	IDColumn         string   `mapstructure:"id_column" yaml:"id_column"`
	TimeColumn       string   `mapstructure:"time_column" yaml:"time_column"`
	ScoreColumn      string   `mapstructure:"score_column" yaml:"score_column"`
	DisciplineColumn string   `mapstructure:"discipline_column" yaml:"discipline_column"`
	GenderColumn     string   `mapstructure:"gender_column" yaml:"gender_column"`
	ItemColumns      []string `mapstructure:"item_columns" yaml:"item_columns"`
	ExcludeTrailing  int      `mapstructure:"exclude_trailing" yaml:"exclude_trailing"`
	ReverseItems     []string `mapstructure:"reverse_items" yaml:"reverse_items"`
	ItemMin          int      `mapstructure:"item_min" yaml:"item_min"`
	ItemMax          int      `mapstructure:"item_max" yaml:"item_max"`
}

// QualityConfig holds the straight-lining thresholds.
type QualityConfig struct {
	DominantThreshold int  `mapstructure:"dominant_threshold" yaml:"dominant_threshold"`
	RunThreshold      int  `mapstructure:"run_threshold" yaml:"run_threshold"`
	ScaleToItems      bool `mapstructure:"scale_to_items" yaml:"scale_to_items"`
	Lenient           bool `mapstructure:"lenient" yaml:"lenient"`
}

// SimulateConfig holds generator defaults.
type SimulateConfig struct {
	N          int     `mapstructure:"n" yaml:"n"`
	Seed       uint64  `mapstructure:"seed" yaml:"seed"`
	Bandwidth  float64 `mapstructure:"bandwidth" yaml:"bandwidth"`
	Discipline string  `mapstructure:"discipline" yaml:"discipline"`
	LogTime    bool    `mapstructure:"log_time" yaml:"log_time"`
}

// AnalysisConfig holds item groups and model settings.
type AnalysisConfig struct {
	TeacherFeedback   []string `mapstructure:"teacher_feedback" yaml:"teacher_feedback"`
	StudentPerception []string `mapstructure:"student_perception" yaml:"student_perception"`
	FeedbackType      []string `mapstructure:"feedback_type" yaml:"feedback_type"`
	WritingAbility    []string `mapstructure:"writing_ability" yaml:"writing_ability"`
	Expectation       []string `mapstructure:"expectation" yaml:"expectation"`
	ModelTarget       string   `mapstructure:"model_target" yaml:"model_target"`
	ModelThreshold    float64  `mapstructure:"model_threshold" yaml:"model_threshold"`
	TestFraction      float64  `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed              uint64   `mapstructure:"seed" yaml:"seed"`
	HistogramBins     int      `mapstructure:"histogram_bins" yaml:"histogram_bins"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, dirName, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Nested keys map to env names
// with dots replaced by underscores, e.g. SURVEYLOOM_SIMULATE_SEED.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.StudiesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.StudiesDir = filepath.Join(home, dirName, "studies")
	}
	dir, err := utils.ExpandHome(c.StudiesDir)
	if err != nil {
		return nil, err
	}
	c.StudiesDir = dir
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	l := survey.DefaultLayout()
	v.SetDefault("scale_points", l.ScalePoints)

	v.SetDefault("survey.id_column", l.IDColumn)
	v.SetDefault("survey.time_column", l.TimeColumn)
	v.SetDefault("survey.score_column", l.ScoreColumn)
	v.SetDefault("survey.discipline_column", l.DisciplineColumn)
	v.SetDefault("survey.gender_column", l.GenderColumn)
	v.SetDefault("survey.item_columns", []string{})
	v.SetDefault("survey.exclude_trailing", l.ExcludeTrailing)
	v.SetDefault("survey.reverse_items", []string{defaultReverseItem})
	v.SetDefault("survey.item_min", l.ItemMin)
	v.SetDefault("survey.item_max", l.ItemMax)

	th := quality.DefaultThresholds()
	v.SetDefault("quality.dominant_threshold", th.Dominant)
	v.SetDefault("quality.run_threshold", th.Run)
	v.SetDefault("quality.scale_to_items", false)
	v.SetDefault("quality.lenient", false)

	v.SetDefault("simulate.n", 300)
	v.SetDefault("simulate.seed", 42)
	v.SetDefault("simulate.bandwidth", 0.0)
	v.SetDefault("simulate.discipline", "1")
	v.SetDefault("simulate.log_time", true)

	m := analysis.DefaultModelOptions()
	v.SetDefault("analysis.teacher_feedback", defaultTeacherFeedback)
	v.SetDefault("analysis.student_perception", defaultStudentPerception)
	v.SetDefault("analysis.feedback_type", defaultFeedbackType)
	v.SetDefault("analysis.writing_ability", defaultWritingAbility)
	v.SetDefault("analysis.expectation", defaultExpectation)
	v.SetDefault("analysis.model_target", defaultModelTarget)
	v.SetDefault("analysis.model_threshold", m.Threshold)
	v.SetDefault("analysis.test_fraction", m.TestFraction)
	v.SetDefault("analysis.seed", m.Seed)
	v.SetDefault("analysis.histogram_bins", 30)
}

// Layout returns the survey layout described by the configuration.
func (c *Global) Layout() survey.Layout {
	l := survey.DefaultLayout()
	s := c.Survey
	if s.IDColumn != "" {
		l.IDColumn = s.IDColumn
	}
	if s.TimeColumn != "" {
		l.TimeColumn = s.TimeColumn
	}
	if s.ScoreColumn != "" {
		l.ScoreColumn = s.ScoreColumn
	}
	if s.DisciplineColumn != "" {
		l.DisciplineColumn = s.DisciplineColumn
	}
	if s.GenderColumn != "" {
		l.GenderColumn = s.GenderColumn
	}
	l.ItemColumns = s.ItemColumns
	l.ExcludeTrailing = s.ExcludeTrailing
	l.ReverseItems = s.ReverseItems
	if s.ItemMin != 0 || s.ItemMax != 0 {
		l.ItemMin, l.ItemMax = s.ItemMin, s.ItemMax
	}
	if c.ScalePoints > 0 {
		l.ScalePoints = c.ScalePoints
	}
	return l
}

// Thresholds returns the quality thresholds for an instrument with items
// questions.
func (c *Global) Thresholds(items int) quality.Thresholds {
	if c.Quality.ScaleToItems {
		return quality.ScaledThresholds(items)
	}
	th := quality.DefaultThresholds()
	if c.Quality.DominantThreshold > 0 {
		th.Dominant = c.Quality.DominantThreshold
	}
	if c.Quality.RunThreshold > 0 {
		th.Run = c.Quality.RunThreshold
	}
	return th
}

// MeanGroups returns the item groups whose per-gender means are reported.
func (c *Global) MeanGroups() []analysis.ItemGroup {
	a := c.Analysis
	var out []analysis.ItemGroup
	add := func(name, title string, cols []string) {
		if len(cols) > 0 {
			out = append(out, analysis.ItemGroup{Name: name, Title: title, Columns: cols})
		}
	}
	add("teacher_feedback", "Teacher feedback practice", a.TeacherFeedback)
	add("student_perception", "Student feedback perception", a.StudentPerception)
	add("expectation", "Feedback expectation", a.Expectation)
	return out
}

// SurveyOptions assembles the analyze options for the configured instrument.
// items are the resolved item columns used for the reliability estimate.
func (c *Global) SurveyOptions(items []string) analysis.SurveyOptions {
	l := c.Layout()
	return analysis.SurveyOptions{
		GenderColumn:     l.GenderColumn,
		MeanGroups:       c.MeanGroups(),
		FeedbackTypes:    c.Analysis.FeedbackType,
		WritingAbility:   c.Analysis.WritingAbility,
		ReliabilityItems: items,
		ReverseItems:     l.ReverseItems,
		ScalePoints:      l.ScalePoints,
	}
}

// ModelOptions assembles the classification demo options.
func (c *Global) ModelOptions() analysis.ModelOptions {
	m := analysis.DefaultModelOptions()
	m.Features = append(append([]string{}, c.Analysis.FeedbackType...), c.Layout().GenderColumn)
	m.Target = c.Analysis.ModelTarget
	if c.Analysis.ModelThreshold > 0 {
		m.Threshold = c.Analysis.ModelThreshold
	}
	if c.Analysis.TestFraction > 0 {
		m.TestFraction = c.Analysis.TestFraction
	}
	if c.Analysis.Seed != 0 {
		m.Seed = c.Analysis.Seed
	}
	return m
}

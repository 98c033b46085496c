package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyloom-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SurveyLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		s := cfg.Survey
		fmt.Printf("studies_dir: %s\n", cfg.StudiesDir)
		fmt.Printf("scale_points: %d\n", cfg.ScalePoints)
		fmt.Printf("survey.id_column: %s\n", s.IDColumn)
		fmt.Printf("survey.time_column: %s\n", s.TimeColumn)
		fmt.Printf("survey.score_column: %s\n", s.ScoreColumn)
		fmt.Printf("survey.discipline_column: %s\n", s.DisciplineColumn)
		fmt.Printf("survey.gender_column: %s\n", s.GenderColumn)
		if len(s.ItemColumns) > 0 {
			fmt.Printf("survey.item_columns: %d columns\n", len(s.ItemColumns))
		} else {
			fmt.Printf("survey.exclude_trailing: %d\n", s.ExcludeTrailing)
		}
		fmt.Printf("survey.reverse_items: %s\n", strings.Join(s.ReverseItems, " | "))
		fmt.Printf("survey.item_range: %d-%d\n", s.ItemMin, s.ItemMax)
		fmt.Printf("quality.dominant_threshold: %d\n", cfg.Quality.DominantThreshold)
		fmt.Printf("quality.run_threshold: %d\n", cfg.Quality.RunThreshold)
		fmt.Printf("quality.scale_to_items: %t\n", cfg.Quality.ScaleToItems)
		fmt.Printf("quality.lenient: %t\n", cfg.Quality.Lenient)
		fmt.Printf("simulate.n: %d\n", cfg.Simulate.N)
		fmt.Printf("simulate.seed: %d\n", cfg.Simulate.Seed)
		if cfg.Simulate.Bandwidth > 0 {
			fmt.Printf("simulate.bandwidth: %.4f\n", cfg.Simulate.Bandwidth)
		} else {
			fmt.Println("simulate.bandwidth: silverman")
		}
		fmt.Printf("simulate.discipline: %s\n", cfg.Simulate.Discipline)
		fmt.Printf("simulate.log_time: %t\n", cfg.Simulate.LogTime)
		a := cfg.Analysis
		fmt.Printf("analysis.groups: teacher_feedback=%d student_perception=%d feedback_type=%d writing_ability=%d expectation=%d\n",
			len(a.TeacherFeedback), len(a.StudentPerception), len(a.FeedbackType), len(a.WritingAbility), len(a.Expectation))
		fmt.Printf("analysis.model_target: %s\n", a.ModelTarget)
		fmt.Printf("analysis.model_threshold: %.2f\n", a.ModelThreshold)
		fmt.Printf("analysis.test_fraction: %.2f\n", a.TestFraction)
		fmt.Printf("analysis.seed: %d\n", a.Seed)
		fmt.Printf("analysis.histogram_bins: %d\n", a.HistogramBins)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "studies_dir":
		c.StudiesDir = val
	case "scale_points":
		i, err := strconv.Atoi(val)
		if err != nil || i < 2 {
			return fmt.Errorf("invalid int for scale_points: %v", val)
		}
		c.ScalePoints = i
	case "survey.id_column":
		c.Survey.IDColumn = val
	case "survey.time_column":
		c.Survey.TimeColumn = val
	case "survey.score_column":
		c.Survey.ScoreColumn = val
	case "survey.discipline_column":
		c.Survey.DisciplineColumn = val
	case "survey.gender_column":
		c.Survey.GenderColumn = val
	case "survey.item_columns":
		c.Survey.ItemColumns = splitList(val)
	case "survey.exclude_trailing":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for survey.exclude_trailing: %v", val)
		}
		c.Survey.ExcludeTrailing = i
	case "survey.reverse_items":
		c.Survey.ReverseItems = splitList(val)
	case "survey.item_min", "survey.item_max":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		if key == "survey.item_min" {
			c.Survey.ItemMin = i
		} else {
			c.Survey.ItemMax = i
		}
	case "quality.dominant_threshold", "quality.run_threshold":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		if key == "quality.dominant_threshold" {
			c.Quality.DominantThreshold = i
		} else {
			c.Quality.RunThreshold = i
		}
	case "quality.scale_to_items":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		c.Quality.ScaleToItems = b
	case "quality.lenient":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		c.Quality.Lenient = b
	case "simulate.n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for simulate.n: %v", val)
		}
		c.Simulate.N = i
	case "simulate.seed", "analysis.seed":
		u, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed for %s: %w", key, err)
		}
		if key == "simulate.seed" {
			c.Simulate.Seed = u
		} else {
			c.Analysis.Seed = u
		}
	case "simulate.bandwidth":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for simulate.bandwidth: %v", val)
		}
		c.Simulate.Bandwidth = f
	case "simulate.discipline":
		c.Simulate.Discipline = val
	case "simulate.log_time":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		c.Simulate.LogTime = b
	case "analysis.teacher_feedback":
		c.Analysis.TeacherFeedback = splitList(val)
	case "analysis.student_perception":
		c.Analysis.StudentPerception = splitList(val)
	case "analysis.feedback_type":
		c.Analysis.FeedbackType = splitList(val)
	case "analysis.writing_ability":
		c.Analysis.WritingAbility = splitList(val)
	case "analysis.expectation":
		c.Analysis.Expectation = splitList(val)
	case "analysis.model_target":
		c.Analysis.ModelTarget = val
	case "analysis.model_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for analysis.model_threshold: %w", err)
		}
		c.Analysis.ModelThreshold = f
	case "analysis.test_fraction":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid fraction for analysis.test_fraction: %v", val)
		}
		c.Analysis.TestFraction = f
	case "analysis.histogram_bins":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for analysis.histogram_bins: %v", val)
		}
		c.Analysis.HistogramBins = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// splitList parses a "|"-separated list; item texts may contain commas.
func splitList(val string) []string {
	out := []string{}
	for _, part := range strings.Split(val, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/study"
)

var (
	listStudies   bool
	listDatasets  bool
	listStudyName string
	listKind      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies or the datasets of a study",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listStudies == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --studies or --datasets")
		}
		if listStudies {
			return listAllStudies()
		}
		if listStudyName == "" {
			return fmt.Errorf("--study is required when using --datasets")
		}
		var kind study.Kind
		if listKind != "" {
			k, err := study.ParseKind(listKind)
			if err != nil {
				return err
			}
			kind = k
		}
		dir, err := resolveStudyDirByName(listStudyName)
		if err != nil {
			return err
		}
		s, err := study.LoadStudy(dir)
		if err != nil {
			return err
		}
		var datasets []*study.Dataset
		for _, d := range s.List() {
			if kind == "" || d.Kind == kind {
				datasets = append(datasets, d)
			}
		}
		if len(datasets) == 0 {
			fmt.Println("(no datasets)")
			return nil
		}
		for _, d := range datasets {
			fmt.Printf("- %s: %s [%s] %d rows x %d cols via %s\n", d.ID, d.Name, d.Kind, d.Rows, d.Columns, d.Command)
			if d.Description != "" {
				fmt.Printf("    %s\n", d.Description)
			}
		}
		return nil
	},
}

func listAllStudies() error {
	root, err := defaultStudiesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if study.Exists(filepath.Join(root, e.Name())) {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no studies)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listStudies, "studies", false, "list studies")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a study")
	listCmd.Flags().StringVarP(&listStudyName, "study", "p", "", "study name for --datasets")
	listCmd.Flags().StringVar(&listKind, "kind", "", "only datasets of this kind: raw | cleaned | simulated | converted | report")
}

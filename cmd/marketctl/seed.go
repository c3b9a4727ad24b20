package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursemarket-backend/internal/app"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

func seedCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load educators and courses from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			seed, err := services.ParseCatalogSeed(f)
			if err != nil {
				return err
			}

			tooling, err := app.NewTooling(false)
			if err != nil {
				return err
			}
			defer tooling.Close()

			report, err := services.ApplyCatalogSeed(cmd.Context(), tooling.DB, tooling.Repos.User, tooling.Repos.Course, seed)
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded educators=%d courses=%d\n", report.Educators, report.Courses)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "catalog YAML file")
	return cmd
}

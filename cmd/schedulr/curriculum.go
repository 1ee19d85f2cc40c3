package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"schedulr/internal/config"
	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"
	"schedulr/internal/service"

	"github.com/spf13/cobra"
)

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Manage curricula",
}

var curriculumImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import subjects and topics from a YAML file for a mentor",
	Example: `  schedulr curriculum import --mentor ms_tanaka --file curriculum.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("mentor")
		path, _ := cmd.Flags().GetString("file")

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening curriculum file: %w", err)
		}
		defer f.Close()

		db, closeDB, err := openDB(cmd, config.Cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := middleware.WithLogger(cmd.Context(), slog.Default().With("command", "curriculum import"))
		mentor, err := repository.NewGormUserRepository().FindByUsername(ctx, db, username)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("mentor %q not found", username)
			}
			return err
		}
		if mentor.Role != model.RoleMentor {
			return fmt.Errorf("user %q is not a mentor", username)
		}

		curriculum := service.NewCurriculumService(db, repository.NewGormSubjectRepository(), repository.NewGormTopicRepository())
		result, err := curriculum.ImportYAML(ctx, mentor.UserID, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "subjects created: %d, subjects updated: %d, topics created: %d, topics skipped: %d\n",
			result.SubjectsCreated, result.SubjectsUpdated, result.TopicsCreated, result.TopicsSkipped)
		return nil
	},
}

func init() {
	curriculumImportCmd.Flags().String("mentor", "", "Username of the mentor who owns the curriculum")
	curriculumImportCmd.Flags().String("file", "", "Path to the curriculum YAML file")
	_ = curriculumImportCmd.MarkFlagRequired("mentor")
	_ = curriculumImportCmd.MarkFlagRequired("file")

	curriculumCmd.AddCommand(curriculumImportCmd)
}

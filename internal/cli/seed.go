package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"profman/internal/config"
	"profman/internal/domain"
	"profman/internal/infra/postgres"
)

// SeedFile is the YAML layout accepted by the seed command.
type SeedFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
	Exams   []domain.Exam `yaml:"exams"`
}

// LoadSeedFile reads and validates quiz and exam definitions from path.
func LoadSeedFile(path string) (SeedFile, error) {
	var seed SeedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, err
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parse seed file: %w", err)
	}
	for _, q := range seed.Quizzes {
		if err := q.Validate(); err != nil {
			return seed, err
		}
	}
	for _, e := range seed.Exams {
		if err := e.Validate(); err != nil {
			return seed, err
		}
	}
	return seed, nil
}

// NewSeedCmd upserts quizzes and exams from a YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes and exams from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			seed, err := LoadSeedFile(file)
			if err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			seeder := postgres.NewSeeder(db)

			ctx := cmd.Context()
			for _, q := range seed.Quizzes {
				if err := seeder.UpsertQuiz(ctx, q); err != nil {
					return err
				}
			}
			for _, e := range seed.Exams {
				if err := seeder.UpsertExam(ctx, e); err != nil {
					return err
				}
			}
			log.Info("seed applied", zap.Int("quizzes", len(seed.Quizzes)), zap.Int("exams", len(seed.Exams)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "config/seed.yaml", "YAML file with quizzes and exams")
	return cmd
}

package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"slidegen/internal/app"
	"slidegen/internal/deck"
	"slidegen/pkg/config"
)

var (
	onceTopic    string
	onceSlides   int
	onceOutput   string
	onceTemplate bool
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Generate a single deck from a topic",
	Long:  `Generate one presentation from a topic and leave it in the output directory.`,
	RunE:  runOnce,
}

func init() {
	onceCmd.Flags().StringVarP(&onceTopic, "topic", "t", "", "Topic for deck generation")
	onceCmd.Flags().IntVarP(&onceSlides, "slides", "n", 5, "Total number of slides")
	onceCmd.Flags().StringVarP(&onceOutput, "output", "o", deck.DefaultOutputPath, "Deck file name")
	onceCmd.Flags().BoolVar(&onceTemplate, "template", false, "Fill the configured template instead of a freeform deck")
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	if onceTopic == "" {
		return errors.New("please provide --topic")
	}

	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	built, err := app.BuildService(ctx, cfg, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()

	pipeline := app.NewPipeline(built.Service)

	slog.Info("Generating deck...", "topic", onceTopic, "slides", onceSlides, "template", onceTemplate)
	result, err := pipeline.FromTopic(ctx, app.TopicRequest{
		Topic:        onceTopic,
		SlideCount:   onceSlides,
		OutputPath:   onceOutput,
		TemplateMode: onceTemplate,
	})
	if err != nil {
		return err
	}

	slog.Info("Deck generated",
		"id", result.ID,
		"path", result.OutputPath,
		"slides", result.Slides,
	)
	if result.ArchiveURL != "" {
		slog.Info("Deck archived", "url", result.ArchiveURL)
	}
	return nil
}

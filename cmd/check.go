package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidegen/internal/deck"
	"slidegen/internal/deck/pptx"
	"slidegen/pkg/config"
)

var checkCmd = &cobra.Command{
	Use:   "check-template [path]",
	Short: "Inspect a template deck for template mode",
	Long: `Report whether a .pptx template has the title slide, content layout and
closing slide that template mode fills. Defaults to template.path from config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		path = cfg.Template.Path
	}

	report, err := deck.Inspect(pptx.NewBackend(), path)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Template " + report.Path))
	fmt.Printf("  slides:  %d\n", report.Slides)
	fmt.Printf("  layouts: %d\n", report.Layouts)
	printCheck("title placeholder on slide 1", report.TitleOnFirst)
	printCheck("content title placeholder", report.ContentTitle)
	printCheck("content body placeholder", report.ContentBody)
	printCheck("content picture placeholder", report.ContentPicture)
	printCheck("closing slide", report.HasClosing)

	for _, p := range report.Problems {
		fmt.Println(warnStyle.Render("! " + p))
	}

	if !report.Usable() {
		return fmt.Errorf("%w: %s cannot be used in template mode", deck.ErrTemplateStructure, report.Path)
	}
	fmt.Println(successStyle.Render("✓ Template is usable"))
	return nil
}

func printCheck(label string, ok bool) {
	if ok {
		fmt.Println(successStyle.Render("  ✓ " + label))
		return
	}
	fmt.Println(infoStyle.Render("  - " + label))
}

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// envOrder fixes the order keys are written to .env.
var envOrder = []string{
	"LLM_PROVIDER",
	"LLM_HOST",
	"LLM_PORT",
	"MODEL",
	"OPENAI_API_KEY",
	"GROQ_API_KEY",
	"GEMINI_API_KEY",
	"DEEPSEEK_API_KEY",
	"IMAGE_API_KEY",
	"GOOGLE_SEARCH_API_KEY",
	"GOOGLE_SEARCH_ENGINE_ID",
	"GOOGLE_CLOUD_PROJECT",
	"GOOGLE_CLOUD_LOCATION",
	"GCS_BUCKET",
}

type setupChoices struct {
	env         map[string]string
	provider    string
	images      bool
	imageSource string
	gcsBucket   string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Slidegen",
	Long:  `Choose a language model provider, store API keys, create directories and write config.yaml.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("📊 Slidegen Setup"))

	choices := &setupChoices{env: make(map[string]string)}

	steps := []struct {
		name string
		fn   func(*setupChoices) error
	}{
		{"Creating directories", createDirectories},
		{"Choosing language model", configureLLM},
		{"Configuring images", configureImages},
		{"Configuring Google Cloud", configureGCP},
		{"Writing environment", writeEnvFile},
		{"Writing config", writeConfigFile},
	}

	for _, step := range steps {
		if err := step.fn(choices); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func createDirectories(c *setupChoices) error {
	dirs := []string{"uploads", "output", "templates", "static"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureLLM(c *setupChoices) error {
	if err := huh.NewSelect[string]().
		Title("Language model provider").
		Options(
			huh.NewOption("Local or hosted OpenAI-compatible server", "openai"),
			huh.NewOption("DeepSeek", "deepseek"),
			huh.NewOption("Groq", "groq"),
			huh.NewOption("Gemini", "gemini"),
		).
		Value(&c.provider).
		Run(); err != nil {
		return err
	}
	c.env["LLM_PROVIDER"] = c.provider

	switch c.provider {
	case "openai":
		return configureOpenAI(c.env)
	case "deepseek":
		return askKey(c.env, "DEEPSEEK_API_KEY", "DeepSeek API Key", "https://platform.deepseek.com/api_keys", true)
	case "groq":
		return askKey(c.env, "GROQ_API_KEY", "GROQ API Key", "https://console.groq.com/keys", true)
	case "gemini":
		return askKey(c.env, "GEMINI_API_KEY", "Gemini API Key", "Leave empty to use Vertex AI with GOOGLE_CLOUD_PROJECT", false)
	}
	return nil
}

func configureOpenAI(env map[string]string) error {
	host, port, model, key := "http://localhost", "8080", "Llama3", ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model server host").
				Description("Scheme and host of the OpenAI-compatible server").
				Value(&host).
				Validate(required("Host")),
			huh.NewInput().
				Title("Model server port").
				Value(&port),
			huh.NewInput().
				Title("Model name").
				Value(&model),
			huh.NewInput().
				Title("API Key").
				Description("Optional for local servers").
				EchoMode(huh.EchoModePassword).
				Value(&key),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["LLM_HOST"] = strings.TrimSpace(host)
	env["LLM_PORT"] = strings.TrimSpace(port)
	env["MODEL"] = strings.TrimSpace(model)
	env["OPENAI_API_KEY"] = strings.TrimSpace(key)
	return nil
}

func configureImages(c *setupChoices) error {
	if err := huh.NewConfirm().
		Title("Add an image to each slide?").
		Description("Generated by an image model or found with Google Custom Search (optional)").
		Value(&c.images).
		Run(); err != nil {
		return err
	}

	if !c.images {
		return nil
	}

	if err := huh.NewSelect[string]().
		Title("Image source").
		Options(
			huh.NewOption("Generate with an OpenAI-compatible image model", "generate"),
			huh.NewOption("Search Google Custom Search", "search"),
		).
		Value(&c.imageSource).
		Run(); err != nil {
		return err
	}

	if c.imageSource == "generate" {
		return askKey(c.env, "IMAGE_API_KEY", "Image API Key", "Leave empty to reuse OPENAI_API_KEY", false)
	}

	fmt.Println(infoStyle.Render(`
To create Custom Search credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "API Key"
3. Go to https://programmablesearchengine.google.com/
4. Create a search engine with image search on and copy the Search Engine ID
`))

	if err := askKey(c.env, "GOOGLE_SEARCH_API_KEY", "Google Search API Key", "", true); err != nil {
		return err
	}

	var engineID string
	if err := huh.NewInput().
		Title("Search Engine ID").
		Value(&engineID).
		Validate(required("Search Engine ID")).
		Run(); err != nil {
		return err
	}
	c.env["GOOGLE_SEARCH_ENGINE_ID"] = strings.TrimSpace(engineID)
	return nil
}

func configureGCP(c *setupChoices) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Used for Gemini on Vertex AI, Secret Manager and deck archiving to GCS").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := getOrCreateGCPProject()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}

	c.env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	if err := setupArchiveBucket(c, project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Archive bucket skipped: %v", err)))
	}

	return nil
}

func getOrCreateGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Create new project", "new"),
	}

	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	switch choice {
	case "new":
		return createGCPProject()
	case "manual":
		var projectID string
		if err := huh.NewInput().
			Title("Project ID").
			Value(&projectID).
			Run(); err != nil {
			return "", err
		}
		return projectID, nil
	default:
		return choice, nil
	}
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func createGCPProject() (string, error) {
	var projectID string
	if err := huh.NewInput().
		Title("New Project ID").
		Description("Must be globally unique, 6-30 chars, lowercase letters, digits, hyphens").
		Placeholder("slidegen-12345").
		Value(&projectID).
		Validate(func(s string) error {
			if len(s) < 6 || len(s) > 30 {
				return fmt.Errorf("must be 6-30 characters")
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}

	err := runWithSpinner("Creating project", func() error {
		return runSetupCmd("gcloud", "projects", "create", projectID)
	})
	if err != nil {
		return "", err
	}

	_ = runSetupCmd("gcloud", "config", "set", "project", projectID)

	return projectID, nil
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"aiplatform.googleapis.com",
		"customsearch.googleapis.com",
		"storage.googleapis.com",
		"secretmanager.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func setupArchiveBucket(c *setupChoices, project string) error {
	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket for generated decks").
		Description("Leave empty to keep decks on local disk only").
		Placeholder(project + "-decks").
		Value(&bucket).
		Run(); err != nil {
		return err
	}

	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil
	}

	err := runWithSpinner("Creating bucket", func() error {
		return runSetupCmd("gcloud", "storage", "buckets", "create", "gs://"+bucket, "--project", project)
	})
	if err != nil {
		return err
	}

	c.gcsBucket = bucket
	c.env["GCS_BUCKET"] = bucket
	return nil
}

func askKey(env map[string]string, key, title, description string, mandatory bool) error {
	var value string
	input := huh.NewInput().
		Title(title).
		Description(description).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if mandatory {
		input = input.Validate(required(title))
	}
	if err := input.Run(); err != nil {
		return err
	}

	if value = strings.TrimSpace(value); value != "" {
		env[key] = value
	}
	return nil
}

func writeEnvFile(c *setupChoices) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	if err := os.WriteFile(".env", []byte(renderEnv(c.env)), 0600); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created .env file"))
	return nil
}

func renderEnv(env map[string]string) string {
	var b strings.Builder
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, val)
		}
	}
	return b.String()
}

func writeConfigFile(c *setupChoices) error {
	if _, err := os.Stat("config.yaml"); err == nil {
		fmt.Println(infoStyle.Render("Kept existing config.yaml"))
		return nil
	}

	data, err := renderConfig(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile("config.yaml", data, 0644); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created config.yaml"))
	return nil
}

func renderConfig(c *setupChoices) ([]byte, error) {
	images := map[string]any{"enabled": c.images}
	if c.imageSource != "" {
		images["source"] = c.imageSource
	}

	cfg := map[string]any{
		"llm":      map[string]any{"provider": c.provider},
		"images":   images,
		"template": map[string]any{"path": "templates/template.pptx"},
		"storage":  map[string]any{"upload_dir": "./uploads", "output_dir": "./output"},
		"cleanup":  map[string]any{"enabled": true, "schedule": "@hourly", "max_age": "24h"},
		"history":  map[string]any{"enabled": true, "path": "./slidegen.db"},
	}
	if c.gcsBucket != "" {
		cfg["gcs"] = map[string]any{"enabled": true, "bucket": c.gcsBucket}
	}
	return yaml.Marshal(cfg)
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Replace templates/template.pptx with your own deck, or keep the bundled one")
	fmt.Println("  2. Check it with: slidegen check-template")
	fmt.Println("  3. Run: slidegen once -t \"your topic\" -n 5")
	fmt.Println("  4. Or serve the API: slidegen serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

// Package main provides the entry point for the isabel CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/trastamara/isabel-chat/internal/backend"
	"github.com/trastamara/isabel-chat/internal/export"
	"github.com/trastamara/isabel-chat/internal/speech"
	"github.com/trastamara/isabel-chat/internal/transcript"
	"github.com/trastamara/isabel-chat/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	backendURL   string
	topK         int
	style        string
	width        uint
	mouse        bool
	coverTitle   string
	institution  string
	student      string
	logoPath     string
	outDir       string
	speechEngine string
	speechVoice  string
	piperModel   string
	askPDF       bool

	rootCmd = &cobra.Command{
		Use:   "isabel",
		Short: "Chat with Isabel I of Castile on the CLI",
		Long: paragraph(
			fmt.Sprintf("\nChat with %s, a tutor that answers from her own documents, right from your terminal.", keyword("Isabel I de Castilla")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// if the user wants to specify a config file, let 'em
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("unable to read config file: %w", err)
				}
			}
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}

	askCmd = &cobra.Command{
		Use:   "ask [QUESTION]",
		Short: "Ask a single question and print the answer",
		Long: paragraph(
			fmt.Sprintf("\n%s one question without opening the chat session. The question can also be piped in on stdin.", keyword("Ask")),
		),
		Example: paragraph("isabel ask \"¿En qué año llegó Colón a América?\"\necho \"¿Quién fue Tomás de Torquemada?\" | isabel ask"),
		Args:    cobra.ArbitraryArgs,
		RunE:    executeAsk,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Check whether the answering server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			client := backend.New(backendURL)
			info, err := client.Health(context.Background())
			if err != nil {
				fmt.Println(ui.StatusUnavailable)
				return err
			}
			fmt.Println(ui.StatusConnected(info.Model))
			return nil
		},
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style, _ = homedir.Expand(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	backendURL = viper.GetString("backend")
	topK = viper.GetInt("topk")
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	coverTitle = viper.GetString("export.title")
	institution = viper.GetString("export.institution")
	student = viper.GetString("export.student")
	logoPath = viper.GetString("export.logo")
	outDir = viper.GetString("export.dir")
	speechEngine = viper.GetString("speech.engine")
	speechVoice = viper.GetString("speech.voice")
	piperModel = viper.GetString("speech.piper.model")

	u, err := url.ParseRequestURI(backendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%q is not a valid backend URL", backendURL)
	}

	if topK < 1 {
		return fmt.Errorf("sources per question must be at least 1, got %d", topK)
	}

	if speechEngine != "" && speechEngine != "auto" {
		known := false
		for _, name := range speech.KnownEngines() {
			if speechEngine == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown speech engine %q (known: %s)",
				speechEngine, strings.Join(speech.KnownEngines(), ", "))
		}
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func executeAsk(_ *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))

	// if stdin is a pipe then read the question from stdin
	if question == "" {
		if yes, err := stdinIsPipe(); err != nil {
			return err
		} else if yes {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("unable to read from stdin: %w", err)
			}
			question = strings.TrimSpace(string(b))
		}
	}
	if question == "" {
		return errors.New("missing question")
	}

	client := backend.New(backendURL)
	resp, err := client.Chat(context.Background(), question, topK)
	if err != nil {
		return err
	}

	if err := printAnswer(os.Stdout, resp); err != nil {
		return err
	}

	if askPDF {
		return writeAskTranscript(question, resp)
	}
	return nil
}

func printAnswer(w io.Writer, resp *backend.ChatResponse) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStylePath(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(resp.Answer)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	if _, err := fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}

	if len(resp.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "  Fuentes:")
	for _, s := range resp.Sources {
		line := "  • " + s.Filename
		if s.Page > 0 {
			line += fmt.Sprintf(" · pág. %d", s.Page)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func writeAskTranscript(question string, resp *backend.ChatResponse) error {
	convo := transcript.New()
	convo.Append(transcript.RoleUser, question)
	convo.Append(transcript.RoleAssistant, resp.Answer)
	convo.SetCitations(resp.Citations())

	ex := export.New(export.Options{
		Title:       coverTitle,
		Institution: institution,
		Student:     student,
		LogoPath:    logoPath,
	})

	dir, err := homedir.Expand(outDir)
	if err != nil {
		return fmt.Errorf("unable to expand output dir: %w", err)
	}
	if dir == "" {
		dir = "."
	}

	path := filepath.Join(dir, export.Filename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create file: %w", err)
	}
	pages, err := ex.WriteTo(f, convo.Turns(), convo.Citations())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("unable to write transcript: %w", err)
	}

	fmt.Printf("Transcripción guardada en: %s (%d páginas)\n", path, pages)
	return nil
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the resolved flag value if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.BackendURL = backendURL
	cfg.TopK = topK
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	cfg.Title = coverTitle
	cfg.Institution = institution
	cfg.Student = student
	cfg.LogoPath = logoPath
	cfg.OutDir = outDir

	cfg.SpeechEngine = speechEngine
	cfg.SpeechVoice = speechVoice
	if piperModel != "" {
		cfg.PiperModel = piperModel
	}
	if bin := viper.GetString("speech.piper.bin"); bin != "" {
		cfg.PiperBin = bin
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&backendURL, "backend", "b", "http://localhost:8000", "base URL of the answering server")
	rootCmd.PersistentFlags().IntVarP(&topK, "topk", "k", backend.DefaultTopK, "number of sources to retrieve per question")
	rootCmd.PersistentFlags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.PersistentFlags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.PersistentFlags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.PersistentFlags().MarkHidden("mouse")
	rootCmd.PersistentFlags().StringVar(&coverTitle, "title", "", "title on the exported transcript cover")
	rootCmd.PersistentFlags().StringVar(&institution, "institution", "", "institution line on the exported transcript cover")
	rootCmd.PersistentFlags().StringVar(&student, "student", "", "student line on the exported transcript cover")
	rootCmd.PersistentFlags().StringVar(&logoPath, "logo", "", "image for the exported transcript cover")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", ".", "directory for exported transcripts")
	rootCmd.PersistentFlags().StringVar(&speechEngine, "engine", "auto", "speech engine for reading answers aloud")
	rootCmd.PersistentFlags().StringVar(&speechVoice, "voice", "", "voice passed to the speech engine")
	rootCmd.PersistentFlags().StringVar(&piperModel, "piper-model", "", "piper voice model path")

	askCmd.Flags().BoolVar(&askPDF, "pdf", false, "also export the answer as a PDF transcript")

	// Config bindings
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("topk", rootCmd.PersistentFlags().Lookup("topk"))
	_ = viper.BindPFlag("style", rootCmd.PersistentFlags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.PersistentFlags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.PersistentFlags().Lookup("mouse"))
	_ = viper.BindPFlag("export.title", rootCmd.PersistentFlags().Lookup("title"))
	_ = viper.BindPFlag("export.institution", rootCmd.PersistentFlags().Lookup("institution"))
	_ = viper.BindPFlag("export.student", rootCmd.PersistentFlags().Lookup("student"))
	_ = viper.BindPFlag("export.logo", rootCmd.PersistentFlags().Lookup("logo"))
	_ = viper.BindPFlag("export.dir", rootCmd.PersistentFlags().Lookup("out"))
	_ = viper.BindPFlag("speech.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("speech.voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("speech.piper.model", rootCmd.PersistentFlags().Lookup("piper-model"))

	viper.SetDefault("backend", "http://localhost:8000")
	viper.SetDefault("topk", backend.DefaultTopK)
	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("export.dir", ".")
	viper.SetDefault("speech.engine", "auto")
	viper.SetDefault("speech.piper.bin", "piper")

	rootCmd.AddCommand(askCmd, statusCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "isabel")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "isabel")}, dirs...)
	}

	if c := os.Getenv("ISABEL_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("isabel")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("isabel")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if viper.ConfigFileUsed() != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if configFile == "" {
		configFile = filepath.Join(dirs[0], "isabel.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

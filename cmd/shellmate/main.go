package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"shellmate/internal/adapter/shell"
	"shellmate/internal/adapter/tui/assist"
	"shellmate/internal/domain"
	"shellmate/internal/infra/config"
	"shellmate/internal/infra/logger"
	"shellmate/internal/infra/tracer"
	"shellmate/internal/usecase"
)

func main() {
	args := os.Args[1:]

	if len(args) >= 1 {
		switch args[0] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		if err := run(args); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch args[0] {
	case "ask":
		if err := runAsk(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "ask: %v\n", err)
			os.Exit(1)
		}
	case "doctor":
		if err := runDoctor(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
			os.Exit(1)
		}
	case "encrypt":
		if err := runEncrypt(args[1:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "encrypt: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'shellmate --help' for usage information.\n", args[0])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`shellmate - turn plain-language requests into shell commands

USAGE:
    shellmate [COMMAND] [FLAGS]

COMMANDS:
    ask QUERY...    Generate one command, confirm it on stdin, run it
    doctor          Run health checks on your setup
    encrypt VALUE   Print the enc:... form of a secret (needs SHELLMATE_CONFIG_KEY)

    (no command) - Start the interactive assistant

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./shellmate.yaml)
    --provider NAME    Generator backend (responses, fixture)
    --model NAME       Model name (e.g. gpt-4o-mini)
    --endpoint URL     Responses endpoint URL
    -y, --yes          ask: run the command without prompting

CONFIGURATION:
    Config file: ./shellmate.yaml (optional)
    Environment: SHELLMATE_* variables override config
    Credential:  OPENAI_API_KEY, or the variable named by llm.api_key_env

EXAMPLES:
    shellmate                                  # Interactive assistant
    shellmate ask list files in this folder    # One-shot
    shellmate --provider fixture               # Offline demo backend
    shellmate doctor                           # Check setup`)
}

// cliFlags holds flags that override the loaded config.
type cliFlags struct {
	ConfigPath string
	Provider   string
	Model      string
	Endpoint   string
	Yes        bool
	Rest       []string // non-flag arguments, in order
}

// parseFlags extracts the known flags from args. Anything else is kept in
// Rest.
func parseFlags(args []string) cliFlags {
	var flags cliFlags
	value := func(i int, name string) (string, int, bool) {
		switch {
		case args[i] == name && i+1 < len(args):
			return args[i+1], i + 1, true
		case strings.HasPrefix(args[i], name+"="):
			return strings.TrimPrefix(args[i], name+"="), i, true
		}
		return "", i, false
	}

	for i := 0; i < len(args); i++ {
		var v string
		var ok bool
		if v, i, ok = value(i, "--config"); ok {
			flags.ConfigPath = v
			continue
		}
		if v, i, ok = value(i, "--provider"); ok {
			flags.Provider = v
			continue
		}
		if v, i, ok = value(i, "--model"); ok {
			flags.Model = v
			continue
		}
		if v, i, ok = value(i, "--endpoint"); ok {
			flags.Endpoint = v
			continue
		}
		if args[i] == "-y" || args[i] == "--yes" {
			flags.Yes = true
			continue
		}
		flags.Rest = append(flags.Rest, args[i])
	}
	return flags
}

// configPath resolves the config file: --config, then SHELLMATE_CONFIG,
// then the default.
func configPath(flags cliFlags) string {
	if flags.ConfigPath != "" {
		return flags.ConfigPath
	}
	if p := os.Getenv("SHELLMATE_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath
}

// loadConfig loads the config file and applies CLI flag overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath(flags))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigLoad, err)
	}
	if flags.Provider == "" && flags.Model == "" && flags.Endpoint == "" {
		return cfg, nil
	}
	if flags.Provider != "" {
		cfg.LLM.Provider = flags.Provider
	}
	if flags.Model != "" {
		cfg.LLM.Model = flags.Model
	}
	if flags.Endpoint != "" {
		cfg.LLM.Endpoint = flags.Endpoint
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigLoad, err)
	}
	return cfg, nil
}

// app bundles the wired components shared by every entry point.
type app struct {
	log       *slog.Logger
	generator domain.CommandGenerator
	session   *usecase.Session
}

// setup wires logger, tracer, generator, executor and session from cfg.
// The returned cleanup flushes the tracer and closes the log file.
func setup(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		logCloser()
		return nil, nil, fmt.Errorf("tracer: %w", err)
	}
	cleanup := func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
		logCloser()
	}

	llmComp, err := initLLM(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("llm: %w", err)
	}

	executor := shell.NewLocalExecutor(log,
		shell.WithShell(cfg.Shell.Path),
		shell.WithWorkDir(cfg.Shell.WorkDir),
		shell.WithTimeout(cfg.Shell.Timeout),
	)

	session := usecase.NewSession(usecase.SessionDeps{
		Generator:    llmComp.Generator,
		Executor:     executor,
		Persona:      cfg.Prompt.Persona,
		Instructions: cfg.Prompt.Instructions,
		Model:        cfg.LLM.Model,
		Logger:       log,
	})

	log.Info("shellmate starting",
		"provider", llmComp.Generator.Name(),
		"model", cfg.LLM.Model,
		"shell", executor.Shell(),
		"circuit_breaker", cfg.LLM.CircuitBreaker.Enabled,
	)

	return &app{
		log:       log,
		generator: llmComp.Generator,
		session:   session,
	}, cleanup, nil
}

// run starts the interactive assistant.
func run(args []string) error {
	flags := parseFlags(args)
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	model := assist.NewModel(ctx, assist.Deps{
		Session:       a.session,
		Style:         cfg.UI.Style,
		ModelName:     cfg.LLM.Model,
		GeneratorName: a.generator.Name(),
		Logger:        a.log,
	})

	var opts []tea.ProgramOption
	opts = append(opts, tea.WithContext(ctx))
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	a.log.Info("shellmate stopped")
	return nil
}

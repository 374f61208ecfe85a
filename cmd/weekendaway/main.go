package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/treadly55/weekend-away-event-finder/internal/agent"
	"github.com/treadly55/weekend-away-event-finder/internal/gateway"
	"github.com/treadly55/weekend-away-event-finder/internal/governance"
	"github.com/treadly55/weekend-away-event-finder/internal/observability"
	"github.com/treadly55/weekend-away-event-finder/internal/tools"
	"github.com/treadly55/weekend-away-event-finder/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file (.json, .yaml or .toml)")
	city := flag.String("city", "Sydney, AU", "City to search, e.g. \"Melbourne, AU\"")
	when := flag.String("when", "today", "Timeframe: today or tomorrow")
	bot := flag.Bool("telegram", false, "Run as a Telegram bot instead of a one-shot search")
	verbose := flag.Bool("verbose", false, "Log full prompts and responses")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.NewLogger(cfg.App.LogDir)
	if *verbose || cfg.App.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	reasoner, err := newReasoner(cfg)
	if err != nil {
		log.Fatal(err)
	}

	policy, err := governance.NewPolicyEngine(cfg.Governance.DeniedTools, cfg.Governance.DeniedArguments)
	if err != nil {
		log.Fatal(err)
	}

	registry := tools.NewDefaultRegistry(cfg.Tools, logger.Component("tools"))
	prompts := agent.NewPromptManager(cfg.Agent.PromptsDir)

	brain := agent.NewBrain(reasoner, registry, prompts, policy, logger)
	brain.MaxTurns = cfg.Agent.MaxTurns

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *bot {
		// -telegram turns the gateway on even when only TELEGRAM_TOKEN is set.
		if g, ok := cfg.Gateways["telegram"]; ok {
			g.Enabled = true
			cfg.Gateways["telegram"] = g
		}
		runBot(ctx, stop, cfg, brain, logger)
		return
	}

	tf, err := agent.ResolveTimeframe(*when, time.Now())
	if err != nil {
		log.Fatal(err)
	}

	var session agent.Session
	if !session.TryStart() {
		log.Fatal("a search is already running")
	}
	defer session.Done()

	answer := brain.RunAgent(ctx, *city, tf.EventKey, tf.WeatherDate, func(msg string) {
		log.Printf("[progress] %s", msg)
	})
	fmt.Println(answer)
}

// loadConfig falls back to environment-only configuration when the default
// config file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config file %s not found, using environment", path)
		return config.FromEnv(), nil
	}
	return cfg, err
}

func newReasoner(cfg *config.Config) (agent.Reasoner, error) {
	pName, pCfg := cfg.GetDefaultProvider()
	switch pName {
	case "":
		return nil, fmt.Errorf("no enabled provider found in config")
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return agent.NewLLMReasoner(llm, pName, pCfg.GetTemperature()), nil
	default:
		return agent.NewGollmReasoner(pName, pCfg.APIKey, pCfg.Model, pCfg.GetTemperature())
	}
}

func runBot(ctx context.Context, stop context.CancelFunc, cfg *config.Config, brain *agent.Brain, logger *observability.Logger) {
	tgCfg, ok := cfg.GetTelegramConfig()
	if !ok {
		log.Fatal("Telegram gateway is not enabled or token is missing")
	}

	tg, err := gateway.NewTelegramGateway(tgCfg.Token, brain, logger.Component("telegram"))
	if err != nil {
		log.Fatal(err)
	}

	var messenger gateway.Messenger = tg
	go func() {
		if err := messenger.Start(); err != nil {
			log.Printf("gateway error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	_ = messenger.Stop()
	log.Println("shutting down")
}

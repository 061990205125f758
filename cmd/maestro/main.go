// Command maestro runs the marketing pipeline behind the JSON HTTP API.
//
// All collaborators are constructed here and injected into the stages;
// anything unconfigured degrades to its fallback so a bare development
// machine can still exercise the full chain.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sashabaranov/go-openai"

	"github.com/maestroia/maestro-go/agents"
	"github.com/maestroia/maestro-go/billing"
	"github.com/maestroia/maestro-go/config"
	"github.com/maestroia/maestro-go/embeddings"
	"github.com/maestroia/maestro-go/httpapi"
	"github.com/maestroia/maestro-go/ledger"
	"github.com/maestroia/maestro-go/llm"
	"github.com/maestroia/maestro-go/maestro"
	"github.com/maestroia/maestro-go/memory"
	"github.com/maestroia/maestro-go/observability"
	"github.com/maestroia/maestro-go/pipeline"
	"github.com/maestroia/maestro-go/social"
	"github.com/maestroia/maestro-go/store"
	"github.com/maestroia/maestro-go/tokenstore"
	"github.com/maestroia/maestro-go/trends"
)

func main() {
	if err := run(); err != nil {
		slog.Error("maestro exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observability.ConfigureLogging(logLevel(cfg.LogLevel), cfg.Environment == "production", true)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" || cfg.TraceStdout {
		tp, err := observability.InitTracing("maestro", cfg.OTLPEndpoint, cfg.TraceStdout)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	var pipelineMetrics *observability.PipelineMetrics
	if cfg.MetricsEnable {
		mp, err := observability.InitMetrics("maestro")
		if err != nil {
			return err
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
		pipelineMetrics, err = observability.NewPipelineMetrics()
		if err != nil {
			return err
		}
	}

	model, label, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	generator := llm.NewResilientLLM(model, label)

	embedder := buildEmbedder(cfg)
	mem := memory.New(memory.NewVectorStore(embedder))

	var trendsProvider trends.Provider
	if cfg.TrendsBaseURL != "" {
		trendsProvider = trends.NewHTTPProvider(cfg.TrendsBaseURL)
	}
	summarizer := trends.NewSummarizer(trendsProvider)

	var meta *social.MetaClient
	var publisher agents.Publisher
	if cfg.MetaAppID != "" {
		meta = social.NewMetaClient(cfg.MetaAppID, cfg.MetaAppSecret, cfg.MetaPageID, cfg.MetaAccessToken)
		publisher = meta
	}

	var approver agents.Approver
	if !cfg.RequireHumanApproval {
		approver = func(context.Context, *maestro.CampaignState) bool { return true }
	}

	pipe, err := pipeline.Default(
		agents.NewResearch(generator, summarizer, mem),
		agents.NewStrategy(generator),
		agents.NewContent(generator),
		agents.NewPublish(generator, publisher),
		agents.NewOptimize(generator, nil),
		agents.NewConduct(approver),
		pipeline.WithLogger(logger),
		pipeline.WithTracer(observability.Tracer("maestro.pipeline")),
		pipeline.WithMetrics(pipelineMetrics),
	)
	if err != nil {
		return err
	}

	books, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer books.Close()

	history, err := store.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	var tokens *tokenstore.RedisStore
	if cfg.RedisURL != "" {
		tokens, err = tokenstore.New(cfg.RedisURL, "")
		if err != nil {
			return err
		}
		defer tokens.Close()
	}

	var payments *billing.Processor
	if cfg.PaymentAccessToken != "" {
		gateway := billing.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentAccessToken)
		payments = billing.NewProcessor(gateway, func(ctx context.Context, email string, plan billing.Plan) error {
			return books.ActivatePlan(ctx, email, string(plan))
		})
	}

	opts := httpapi.Options{
		History:         history,
		Meta:            meta,
		Billing:         payments,
		MetaRedirectURI: cfg.MetaRedirectURI,
		MaxRunsPerUser:  cfg.MaxCampaignsPerUser,
		Logger:          logger,
	}
	if tokens != nil {
		opts.Tokens = tokens
	}

	server := httpapi.NewServer(cfg.HTTPAddr, pipe, opts)
	server.Start()

	<-ctx.Done()
	logger.Info("shutting down")
	return server.Stop(context.Background())
}

func buildLLM(ctx context.Context, cfg *config.Config) (llm.LLM, string, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "groq":
		return llm.NewOpenAICompatibleLLM(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.DefaultModel), "groq", nil
	case "gemini":
		model, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.DefaultModel)
		if err != nil {
			return nil, "", err
		}
		return model, "gemini", nil
	default:
		return llm.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.DefaultModel), "openai", nil
	}
}

func buildEmbedder(cfg *config.Config) embeddings.Provider {
	hash := embeddings.NewHashProvider(cfg.EmbeddingDim)
	if cfg.OpenAIAPIKey == "" {
		return hash
	}
	primary := embeddings.NewOpenAIProvider(openai.NewClient(cfg.OpenAIAPIKey))
	return embeddings.NewFallbackProvider(primary, hash)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

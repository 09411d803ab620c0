package main

import (
	"fmt"
	"log/slog"

	"github.com/arturoeanton/storyline/internal/adapter/ai"
	"github.com/arturoeanton/storyline/internal/adapter/cache"
	"github.com/arturoeanton/storyline/internal/adapter/guidance"
	"github.com/arturoeanton/storyline/internal/adapter/prompt"
	"github.com/arturoeanton/storyline/internal/adapter/store"
	"github.com/arturoeanton/storyline/internal/mcp"
	"github.com/arturoeanton/storyline/internal/middleware"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/arturoeanton/storyline/pkg/config"
)

// deps holds everything the commands need, built once from Config.
type deps struct {
	pg      *store.PostgresStore
	vectors *store.VectorStore
	redis   *cache.RedisVectorCache

	activities   *service.ActivityService
	profiles     *service.ProfileService
	applications *service.ApplicationService
	chats        *service.ChatService
	embeddings   *service.EmbeddingService
	retriever    *service.Retriever
	guidance     *service.GuidanceService

	mcp *mcp.Server
}

// Close releases connections held by d.
func (d *deps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.pg != nil {
		_ = d.pg.Close()
	}
}

func openStore(cfg *config.Config) (*deps, error) {
	pg, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &deps{pg: pg, vectors: store.NewVectorStore(pg, cfg.EmbeddingDimension)}, nil
}

func build(cfg *config.Config) (*deps, error) {
	d, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	provider, embeddingModel, err := newProvider(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}

	prompts, err := prompt.Load(cfg.PromptsDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	var vectorCache port.VectorCache
	if cfg.RedisURL != "" {
		d.redis, err = cache.NewRedisVectorCache(cfg.RedisURL, cfg.EmbedCacheTTL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		vectorCache = d.redis
	}

	expander := service.NewExpander(provider, prompts)
	d.retriever = service.NewRetriever(expander, provider, d.vectors, d.vectors, vectorCache, embeddingModel)
	d.embeddings = service.NewEmbeddingService(service.NewTracker(d.vectors), expander, provider, d.vectors)

	match := guidance.Retrieval{Threshold: cfg.MatchThreshold, TopK: cfg.MatchCount}
	recommend := guidance.Retrieval{Threshold: cfg.RecommendThreshold, TopK: cfg.RecommendCount}
	engine := port.NewGuidanceEngine(
		guidance.NewAnalyzeStrategy(d.retriever, match),
		guidance.NewQuestionGuidelineStrategy(d.retriever, provider, prompts, match),
		guidance.NewRecommendStrategy(d.retriever, provider, prompts, recommend),
		guidance.NewEditorGuidelineStrategy(d.retriever, provider, prompts, match),
	)
	d.guidance = service.NewGuidanceService(engine, d.vectors)

	d.activities = service.NewActivityService(d.pg)
	d.profiles = service.NewProfileService(d.pg)
	d.applications = service.NewApplicationService(d.pg)
	d.chats = service.NewChatService(d.pg, d.pg, provider, prompts, cfg.ChatHistoryLimit, cfg.ChatSuggestionLimit)

	if cfg.MCPEnabled {
		d.mcp = mcp.NewServer(d.retriever, d.embeddings, d.pg, jwtConfig(cfg),
			mcp.Defaults{Threshold: cfg.MatchThreshold, TopK: cfg.MatchCount}, version)
	}
	return d, nil
}

// newProvider returns the configured AI backend wrapped with the retry
// policy, and the name of its embedding model.
func newProvider(cfg *config.Config) (port.AIProvider, string, error) {
	var (
		p     port.AIProvider
		model string
	)
	switch cfg.AIProvider {
	case "ollama":
		p = ai.NewOllamaProvider(
			ai.OllamaEndpointConfig{BaseURL: cfg.OllamaEmbedURL, Model: cfg.OllamaEmbedModel, Token: cfg.OllamaEmbedToken},
			ai.OllamaEndpointConfig{BaseURL: cfg.OllamaChatURL, Model: cfg.OllamaChatModel, Token: cfg.OllamaChatToken},
		)
		model = cfg.OllamaEmbedModel
	default:
		op, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.OpenAIChatModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
		})
		if err != nil {
			return nil, "", fmt.Errorf("create openai provider: %w", err)
		}
		p = op
		model = cfg.OpenAIEmbeddingModel
	}

	slog.Info("AI provider ready", "provider", cfg.AIProvider, "model", p.ModelName(), "embedding_model", model)
	return ai.WithRetry(p, ai.RetryPolicy{
		MaxRetries: cfg.ProviderMaxRetries,
		BaseDelay:  cfg.ProviderRetryDelay,
		Timeout:    cfg.ProviderTimeout,
	}), model, nil
}

func jwtConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}
}

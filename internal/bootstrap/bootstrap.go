// Package bootstrap assembles the service graph shared by the HTTP server and the Lambda entrypoint.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/database"
	"github.com/ieltsgenai/prep-api/internal/repository"
	"github.com/ieltsgenai/prep-api/internal/rubric"
	"github.com/ieltsgenai/prep-api/internal/safety"
	"github.com/ieltsgenai/prep-api/internal/scoring"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/pkg/ai"
)

// mockModelPrefix selects the canned-response provider instead of Bedrock, e.g. "mock:nova-micro".
const mockModelPrefix = "mock:"

// Container holds the assembled services and the resources that must be closed on shutdown.
type Container struct {
	Assessments service.AssessmentService
	Rubrics     service.RubricService
	Summary     service.SafetySummary
	Scorer      *scoring.Scorer
	DB          *gorm.DB

	closers []func()
}

// Close releases broker, cache and database connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build connects the optional infrastructure named in cfg and wires the services.
// Empty database, redis or nats URLs disable persistence, caching and events respectively.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (_ *Container, err error) {
	container := &Container{}
	defer func() {
		if err != nil {
			container.Close()
		}
	}()

	source, err := loadRubrics(cfg.RubricFile)
	if err != nil {
		return nil, err
	}

	scorer, err := NewScorer(ctx, cfg, source, logger)
	if err != nil {
		return nil, err
	}
	container.Scorer = scorer

	var (
		assessmentRepo repository.AssessmentRepository
		auditRepo      repository.SafetyAuditRepository
	)
	sinks := safety.MultiSink{safety.NewLogSink(logger)}
	if cfg.DatabaseURL != "" {
		db, err := container.openDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		assessmentRepo = repository.NewAssessmentRepository(db)
		auditRepo = repository.NewSafetyAuditRepository(db)
		sinks = append(sinks, service.NewSafetyAuditRecorder(auditRepo))
		container.Summary = service.NewSafetySummaryService(auditRepo)
	} else {
		logger.Warn().Msg("database url not set, assessment history and safety audit persistence disabled")
	}

	var cache service.ResultCache
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			return nil, err
		}
		container.closers = append(container.closers, func() { _ = client.Close() })
		cache = service.NewRedisResultCache(client, cfg.Scoring.CacheTTL, logger)
	}

	events := service.NewNATSEventPublisher(nil, cfg.EventSubjectBase, logger)
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			return nil, err
		}
		container.closers = append(container.closers, func() { _ = conn.Drain() })
		events = service.NewNATSEventPublisher(conn, cfg.EventSubjectBase, logger)
	}

	validatorCfg := safety.Config{MaxInputChars: cfg.MaxInputChars, MaxOutputChars: cfg.MaxOutputChars}
	contentValidator := safety.NewValidator(validatorCfg, sinks, logger)

	container.Assessments = service.NewAssessmentService(service.AssessmentDeps{
		Safety:   contentValidator,
		Scorer:   scorer,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
		Cache:    cache,
		Repo:     assessmentRepo,
		Events:   events,
		Logger:   logger,
		NodeID:   nodeID(),
	})
	container.Rubrics = service.NewRubricService(source)

	return container, nil
}

// openDatabase connects and migrates the database. The connection is registered for
// Close as soon as it opens so a failed migration does not leak it.
func (c *Container) openDatabase(url string) (*gorm.DB, error) {
	db, err := database.Connect(url)
	if err != nil {
		return nil, err
	}
	c.DB = db
	if sqlDB, err := db.DB(); err == nil {
		c.closers = append(c.closers, func() { _ = sqlDB.Close() })
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewScorer builds the writing and speaking fallback chains from cfg.
func NewScorer(ctx context.Context, cfg config.Config, source rubric.Source, logger zerolog.Logger) (*scoring.Scorer, error) {
	invokers := map[string]ai.Invoker{}
	model := func(id string) (ai.Invoker, error) {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, nil
		}
		if inv, ok := invokers[id]; ok {
			return inv, nil
		}
		inv, err := newPrimaryInvoker(ctx, cfg.AWSRegion, id)
		if err != nil {
			return nil, err
		}
		inv = ai.Instrument(inv, logger)
		invokers[id] = inv
		return inv, nil
	}

	secondary, err := ai.NewSecondary(ctx, ai.SecondaryConfig{
		Provider:  cfg.Scoring.SecondaryProvider,
		Model:     cfg.Scoring.SecondaryModel,
		OpenAI:    ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey},
		Anthropic: ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey},
		Gemini:    ai.GeminiConfig{APIKey: cfg.GeminiAPIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("secondary provider: %w", err)
	}
	if secondary != nil {
		secondary = ai.Instrument(secondary, logger)
	}

	chain := func(primaryID, fallbackID string) (scoring.Chain, error) {
		primary, err := model(primaryID)
		if err != nil {
			return scoring.Chain{}, err
		}
		fallback, err := model(fallbackID)
		if err != nil {
			return scoring.Chain{}, err
		}
		return scoring.Chain{
			Primary:   primary,
			Fallback1: fallback,
			Fallback2: secondary,
			Timeout:   cfg.Scoring.ModelTimeout,
		}, nil
	}

	writing, err := chain(cfg.Scoring.WritingPrimaryModel, cfg.Scoring.WritingFallbackModel)
	if err != nil {
		return nil, fmt.Errorf("writing chain: %w", err)
	}
	speaking, err := chain(cfg.Scoring.SpeakingPrimaryModel, cfg.Scoring.SpeakingFallbackModel)
	if err != nil {
		return nil, fmt.Errorf("speaking chain: %w", err)
	}

	return scoring.NewScorer(source, scoring.ChainSet{Writing: writing, Speaking: speaking}, scoring.Options{
		MaxTokens:   cfg.Scoring.MaxTokens,
		Temperature: cfg.Scoring.Temperature,
		BandWindow:  cfg.Scoring.BandWindow,
	}, logger), nil
}

func newPrimaryInvoker(ctx context.Context, region, id string) (ai.Invoker, error) {
	if strings.HasPrefix(id, mockModelPrefix) {
		mock := ai.NewMockProvider(strings.TrimPrefix(id, mockModelPrefix), ai.MockResponse{Text: ai.MockScoringResponse})
		mock.Repeat = true
		return mock, nil
	}
	return ai.NewBedrockProvider(ctx, ai.BedrockConfig{Region: region, Model: id})
}

func loadRubrics(path string) (rubric.Source, error) {
	if path == "" {
		return rubric.NewStaticSource(), nil
	}
	source, err := rubric.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("rubric file %q not found: %w", path, err)
		}
		return nil, err
	}
	return source, nil
}

func nodeID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/models"
	"github.com/ieltsgenai/prep-api/internal/repository"
	"github.com/ieltsgenai/prep-api/internal/safety"
	"github.com/ieltsgenai/prep-api/internal/scoring"
)

var (
	// ErrAssessmentNotFound indicates no stored assessment matches the id.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrPersistenceDisabled is returned by read operations when no database is configured.
	ErrPersistenceDisabled = errors.New("assessment persistence disabled")
	// ErrInvalidSubmission covers task numbers and contexts that do not fit the assessment type.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// ContentValidator is the safety gate used around model calls.
type ContentValidator interface {
	ValidateUserInput(ctx context.Context, text string, assessmentContext models.AssessmentContext) (bool, string, models.SafetyReport)
	ValidateModelOutput(ctx context.Context, text string, assessmentContext models.AssessmentContext) (bool, string, models.SafetyReport)
}

// Scorer turns a submission into a ScoreResult.
type Scorer interface {
	Rubric(t models.AssessmentType) (models.Rubric, error)
	Score(ctx context.Context, submission models.Submission, rubric models.Rubric) (models.ScoreResult, error)
}

// AssessmentService runs the safety, scoring and persistence pipeline.
type AssessmentService interface {
	Assess(ctx context.Context, req dto.AssessmentRequest) (dto.AssessmentResponse, error)
	AssessWritingTasks(ctx context.Context, req dto.WritingTasksRequest) (dto.WritingTasksResponse, error)
	Get(ctx context.Context, id string) (dto.AssessmentResponse, error)
	History(ctx context.Context, userID uint, limit int) ([]dto.AssessmentResponse, error)
	CheckSafety(ctx context.Context, req dto.SafetyCheckRequest) (dto.SafetyCheckResponse, error)
}

// AssessmentDeps groups optional collaborators. Nil cache, repo or events disable that step.
type AssessmentDeps struct {
	Safety   ContentValidator
	Scorer   Scorer
	Validate *validator.Validate
	Cache    ResultCache
	Repo     repository.AssessmentRepository
	Events   EventPublisher
	Logger   zerolog.Logger
	NodeID   string
	Clock    func() time.Time
}

type assessmentService struct {
	safety   ContentValidator
	scorer   Scorer
	validate *validator.Validate
	cache    ResultCache
	repo     repository.AssessmentRepository
	events   EventPublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	nodeID   string
	now      func() time.Time
}

// NewAssessmentService constructs the assessment pipeline.
func NewAssessmentService(deps AssessmentDeps) AssessmentService {
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.Events == nil {
		deps.Events = nopPublisher{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &assessmentService{
		safety:   deps.Safety,
		scorer:   deps.Scorer,
		validate: deps.Validate,
		cache:    deps.Cache,
		repo:     deps.Repo,
		events:   deps.Events,
		logger:   deps.Logger.With().Str("component", "assessment_service").Logger(),
		tracer:   otel.Tracer("github.com/ieltsgenai/prep-api/internal/service/assessment"),
		nodeID:   deps.NodeID,
		now:      deps.Clock,
	}
}

func (s *assessmentService) Assess(ctx context.Context, req dto.AssessmentRequest) (dto.AssessmentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.AssessmentResponse{}, err
	}
	assessmentType, _ := models.ParseAssessmentType(req.AssessmentType)
	return s.assess(ctx, assessmentType, req.TaskNumber, req.Text, req.UserID)
}

func (s *assessmentService) AssessWritingTasks(ctx context.Context, req dto.WritingTasksRequest) (dto.WritingTasksResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.WritingTasksResponse{}, err
	}
	assessmentType, _ := models.ParseAssessmentType(req.AssessmentType)

	var response dto.WritingTasksResponse
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		task1, err := s.assess(groupCtx, assessmentType, 1, req.Task1Text, req.UserID)
		response.Task1 = task1
		return err
	})
	group.Go(func() error {
		task2, err := s.assess(groupCtx, assessmentType, 2, req.Task2Text, req.UserID)
		response.Task2 = task2
		return err
	})
	if err := group.Wait(); err != nil {
		return dto.WritingTasksResponse{}, err
	}

	response.OverallBand = scoring.CombineWritingTasks(response.Task1.OverallBand, response.Task2.OverallBand)
	return response, nil
}

func (s *assessmentService) assess(ctx context.Context, assessmentType models.AssessmentType, taskNumber int, text string, userID uint) (dto.AssessmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assessments.assess", trace.WithAttributes(
		attribute.String("assessment.type", string(assessmentType)),
		attribute.Int("assessment.task_number", taskNumber),
	))
	defer span.End()

	rubric, err := s.scorer.Rubric(assessmentType)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	if err := models.ValidateTaskNumber(assessmentType, taskNumber); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	assessmentContext := models.AssessmentContext(assessmentType)
	ok, sanitized, inputReport := s.safety.ValidateUserInput(ctx, text, assessmentContext)
	if !ok {
		s.publishRejection(ctx, inputReport)
		span.SetStatus(codes.Error, "content rejected")
		return dto.AssessmentResponse{}, safety.Reject(inputReport)
	}

	submission, err := models.NewSubmission(assessmentType, taskNumber, sanitized)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	cacheKey := ResultCacheKey(submission, rubric.Version, userID)
	if replay, ok := s.cachedResponse(ctx, cacheKey); ok {
		replay.CacheHit = true
		s.logger.Debug().Str("assessment_id", replay.ID).Msg("replaying stored assessment")
		span.SetAttributes(
			attribute.String("assessment.id", replay.ID),
			attribute.Bool("assessment.cache_hit", true),
		)
		return replay, nil
	}

	result, err := s.scorer.Score(ctx, submission, rubric)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.AssessmentResponse{}, err
	}

	feedbackSanitized, err := s.screenFeedback(ctx, &result, assessmentContext)
	if err != nil {
		span.SetStatus(codes.Error, "feedback rejected")
		return dto.AssessmentResponse{}, err
	}

	response := toAssessmentResponse(submission, result, s.now().UTC())
	response.InputSanitized = inputReport.Sanitized
	response.FeedbackSanitized = feedbackSanitized

	if s.persist(ctx, response, submission, userID) && s.cache != nil {
		s.cache.Set(ctx, cacheKey, response)
	}
	s.events.Publish(ctx, TopicAssessmentScored, AssessmentScoredEvent{
		Source:         s.nodeID,
		AssessmentID:   response.ID,
		UserID:         userID,
		AssessmentType: response.AssessmentType,
		TaskNumber:     response.TaskNumber,
		OverallBand:    response.OverallBand,
		ModelUsed:      response.ModelUsed,
		ParseDegraded:  response.ParseDegraded,
		ScoredAt:       response.CreatedAt,
	})

	span.SetAttributes(
		attribute.String("assessment.id", response.ID),
		attribute.String("assessment.model_used", response.ModelUsed),
		attribute.Float64("assessment.overall_band", response.OverallBand),
		attribute.Bool("assessment.cache_hit", false),
	)
	return response, nil
}

func (s *assessmentService) cachedResponse(ctx context.Context, key string) (dto.AssessmentResponse, bool) {
	if s.cache == nil {
		return dto.AssessmentResponse{}, false
	}
	return s.cache.Get(ctx, key)
}

// screenFeedback runs the output gate over every piece of generated text.
func (s *assessmentService) screenFeedback(ctx context.Context, result *models.ScoreResult, assessmentContext models.AssessmentContext) (bool, error) {
	sanitizedAny := false
	check := func(text string) (string, error) {
		if text == "" {
			return text, nil
		}
		ok, sanitized, report := s.safety.ValidateModelOutput(ctx, text, assessmentContext)
		if !ok {
			s.publishRejection(ctx, report)
			return "", safety.Reject(report)
		}
		if report.Sanitized {
			sanitizedAny = true
		}
		return sanitized, nil
	}

	detailed, err := check(result.DetailedFeedback)
	if err != nil {
		return false, err
	}
	result.DetailedFeedback = detailed

	for i := range result.Criteria {
		feedback, err := check(result.Criteria[i].Feedback)
		if err != nil {
			return false, err
		}
		result.Criteria[i].Feedback = feedback
	}
	return sanitizedAny, nil
}

// persist stores the assessment and reports whether it may be replayed.
func (s *assessmentService) persist(ctx context.Context, response dto.AssessmentResponse, submission models.Submission, userID uint) bool {
	if s.repo == nil {
		return true
	}
	criteria, err := json.Marshal(response.Criteria)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode criteria")
		return false
	}
	record := models.AssessmentRecord{
		ID:               response.ID,
		UserID:           userID,
		AssessmentType:   response.AssessmentType,
		TaskNumber:       response.TaskNumber,
		WordCount:        response.WordCount,
		TextDigest:       TextDigest(submission.Text),
		OverallBand:      response.OverallBand,
		OverallDeclared:  response.OverallDeclared,
		Criteria:         datatypes.JSON(criteria),
		DetailedFeedback: response.DetailedFeedback,
		ModelUsed:        response.ModelUsed,
		ParseDegraded:    response.ParseDegraded,
		CreatedAt:        response.CreatedAt,
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), &record); err != nil {
		s.logger.Error().Err(err).Str("assessment_id", response.ID).Msg("failed to persist assessment")
		return false
	}
	return true
}

func (s *assessmentService) publishRejection(ctx context.Context, report models.SafetyReport) {
	s.events.Publish(ctx, TopicContentRejected, ContentRejectedEvent{
		Source:        s.nodeID,
		CorrelationID: safety.CorrelationID(ctx),
		Stage:         report.Stage,
		Context:       report.Context,
		Category:      report.Category,
		Confidence:    report.Confidence,
		RejectedAt:    s.now().UTC(),
	})
}

func (s *assessmentService) Get(ctx context.Context, id string) (dto.AssessmentResponse, error) {
	if s.repo == nil {
		return dto.AssessmentResponse{}, ErrPersistenceDisabled
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}
	return recordToResponse(record)
}

func (s *assessmentService) History(ctx context.Context, userID uint, limit int) ([]dto.AssessmentResponse, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	records, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.AssessmentResponse, 0, len(records))
	for _, record := range records {
		response, err := recordToResponse(record)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *assessmentService) CheckSafety(ctx context.Context, req dto.SafetyCheckRequest) (dto.SafetyCheckResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.SafetyCheckResponse{}, err
	}
	assessmentContext, ok := models.ParseAssessmentContext(req.Context)
	if !ok {
		return dto.SafetyCheckResponse{}, fmt.Errorf("%w: unknown context %q", ErrInvalidSubmission, req.Context)
	}

	var report models.SafetyReport
	if models.SafetyStage(req.Stage) == models.StageOutput {
		_, _, report = s.safety.ValidateModelOutput(ctx, req.Text, assessmentContext)
	} else {
		_, _, report = s.safety.ValidateUserInput(ctx, req.Text, assessmentContext)
	}

	signals := report.Signals
	if signals == nil {
		signals = []string{}
	}
	return dto.SafetyCheckResponse{
		IsSafe:        report.IsSafe,
		SanitizedText: report.SanitizedText,
		Category:      report.Category,
		Confidence:    report.Confidence,
		Stage:         report.Stage,
		Context:       report.Context,
		Sanitized:     report.Sanitized,
		Signals:       signals,
	}, nil
}

func toAssessmentResponse(submission models.Submission, result models.ScoreResult, createdAt time.Time) dto.AssessmentResponse {
	criteria := make([]dto.CriterionScoreResponse, 0, len(result.Criteria))
	for _, criterion := range result.Criteria {
		criteria = append(criteria, dto.CriterionScoreResponse{
			Key:      criterion.Key,
			Name:     criterion.Name,
			Band:     criterion.Band,
			Feedback: criterion.Feedback,
		})
	}
	return dto.AssessmentResponse{
		ID:               submission.ID,
		AssessmentType:   submission.Type,
		TaskNumber:       submission.TaskNumber,
		WordCount:        submission.WordCount,
		OverallBand:      result.OverallBand,
		OverallDeclared:  result.OverallDeclared,
		Criteria:         criteria,
		DetailedFeedback: result.DetailedFeedback,
		ModelUsed:        result.ModelUsed,
		ParseDegraded:    result.ParseDegraded,
		CreatedAt:        createdAt,
	}
}

func recordToResponse(record models.AssessmentRecord) (dto.AssessmentResponse, error) {
	var criteria []dto.CriterionScoreResponse
	if len(record.Criteria) > 0 {
		if err := json.Unmarshal(record.Criteria, &criteria); err != nil {
			return dto.AssessmentResponse{}, fmt.Errorf("decode criteria of assessment %s: %w", record.ID, err)
		}
	}
	return dto.AssessmentResponse{
		ID:               record.ID,
		AssessmentType:   record.AssessmentType,
		TaskNumber:       record.TaskNumber,
		WordCount:        record.WordCount,
		OverallBand:      record.OverallBand,
		OverallDeclared:  record.OverallDeclared,
		Criteria:         criteria,
		DetailedFeedback: record.DetailedFeedback,
		ModelUsed:        record.ModelUsed,
		ParseDegraded:    record.ParseDegraded,
		CreatedAt:        record.CreatedAt,
	}, nil
}

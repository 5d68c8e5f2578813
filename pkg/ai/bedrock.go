package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

// Bedrock model identifiers for the Nova family. Sonic only serves the bidirectional
// audio stream, so it cannot back a Converse provider.
const (
	ModelNovaSonic = "amazon.nova-sonic-v1:0"
	ModelNovaPro   = "amazon.nova-pro-v1:0"
	ModelNovaLite  = "amazon.nova-lite-v1:0"
	ModelNovaMicro = "amazon.nova-micro-v1:0"
)

// ErrStreamingOnlyModel is returned for model ids that Converse cannot invoke.
var ErrStreamingOnlyModel = errors.New("model only supports the bidirectional streaming api")

// BedrockConfig configures a Bedrock Converse provider.
type BedrockConfig struct {
	Region string
	Model  string
}

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider invokes AWS Bedrock models through the Converse API.
type BedrockProvider struct {
	client converseAPI
	model  string
}

// NewBedrockProvider loads the default AWS credential chain and builds a provider.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("bedrock model id is required")
	}
	if streamingOnly(cfg.Model) {
		return nil, fmt.Errorf("bedrock model %s: %w", cfg.Model, ErrStreamingOnlyModel)
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewBedrockProviderWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg.Model), nil
}

// NewBedrockProviderWithClient wires an existing Converse client, mostly for tests.
func NewBedrockProviderWithClient(client converseAPI, model string) *BedrockProvider {
	return &BedrockProvider{client: client, model: model}
}

func streamingOnly(model string) bool {
	return strings.Contains(strings.ToLower(model), "nova-sonic")
}

func (p *BedrockProvider) ModelID() string {
	return p.model
}

func (p *BedrockProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	req = applyDefaults(req)

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.model),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.UserContent}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(req.MaxTokens)),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if req.SystemPrompt != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.SystemPrompt}}
	}

	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return Response{}, newInvocationError("bedrock", p.model, bedrockErrorKind(err), err)
	}

	text := extractBedrockText(out)
	if strings.TrimSpace(text) == "" {
		return Response{}, newInvocationError("bedrock", p.model, KindInvalidResponse, errors.New("empty completion"))
	}

	resp := Response{Text: text, Model: p.model}
	if out.Usage != nil {
		resp.Usage = Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}
	return resp, nil
}

func extractBedrockText(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}

	var builder strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			builder.WriteString(text.Value)
		}
	}
	return builder.String()
}

func bedrockErrorKind(err error) ErrorKind {
	if kind, ok := contextKind(err); ok {
		return kind
	}

	var (
		throttled   *types.ThrottlingException
		quota       *types.ServiceQuotaExceededException
		denied      *types.AccessDeniedException
		modelTO     *types.ModelTimeoutException
		notReady    *types.ModelNotReadyException
		unavailable *types.ServiceUnavailableException
	)
	switch {
	case errors.As(err, &throttled), errors.As(err, &quota):
		return KindQuota
	case errors.As(err, &denied):
		return KindAuth
	case errors.As(err, &modelTO):
		return KindTimeout
	case errors.As(err, &notReady), errors.As(err, &unavailable):
		return KindUnavailable
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
			return KindAuth
		case "ValidationException":
			// Bedrock answers with a validation error when the model is not
			// enabled for the account or does not support Converse.
			return KindAuth
		}
	}
	return KindOther
}

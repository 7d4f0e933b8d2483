package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLMClient talks to Bedrock through the Converse API.
type BedrockLLMClient struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockLLMClient(api bedrockConverseAPI, modelID string) *BedrockLLMClient {
	if api == nil {
		panic("conversation: bedrock converse client cannot be nil")
	}
	return &BedrockLLMClient{api: api, modelID: strings.TrimSpace(modelID)}
}

func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.modelID
	}
	if model == "" {
		return LLMResponse{}, errors.New("conversation: bedrock model id is required")
	}

	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		var role brtypes.ConversationRole
		switch msg.Role {
		case ChatRoleSystem:
			systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: content})
			continue
		case ChatRoleUser:
			role = brtypes.ConversationRoleUser
		case ChatRoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return LLMResponse{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("conversation: bedrock requires at least one message")
	}

	var inference *brtypes.InferenceConfiguration
	if req.MaxTokens > 0 || req.Temperature >= 0 {
		inference = &brtypes.InferenceConfiguration{}
		if req.MaxTokens > 0 {
			inference.MaxTokens = aws.Int32(req.MaxTokens)
		}
		if req.Temperature >= 0 {
			inference.Temperature = aws.Float32(req.Temperature)
		}
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(model),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: bedrock converse: %w", err)
	}

	text, err := bedrockExtractOutputText(out)
	if err != nil {
		return LLMResponse{}, err
	}

	resp := LLMResponse{
		Text:       strings.TrimSpace(text),
		StopReason: string(out.StopReason),
	}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			InputTokens:  int32OrZero(out.Usage.InputTokens),
			OutputTokens: int32OrZero(out.Usage.OutputTokens),
			TotalTokens:  int32OrZero(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

func bedrockExtractOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("conversation: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("conversation: bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	if strings.TrimSpace(builder.String()) == "" {
		return "", errors.New("conversation: bedrock response contained no text content blocks")
	}
	return builder.String(), nil
}

func int32OrZero(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

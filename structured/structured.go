package structured

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/llm"
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain forces the model to answer through a single tool whose arguments decode into TOutput.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
	Options       []model.Option
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
	opts ...model.Option,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
		Options:       opts,
	}, nil
}

// Invoke returns the decoded tool arguments together with the raw argument text.
func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, string, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("build prompt failed: %w", err)
	}

	opts := append([]model.Option{
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	}, s.Options...)
	response, err := s.ChatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("call model failed: %w", err)
	}
	if response == nil || len(response.ToolCalls) == 0 {
		content := ""
		if response != nil {
			content = response.Content
		}
		return nil, content, fmt.Errorf("no ToolCall found in model response: %s", content)
	}

	raw := response.ToolCalls[0].Function.Arguments
	args, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, raw, fmt.Errorf("ToolCall arguments are not a JSON object")
	}
	var result TOutput
	if err := sonic.UnmarshalString(args, &result); err != nil {
		return nil, raw, fmt.Errorf("parse ToolCall arguments failed: %w", err)
	}
	return &result, raw, nil
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}

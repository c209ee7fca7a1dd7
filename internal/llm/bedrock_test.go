package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrock struct {
	converseIn  *bedrockruntime.ConverseInput
	converseOut *bedrockruntime.ConverseOutput
	converseErr error

	invokeBodies [][]byte
	invokeOut    []byte
	invokeErr    error
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.converseIn = in
	return f.converseOut, f.converseErr
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.invokeBodies = append(f.invokeBodies, in.Body)
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.invokeOut}, nil
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(4),
			TotalTokens:  aws.Int32(14),
		},
	}
}

func TestBedrockComplete(t *testing.T) {
	api := &fakeBedrock{converseOut: textOutput("The Lead object has 42 fields.")}
	client := NewBedrockClient(api, BedrockConfig{ModelID: "anthropic.claude-3-haiku"})

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"be brief", " "},
		Prompt:      "How many fields on Lead?",
		Temperature: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "The Lead object has 42 fields.", resp.Text)
	assert.Equal(t, int32(14), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.converseIn)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.converseIn.ModelId))
	assert.Len(t, api.converseIn.System, 1)
	assert.Nil(t, api.converseIn.InferenceConfig)
	require.Len(t, api.converseIn.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.converseIn.Messages[0].Role)
}

func TestBedrockCompleteErrors(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		client := NewBedrockClient(&fakeBedrock{}, BedrockConfig{})
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		assert.Error(t, err)
	})
	t.Run("empty prompt", func(t *testing.T) {
		client := NewBedrockClient(&fakeBedrock{}, BedrockConfig{ModelID: "m"})
		_, err := client.Complete(context.Background(), Request{Prompt: "  "})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})
	t.Run("upstream failure", func(t *testing.T) {
		boom := errors.New("throttled")
		client := NewBedrockClient(&fakeBedrock{converseErr: boom}, BedrockConfig{ModelID: "m"})
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		assert.ErrorIs(t, err, boom)
	})
	t.Run("blank output", func(t *testing.T) {
		client := NewBedrockClient(&fakeBedrock{converseOut: textOutput("   ")}, BedrockConfig{ModelID: "m"})
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})
}

func TestBedrockEmbed(t *testing.T) {
	api := &fakeBedrock{invokeOut: []byte(`{"embedding":[0.5,0.25,-1]}`)}
	client := NewBedrockClient(api, BedrockConfig{EmbeddingModelID: "amazon.titan-embed-text-v2:0", Dimensions: 512})

	vectors, err := client.Embed(context.Background(), []string{"a", "b"}, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.5, 0.25, -1}, vectors[0])

	require.Len(t, api.invokeBodies, 2)
	var body map[string]any
	require.NoError(t, json.Unmarshal(api.invokeBodies[0], &body))
	assert.Equal(t, "a", body["inputText"])
	assert.Equal(t, float64(512), body["dimensions"])
}

func TestBedrockEmbedRequestBody(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		dimensions int
		want       any
	}{
		{name: "titan v2 accepted size", model: "amazon.titan-embed-text-v2:0", dimensions: 1024, want: float64(1024)},
		{name: "titan v2 unsupported size", model: "amazon.titan-embed-text-v2:0", dimensions: 768},
		{name: "titan v1 fixed size", model: "amazon.titan-embed-text-v1", dimensions: 768},
		{name: "zero dimensions", model: "amazon.titan-embed-text-v2:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeBedrock{invokeOut: []byte(`{"embedding":[1]}`)}
			client := NewBedrockClient(api, BedrockConfig{EmbeddingModelID: tt.model, Dimensions: tt.dimensions})

			_, err := client.Embed(context.Background(), []string{"Lead"}, TaskRetrievalQuery)
			require.NoError(t, err)
			require.Len(t, api.invokeBodies, 1)

			var body map[string]any
			require.NoError(t, json.Unmarshal(api.invokeBodies[0], &body))
			assert.Equal(t, "Lead", body["inputText"])
			dims, ok := body["dimensions"]
			if tt.want == nil {
				assert.False(t, ok, "dimensions should be omitted, got %v", dims)
				return
			}
			assert.Equal(t, tt.want, dims)
		})
	}
}

func TestBedrockEmbeddingDimensions(t *testing.T) {
	assert.Equal(t, []int{256, 512, 1024}, BedrockEmbeddingDimensions("amazon.titan-embed-text-v2:0"))
	assert.Nil(t, BedrockEmbeddingDimensions("amazon.titan-embed-text-v1"))
	assert.Nil(t, BedrockEmbeddingDimensions(""))
}

func TestBedrockEmbedEmptyVector(t *testing.T) {
	client := NewBedrockClient(&fakeBedrock{invokeOut: []byte(`{"embedding":[]}`)}, BedrockConfig{EmbeddingModelID: "m"})
	_, err := EmbedOne(context.Background(), client, "a", TaskRetrievalQuery)
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestNewBedrockClientPanicsOnNilAPI(t *testing.T) {
	assert.Panics(t, func() { NewBedrockClient(nil, BedrockConfig{}) })
}

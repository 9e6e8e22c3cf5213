package ai

import "context"

// EmbeddingAdapter binds the OpenAI-compatible client to one embedding
// model so callers depend only on text-in, vector-out.
type EmbeddingAdapter struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbeddingAdapter(client *OpenAICompatibleClient, cfg EmbeddingConfig) *EmbeddingAdapter {
	return &EmbeddingAdapter{client: client, cfg: cfg}
}

func (a *EmbeddingAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.client.Embed(ctx, a.cfg, text)
}

// ChatAdapter binds the client to one chat model.
type ChatAdapter struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewChatAdapter(client *OpenAICompatibleClient, cfg ChatConfig) *ChatAdapter {
	return &ChatAdapter{client: client, cfg: cfg}
}

func (a *ChatAdapter) Complete(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error) {
	return a.client.Complete(ctx, a.cfg, messages, opts)
}

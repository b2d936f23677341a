package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Embed returns the embedding vector for text using the configured
// embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedding text must not be empty")
	}

	var cfg *genai.EmbedContentConfig
	if c.dimensions > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(c.dimensions))}
	}

	var vector []float32
	err := c.policy.do(ctx, c.logger, "embed content", func(callCtx context.Context) error {
		start := time.Now()
		resp, err := c.models.EmbedContent(callCtx, c.embeddingModel, genai.Text(text), cfg)
		if err == nil {
			vector, err = embeddingValues(resp)
		}
		c.observer.ObserveModelCall("embed", time.Since(start), err)
		return err
	})
	if err != nil {
		return nil, err
	}

	return vector, nil
}

func embeddingValues(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("gemini api returned an empty embedding")
	}

	out := make([]float32, len(values))
	copy(out, values)
	return out, nil
}

package model

import (
	"context"
	"fmt"

	"github.com/relaywire/agentcore/pkg/content"
)

// ReferenceTextHandler is a deterministic, in-process ModelHandlerFunc
// useful for tests and examples: it echoes the "prompt" param back, wrapped
// in a fixed template, and never fails. Concrete model providers are out of
// scope; this is the one handler the module ships to exercise dispatch.
func ReferenceTextHandler(ctx context.Context, rt content.Runtime, params content.ModelParams) (content.ModelResult, error) {
	prompt, _ := params["prompt"].(string)
	return content.ModelResult{
		"text": fmt.Sprintf("[reference-model] %s", prompt),
	}, nil
}

// ReferenceEmbeddingHandler returns a fixed-dimension deterministic
// embedding derived from the input text's length and byte sum, so repeated
// calls with the same text are reproducible without a real embedding model.
func ReferenceEmbeddingHandler(dimension int) content.ModelHandlerFunc {
	return func(ctx context.Context, rt content.Runtime, params content.ModelParams) (content.ModelResult, error) {
		text, _ := params["text"].(string)
		vec := make([]float32, dimension)
		var sum float32
		for _, b := range []byte(text) {
			sum += float32(b)
		}
		seed := sum + float32(len(text))
		for i := range vec {
			vec[i] = float32((int(seed)+i)%97) / 97.0
		}
		return content.ModelResult{"embedding": vec}, nil
	}
}

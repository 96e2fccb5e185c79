package rag

import (
	"fmt"
	"strings"
)

// SystemPrompt steers the completion model toward grounded answers.
const SystemPrompt = "You are a helpful assistant that answers questions based on provided context."

// FallbackAnswer is the reply the prompt instructs the model to give when
// the retrieved context does not contain the answer.
const FallbackAnswer = "I cannot answer this based on the provided context."

const promptTemplate = `Based on the following context, answer the question.
If the answer cannot be found in the context, say "%s"

Context:
%s

Question: %s`

// BuildPrompt assembles the user prompt from the retrieved context passages
// and the question.
func BuildPrompt(query string, contexts []string) string {
	return fmt.Sprintf(promptTemplate, FallbackAnswer, strings.Join(contexts, "\n\n"), query)
}

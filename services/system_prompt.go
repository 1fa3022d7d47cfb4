package services

import (
	"github.com/tmc/langchaingo/prompts"
)

const soapNoteTemplate = `You are a helpful medical AI.

Given context from similar past SOAP notes and a new doctor-patient conversation (question),
write a detailed, structured new SOAP note.

Context (previous SOAP notes):
{{.context}}

New Conversation:
{{.input}}

Generate a new SOAP Note (Subjective, Objective, Assessment, Plan):
`

// GetSOAPNotePrompt returns the prompt template used for every generation. It
// takes two inputs: "context" holds the retrieved notes and "input" the new
// conversation.
func GetSOAPNotePrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(soapNoteTemplate, []string{"context", "input"})
}

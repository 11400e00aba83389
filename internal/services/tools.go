package services

import (
	"github.com/resummate/resummate-backend/internal/platform/gemini"
)

// chatTools declares the server-side capabilities the model may invoke
// mid-generation. The orchestrator resolves any function-call signal through
// the blocking tool path with full thread history attached.
func chatTools() []gemini.FunctionDeclaration {
	return []gemini.FunctionDeclaration{
		{
			Name:        "get_message_history",
			Description: "Gets the message history for a given thread.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"thread_id": map[string]any{
						"type":        "string",
						"description": "The thread ID",
					},
				},
				"required": []string{"thread_id"},
			},
		},
	}
}

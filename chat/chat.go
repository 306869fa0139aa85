// Package chat turns a user instruction into a diagram operation batch via an
// external language model. Only the output contract is owned here; the model
// transport itself is an injected collaborator.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"archboard/diagram"
	"archboard/ops"
	"archboard/store"
)

// transcriptWindow is how many recent messages are replayed into the prompt.
const transcriptWindow = 20

// Assistant is the language-model collaborator. It receives the assembled
// prompt and returns the raw reply text, which should be a JSON array of
// operations but is not guaranteed to be.
type Assistant interface {
	Propose(ctx context.Context, prompt string) (string, error)
}

// Service loads context, asks the assistant for an operation batch, and logs
// both sides of the exchange into the project transcript.
type Service struct {
	assistant Assistant
	store     store.Store
	logger    *zap.Logger
}

// NewService creates a chat service.
func NewService(assistant Assistant, st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{assistant: assistant, store: st, logger: logger}
}

// Request asks the assistant to edit the given project. The reply is parsed
// with full malformed-input recovery: a reply that cannot be recovered comes
// back as an empty batch, not an error. Errors are reserved for missing
// projects and transport failures.
func (s *Service) Request(ctx context.Context, projectID, message string) ([]ops.Operation, string, error) {
	project, err := s.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, "", fmt.Errorf("chat: %w", err)
	}

	transcript, err := s.store.RecentMessages(ctx, projectID, transcriptWindow)
	if err != nil {
		return nil, "", fmt.Errorf("chat: %w", err)
	}

	prompt := BuildPrompt(project, transcript, message)
	reply, err := s.assistant.Propose(ctx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("chat: assistant: %w", err)
	}
	reply = strings.TrimSpace(reply)

	batch := ops.Parse(reply)
	s.logger.Info("assistant reply parsed",
		zap.String("projectID", projectID),
		zap.Int("operations", len(batch)),
		zap.Int("replyBytes", len(reply)),
	)

	// Transcript failures must not lose an otherwise good batch.
	if err := s.store.AppendMessage(ctx, projectID, "user", message); err != nil {
		s.logger.Warn("failed to record user message", zap.Error(err))
	}
	if err := s.store.AppendMessage(ctx, projectID, "assistant", reply); err != nil {
		s.logger.Warn("failed to record assistant message", zap.Error(err))
	}

	return batch, reply, nil
}

// BuildPrompt assembles the system instruction: the current diagram as JSON,
// the recent transcript, and the operation contract the reply must follow.
func BuildPrompt(project *diagram.Project, transcript []store.Message, message string) string {
	diagramJSON, err := json.Marshal(project)
	if err != nil {
		diagramJSON = []byte("{}")
	}

	var history strings.Builder
	if len(transcript) == 0 {
		history.WriteString("No previous messages.")
	} else {
		for i, m := range transcript {
			if i > 0 {
				history.WriteByte('\n')
			}
			history.WriteString(strings.ToUpper(m.Role))
			history.WriteString(": ")
			history.WriteString(m.Content)
		}
	}

	return fmt.Sprintf(`You are an assistant that edits a system design diagram.
The diagram is represented as a JSON "project" with nodes and edges.

Current diagram JSON:
%s

Recent chat:
%s

User will send a new instruction. You MUST respond with a JSON array
of diagram edit operations ONLY. Each operation must have:
- "op": one of "add_node", "update_node", "delete_node", "add_edge", "delete_edge"
- "payload": the data needed to perform the operation.

Do not include explanations, comments, or non-JSON text. JSON only.

USER:
%s`, diagramJSON, history.String(), message)
}

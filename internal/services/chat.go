package services

import (
	"context"
	"fmt"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// languageNames maps supported locale codes to the language the model should
// answer in.
var languageNames = map[string]string{
	"de": "German",
	"fr": "French",
	"it": "Italian",
	"en": "English",
}

// ChatService relays conversation turns to the hosted language model. The
// lifecycle core does not depend on it; it only learns that a turn occurred.
type ChatService struct {
	log    *zap.Logger
	client *genai.Client
	model  string
}

// NewChatService creates the relay client.
func NewChatService(ctx context.Context, log *zap.Logger, cfg config.ChatConfig) (*ChatService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat relay API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat relay client: %w", err)
	}

	return &ChatService{
		log:    log,
		client: client,
		model:  cfg.Model,
	}, nil
}

// Reply forwards the stored conversation plus the new message and returns
// the model's answer.
func (s *ChatService) Reply(ctx context.Context, history []models.ChatMessage, message, language string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == models.ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(language), genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("chat relay failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("chat relay returned an empty reply")
	}
	return text, nil
}

func systemPrompt(language string) string {
	name, ok := languageNames[language]
	if !ok {
		name = "English"
	}
	return fmt.Sprintf(
		"You are a neutral assistant answering questions about upcoming Swiss "+
			"federal ballot proposals. Explain what a proposal says, its arguments "+
			"for and against, and the positions of parliament and committees. "+
			"Never recommend how to vote and never guess facts you are unsure of. "+
			"Answer in %s and keep replies under 150 words.", name)
}

package usecases

import (
	"context"
	"errors"

	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/core/ports"
)

// SystemPrompt scopes the assistant to post-fire ecosystem analysis.
const SystemPrompt = `Eres un asistente especializado en análisis de áreas afectadas por incendios forestales.
Tu función es ayudar a los usuarios a entender las características de lugares donde ya ha pasado el fuego.

Puedes ayudar con:
- Análisis de regeneración vegetal post-incendio
- Evaluación de riesgos de erosión del suelo
- Identificación de especies que pueden recolonizar el área
- Recomendaciones para la restauración del ecosistema
- Análisis de la calidad del suelo después del fuego
- Evaluación de la fauna que puede regresar al área

Responde siempre en español y de manera clara y técnica, pero accesible para diferentes niveles de conocimiento.`

// ChatService drives a streaming completion for a conversation.
type ChatService struct {
	streamer ports.ChatStreamer
	system   string
}

// NewChatService creates a ChatService. An empty systemPrompt selects the
// built-in one.
func NewChatService(streamer ports.ChatStreamer, systemPrompt string) *ChatService {
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	return &ChatService{streamer: streamer, system: systemPrompt}
}

// Stream runs the generation for the given prompt, forwarding each text
// fragment to onDelta. onFinish is invoked exactly once, after the stream
// ends for any reason. Cancellation is not an error: a cancelled context,
// an elapsed deadline, or an onDelta error wrapping domain.ErrStreamClosed
// (the client went away mid-write) all end the stream with Aborted=true
// and a nil return.
func (s *ChatService) Stream(ctx context.Context, prompt []domain.PromptMessage, onDelta func(delta string) error, onFinish func(domain.FinishInfo)) error {
	err := s.streamer.StreamCompletion(ctx, s.system, prompt, onDelta)

	aborted := err != nil && (errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrStreamClosed))
	if onFinish != nil {
		onFinish(domain.FinishInfo{Aborted: aborted})
	}
	if aborted {
		return nil
	}
	return err
}

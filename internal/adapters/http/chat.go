package http

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/pkg/metrics"
)

const defaultChatMaxDuration = 30 * time.Second

// chatRequest is the body posted by the chat frontend: the full conversation
// so far, newest message last.
type chatRequest struct {
	Messages []domain.Message `json:"messages"`
}

// ChatHandler streams an assistant reply as server-sent events using the UI
// message stream protocol. The response starts immediately; text deltas are
// flushed as the model produces them. Client disconnect cancels generation.
func ChatHandler(deps *Dependencies) fiber.Handler {
	maxDuration := deps.ChatMaxDuration
	if maxDuration <= 0 {
		maxDuration = defaultChatMaxDuration
	}

	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		prompt, err := domain.ToPromptMessages(req.Messages)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		requestID, _ := c.Locals("requestid").(string)
		log := slog.Default().With("request_id", requestID)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")
		c.Set("x-vercel-ai-ui-message-stream", "v1")

		// The fasthttp request context outlives the handler return and is
		// cancelled when the client goes away. The fiber.Ctx itself must not
		// be touched inside the stream writer.
		reqCtx := c.Context()
		chat := deps.Chat

		reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithTimeout(reqCtx, maxDuration)
			defer cancel()

			start := time.Now()
			sw := newStreamWriter(w)
			partID := uuid.NewString()

			if err := sw.Start(); err != nil {
				return
			}

			opened := false
			var finished domain.FinishInfo
			streamErr := chat.Stream(ctx, prompt,
				func(delta string) error {
					if !opened {
						if err := sw.TextStart(partID); err != nil {
							return fmt.Errorf("%w: %v", domain.ErrStreamClosed, err)
						}
						opened = true
					}
					metrics.ChatDeltasStreamed.Inc()
					if err := sw.TextDelta(partID, delta); err != nil {
						// A write failure means the client side is gone.
						return fmt.Errorf("%w: %v", domain.ErrStreamClosed, err)
					}
					return nil
				},
				func(info domain.FinishInfo) {
					finished = info
					if info.Aborted {
						log.Info("chat generation aborted",
							"elapsed", time.Since(start).String())
					}
				},
			)

			metrics.ChatStreamDuration.Observe(time.Since(start).Seconds())

			if streamErr != nil {
				log.Error("chat generation failed", "error", streamErr)
				metrics.ChatRequests.WithLabelValues("error").Inc()
				_ = sw.Error("generation failed")
				_ = sw.Done()
				return
			}

			if opened {
				if err := sw.TextEnd(partID); err != nil {
					return
				}
			}
			if err := sw.Finish(); err != nil {
				return
			}
			_ = sw.Done()

			if finished.Aborted {
				metrics.ChatRequests.WithLabelValues("aborted").Inc()
			} else {
				metrics.ChatRequests.WithLabelValues("completed").Inc()
			}
		}))

		return nil
	}
}

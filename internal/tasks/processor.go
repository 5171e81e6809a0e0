package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crcsite/internal/queue"
)

// Sender delivers the site's transactional email. Satisfied by
// mailer.Mailer.
type Sender interface {
	SendContactMessage(ctx context.Context, first, last, message, senderEmail, category string) error
	SendWelcome(ctx context.Context, email string) error
	SendRecovery(ctx context.Context, email, token string) error
}

// Processor executes queued tasks on the worker side. Mail delivery
// failures are returned unacked so the claim loop retries them.
type Processor struct {
	mailer Sender
	client *redis.Client
	stream string
	logger zerolog.Logger
}

func NewProcessor(mailer Sender, client *redis.Client, stream string, logger zerolog.Logger) *Processor {
	return &Processor{
		mailer: mailer,
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := decodeTask(msg.Values)
	if err != nil {
		return fmt.Errorf("decode task: %w", err)
	}

	switch task.Type {
	case queue.TaskContactEmail:
		return p.handleContact(ctx, task)
	case queue.TaskWelcomeEmail:
		return p.handleWelcome(ctx, task)
	case queue.TaskRecoveryEmail:
		return p.handleRecovery(ctx, task)
	case queue.TaskCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

func decodeTask(values map[string]interface{}) (queue.Task, error) {
	var task queue.Task
	payload, ok := values["payload"].(string)
	if !ok {
		return task, fmt.Errorf("missing payload field")
	}
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return task, err
	}
	return task, nil
}

func (p *Processor) handleContact(ctx context.Context, task queue.Task) error {
	if err := p.mailer.SendContactMessage(ctx, task.First, task.Last, task.Message, task.Email, task.Category); err != nil {
		return err
	}
	p.logger.Info().Str("from", task.Email).Msg("contact message delivered")
	return nil
}

func (p *Processor) handleWelcome(ctx context.Context, task queue.Task) error {
	if err := p.mailer.SendWelcome(ctx, task.Email); err != nil {
		return err
	}
	p.logger.Info().Str("email", task.Email).Msg("welcome email delivered")
	return nil
}

func (p *Processor) handleRecovery(ctx context.Context, task queue.Task) error {
	if err := p.mailer.SendRecovery(ctx, task.Email, task.Token); err != nil {
		return err
	}
	p.logger.Info().Str("email", task.Email).Msg("recovery email delivered")
	return nil
}

// handleCleanup trims delivered entries so the stream does not grow
// without bound.
func (p *Processor) handleCleanup(ctx context.Context) error {
	trimmed, err := p.client.XTrimMaxLen(ctx, p.stream, 1000).Result()
	if err != nil {
		return fmt.Errorf("trim stream: %w", err)
	}
	p.logger.Info().Int64("trimmed", trimmed).Msg("mail stream cleanup complete")
	return nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tunebot/internal/domain"
)

const defaultConcurrency = 5

// User-facing texts. Per-request failures are intentionally generic; the
// underlying cause goes to the log.
const (
	msgSearching      = "🔍 Searching for %q on YouTube..."
	msgNoResults      = "❌ No results found for your query."
	msgDownloading    = "🎧 Downloading and converting %q..."
	msgFetchFailed    = "❌ Failed to download the song. Please try again later."
	msgGenericFailure = "❌ An error occurred. Please try again later."
	captionFormat     = "🎶 Here's your song: *%s*"
)

// Pipeline turns an inbound play command into an outbound audio message:
// resolve → fetch → transmit → cleanup, notifying the conversation at each
// stage. The staged file is owned exclusively by the pipeline and removed
// on every exit path once created.
type Pipeline struct {
	resolver    domain.Resolver
	fetcher     domain.Fetcher
	notifier    domain.Notifier
	bus         domain.CommandBus
	stageDir    string
	audioFormat string
	concurrency int
	logger      *slog.Logger
}

// PipelineConfig holds all dependencies and tuning parameters.
type PipelineConfig struct {
	Resolver    domain.Resolver
	Fetcher     domain.Fetcher
	Notifier    domain.Notifier
	Bus         domain.CommandBus
	StageDir    string
	AudioFormat string
	Concurrency int // max parallel commands (default 5)
	Logger      *slog.Logger
}

func New(cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.StageDir == "" {
		cfg.StageDir = os.TempDir()
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	return &Pipeline{
		resolver:    cfg.Resolver,
		fetcher:     cfg.Fetcher,
		notifier:    cfg.Notifier,
		bus:         cfg.Bus,
		stageDir:    cfg.StageDir,
		audioFormat: cfg.AudioFormat,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Run consumes commands from the bus and processes them with bounded
// concurrency. Overlapping commands from the same conversation are not
// serialized; their notifications may interleave.
func (p *Pipeline) Run(ctx context.Context) {
	p.logger.Info("pipeline started", "concurrency", p.concurrency)

	sem := make(chan struct{}, p.concurrency)
	inbound := p.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping")
			return
		case cmd, ok := <-inbound:
			if !ok {
				p.logger.Info("command bus closed, pipeline stopping")
				return
			}
			sem <- struct{}{}
			go func(c domain.Command) {
				defer func() { <-sem }()
				p.Handle(ctx, c)
			}(cmd)
		}
	}
}

// Handle processes a single play command end to end.
func (p *Pipeline) Handle(ctx context.Context, cmd domain.Command) {
	p.logger.Info("processing command",
		"channel", cmd.Channel,
		"chat_id", cmd.ChatID,
		"query", cmd.Query,
	)

	p.notify(ctx, cmd.ChatID, fmt.Sprintf(msgSearching, cmd.Query))

	cand, err := p.resolver.Resolve(ctx, cmd.Query)
	switch {
	case errors.Is(err, domain.ErrNoResults):
		p.notify(ctx, cmd.ChatID, msgNoResults)
		return
	case err != nil:
		p.logger.Error("search failed", "query", cmd.Query, "err", err)
		p.notify(ctx, cmd.ChatID, msgGenericFailure)
		return
	}

	p.notify(ctx, cmd.ChatID, fmt.Sprintf(msgDownloading, cand.Title))

	dest := p.stagePath()
	if err := p.fetcher.Fetch(ctx, cand.URL, dest); err != nil {
		// The fetcher discards its own partial files.
		p.logger.Error("fetch failed", "url", cand.URL, "err", err)
		p.notify(ctx, cmd.ChatID, msgFetchFailed)
		return
	}

	// The staged file exists from here on; remove it on every exit path,
	// including a failed transmission.
	defer p.cleanup(dest)

	caption := fmt.Sprintf(captionFormat, cand.Title)
	if err := p.notifier.SendAudio(ctx, cmd.ChatID, dest, caption); err != nil {
		p.logger.Error("audio delivery failed",
			"chat_id", cmd.ChatID,
			"file", dest,
			"err", err,
		)
		p.notify(ctx, cmd.ChatID, msgGenericFailure)
		return
	}

	p.logger.Info("command completed", "chat_id", cmd.ChatID, "title", cand.Title)
}

// stagePath generates a destination path unique per invocation. The uuid
// component keeps concurrent commands collision-free even within the same
// timestamp tick.
func (p *Pipeline) stagePath() string {
	name := fmt.Sprintf("song_%d_%s.%s", time.Now().UnixNano(), uuid.NewString()[:8], p.audioFormat)
	return filepath.Join(p.stageDir, name)
}

func (p *Pipeline) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove staged file", "path", path, "err", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, chatID, text string) {
	if err := p.notifier.SendText(ctx, chatID, text); err != nil {
		p.logger.Warn("notification failed", "chat_id", chatID, "err", err)
	}
}

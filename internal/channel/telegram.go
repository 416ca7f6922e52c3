package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tunebot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// Callback payloads for the main menu.
const (
	callbackPlayMusic = "play_music"
	callbackHelp      = "help"
)

const (
	welcomeText = "🎵 Welcome to the Music Bot! 🎵\nChoose an option below:"

	playHintText = "To play a song, type: `/play <song name>`\nExample: `/play Shape of You`"

	helpText = "ℹ️ *Help Menu*\n\n" +
		"1. Use `/play <song name>` to download and play music.\n" +
		"2. Ensure to provide a valid song name.\n" +
		"3. For issues, contact the developer.\n\nEnjoy!"
)

// Telegram implements domain.Channel and domain.Notifier for Telegram Bot.
type Telegram struct {
	token     string
	allowFrom []int64 // Allowed user IDs (empty = allow all)
	parseMode string

	bot    *tgbotapi.BotAPI
	bus    domain.CommandBus
	logger *slog.Logger
}

type TelegramConfig struct {
	Token     string
	AllowFrom []string // User IDs as strings
	ParseMode string
	Logger    *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	return &Telegram{
		token:     cfg.Token,
		allowFrom: allowed,
		parseMode: cfg.ParseMode,
		logger:    cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins polling for updates.
func (t *Telegram) Start(ctx context.Context, bus domain.CommandBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

// Stop shuts down the Telegram bot.
// Note: StopReceivingUpdates is already called when ctx is cancelled in Start().
// Calling it twice panics, so Stop() is a no-op.
func (t *Telegram) Stop() error {
	return nil
}

// SendText delivers a plain notification to a conversation.
func (t *Telegram) SendText(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}
	t.sendMessage(id, text)
	return nil
}

// SendAudio uploads a local audio file to a conversation with a caption.
func (t *Telegram) SendAudio(ctx context.Context, chatID string, filePath string, caption string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	audio := tgbotapi.NewAudio(id, tgbotapi.FilePath(filePath))
	audio.Caption = caption
	audio.ParseMode = t.parseMode

	if _, err := t.bot.Send(audio); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		t.sendMessage(chatID, "⛔ Unauthorized. Your user ID is not in the allow list.")
		return
	}

	if update.Message.IsCommand() {
		t.handleCommand(chatID, update.Message)
		return
	}
	// Plain text outside a command is ignored; the menu explains /play.
}

// handleCallback acknowledges every button interaction, then answers the
// known menu payloads. Unrecognized payloads get the ack only.
func (t *Telegram) handleCallback(cq *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cq.ID, "")
	if _, err := t.bot.Request(callback); err != nil {
		t.logger.Warn("callback ack failed", "err", err)
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case callbackPlayMusic:
		t.sendMessage(chatID, playHintText)
	case callbackHelp:
		t.sendMessage(chatID, helpText)
	default:
		t.logger.Debug("unrecognized callback payload", "data", cq.Data)
	}
}

func (t *Telegram) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		welcome := tgbotapi.NewMessage(chatID, welcomeText)
		welcome.ReplyMarkup = mainMenu()
		if _, err := t.bot.Send(welcome); err != nil {
			t.logger.Error("failed to send main menu", "chat_id", chatID, "err", err)
		}
	case "help":
		t.sendMessage(chatID, helpText)
	case "play":
		query := strings.TrimSpace(msg.CommandArguments())
		if query == "" {
			t.sendMessage(chatID, playHintText)
			return
		}
		t.logger.Info("play command received",
			"user_id", msg.From.ID,
			"chat_id", chatID,
			"query", query,
		)
		t.bus.Publish(domain.Command{
			Channel:   t.Name(),
			ChatID:    strconv.FormatInt(chatID, 10),
			SenderID:  strconv.FormatInt(msg.From.ID, 10),
			Query:     query,
			Timestamp: time.Unix(int64(msg.Date), 0),
		})
	default:
		t.sendMessage(chatID, "Unknown command. Type /help for available commands.")
	}
}

// mainMenu is the static two-option inline keyboard shown on /start.
func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎶 Play Music", callbackPlayMusic),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", callbackHelp),
		),
	)
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true // Empty list = allow all
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Telegram) sendMessage(chatID int64, text string) {
	// Telegram has a 4096 char limit per message
	for _, chunk := range splitMessage(text, telegramMaxMsgLen) {
		t.sendChunk(chatID, chunk)
	}
}

// splitMessage breaks text into chunks of at most maxLen characters,
// preferring newline boundaries in the upper half of each chunk.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			cutAt := strings.LastIndex(chunk[:maxLen], "\n")
			if cutAt < maxLen/2 {
				cutAt = maxLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sendChunk sends a single message chunk with retry and rate limit handling.
// Strategy: try the configured parse mode first → on parse error fall back
// to plain text → retry with backoff.
func (t *Telegram) sendChunk(chatID int64, text string) {
	const maxRetries = telegramMaxSendRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		if attempt == 0 && t.parseMode != "" {
			msg.ParseMode = t.parseMode
		}
		// On subsequent attempts: send as plain text (parse mode may be malformed).

		_, err := t.bot.Send(msg)
		if err == nil {
			return
		}

		errStr := err.Error()

		// Handle Telegram rate limiting (HTTP 429).
		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		// Markdown parse error on first attempt — immediately retry as plain text.
		if attempt == 0 && msg.ParseMode != "" &&
			strings.Contains(errStr, "can't parse entities") {
			t.logger.Warn("telegram markdown parse error, retrying as plain text",
				"err", err, "parseMode", t.parseMode,
			)
			plainMsg := tgbotapi.NewMessage(chatID, text)
			if _, err2 := t.bot.Send(plainMsg); err2 == nil {
				return
			}
			// Plain also failed — fall through to backoff loop.
		}

		// Exponential backoff for other transient errors.
		if attempt < maxRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "err", err, "attempts", maxRetries+1)
	}
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/internal/database"
	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/internal/logger"
	"github.com/example/spanishbot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// telegram is the part of the Bot API used by the handlers
type telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserLookup confirms that a stored backend user still exists
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// ChatStore persists chat to user bindings and reminder settings
type ChatStore interface {
	Get(ctx context.Context, chatID int64) (*database.ChatSession, error)
	Save(ctx context.Context, s *database.ChatSession) error
	SetReminders(ctx context.Context, chatID int64, enabled bool, hour int) error
	Delete(ctx context.Context, chatID int64) error
}

// AnswerLog records graded answers for /stats
type AnswerLog interface {
	Record(ctx context.Context, a database.Answer) error
	Stats(ctx context.Context, userID int64) (models.AnswerStats, error)
}

// Deps are the collaborators of the bot
type Deps struct {
	Sessions *learning.Sessions
	Users    UserLookup
	Chats    ChatStore
	Answers  AnswerLog
}

type step int

const (
	stepNone step = iota
	stepUsername
	stepLanguage
	stepAddWords
)

// chatState is the conversational state of a chat outside the Screen
type chatState struct {
	step     step
	username string
}

// Bot represents the Telegram bot application
type Bot struct {
	client     *tgbotapi.BotAPI
	api        telegram
	deps       Deps
	config     *BotConfig
	log        *logger.Logger
	httpClient *http.Client

	mu     sync.Mutex
	states map[int64]*chatState

	restoreMu sync.Mutex
	wg        sync.WaitGroup
}

// New connects to Telegram with token
func New(token string, deps Deps, config *BotConfig, log *logger.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if log == nil {
		log = logger.Nop()
	}
	if err := tgbotapi.SetLogger(botLogger{log: log}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	b := newBot(client, deps, config, log)
	b.client = client
	return b, nil
}

func newBot(api telegram, deps Deps, config *BotConfig, log *logger.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		api:        api,
		deps:       deps,
		config:     config,
		log:        log,
		httpClient: &http.Client{Timeout: config.HandlerTimeout},
		states:     make(map[int64]*chatState),
	}
}

// Start polls Telegram for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot is not connected")
	}
	b.log.Info("authorized on account", "username", b.client.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.client.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.wg.Wait()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, chat database.ChatSession) error {
	text := "⏰ Time to practice your Spanish!"
	if screen, err := b.screen(ctx, chat.ChatID); err == nil && screen.User() != nil {
		if err := screen.LoadVocabulary(ctx); err == nil {
			if n := len(screen.Snapshot().Vocabulary); n > 0 {
				text = fmt.Sprintf("⏰ Time to practice your Spanish! You have %d words waiting for you.", n)
			}
		}
	}

	msg := tgbotapi.NewMessage(chat.ChatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎯 Practice now", CallbackData: callbackLearn}},
		{{Text: "🔕 Turn off reminders", CallbackData: callbackRemindersOff}},
	})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Debug("reminder sent", "chat_id", chat.ChatID)
	return nil
}

// screen returns the Screen of a chat, restoring a registration saved by an
// earlier run of the bot.
func (b *Bot) screen(ctx context.Context, chatID int64) (*learning.Screen, error) {
	b.restoreMu.Lock()
	screen, created := b.deps.Sessions.GetOrCreate(sessionKey(chatID))
	if !created {
		b.restoreMu.Unlock()
		return screen, nil
	}
	restored, err := b.restore(ctx, chatID, screen)
	b.restoreMu.Unlock()
	if err != nil {
		// Retry the lookup on the next update
		b.deps.Sessions.Delete(sessionKey(chatID))
		return nil, err
	}
	if restored {
		_ = screen.LoadVocabulary(ctx)
	}
	return screen, nil
}

func (b *Bot) restore(ctx context.Context, chatID int64, screen *learning.Screen) (bool, error) {
	if b.deps.Chats == nil {
		return false, nil
	}
	sess, err := b.deps.Chats.Get(ctx, chatID)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	user := sess.User()
	if b.deps.Users != nil {
		found, err := b.deps.Users.GetUser(ctx, sess.UserID)
		switch {
		case api.IsNotFound(err):
			b.log.Info("stored user no longer exists", "chat_id", chatID, "user_id", sess.UserID)
			return false, b.deps.Chats.Delete(ctx, chatID)
		case err != nil:
			b.log.Warn("could not verify stored user, using saved copy", "chat_id", chatID, "error", err)
		default:
			user = *found
		}
	}
	if err := screen.Restore(user); err != nil {
		return false, err
	}
	b.log.Info("session restored", "chat_id", chatID, "user_id", user.ID)
	return true, nil
}

func (b *Bot) state(chatID int64) chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[chatID]; ok {
		return *st
	}
	return chatState{}
}

func (b *Bot) setState(chatID int64, st chatState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st.step == stepNone {
		delete(b.states, chatID)
		return
	}
	b.states[chatID] = &st
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "chat_id", msg.ChatID, "error", err)
		return err
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if buttons != nil {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.sendMessage(msg)
}

func sessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// botLogger routes the Telegram library's log output through zap
type botLogger struct {
	log *logger.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Debug(fmt.Sprint(v...))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

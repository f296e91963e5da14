package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/internal/database"
	"github.com/example/spanishbot/internal/excel"
	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/pkg/models"
)

// Constants for callback data
const (
	callbackMenu          = "main_menu"
	callbackVocabulary    = "vocabulary"
	callbackAdd           = "add_words"
	callbackLearn         = "start_learning"
	callbackNext          = "next_question"
	callbackStop          = "stop_learning"
	callbackStats         = "show_stats"
	callbackExport        = "export"
	callbackReminders     = "reminders"
	callbackRemindersOn   = "reminders_on"
	callbackRemindersOff  = "reminders_off"
	prefixReminderHour    = "reminder_hour_"
	prefixLanguage        = "lang_"
	msgBusy               = "⏳ Still working on your previous request, please wait."
	msgRegisterFirst      = "Please register first with /start."
	msgSomethingWentWrong = "Something went wrong, please try again later."
)

var errFileTooLarge = errors.New("file is too large")

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.config.HandlerTimeout)
	defer cancel()

	var err error
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		return
	}
	if err != nil {
		b.log.Error("error handling update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	switch {
	case message.IsCommand():
		return b.handleCommand(ctx, message)
	case len(message.Photo) > 0:
		largest := message.Photo[len(message.Photo)-1]
		return b.handleUpload(ctx, message.Chat.ID, learning.ActionAddImage, largest.FileID, "photo.jpg", "image/jpeg")
	case message.Voice != nil:
		return b.handleUpload(ctx, message.Chat.ID, learning.ActionAddAudio, message.Voice.FileID, "voice.ogg", message.Voice.MimeType)
	case message.Audio != nil:
		name := message.Audio.FileName
		if name == "" {
			name = "audio.mp3"
		}
		return b.handleUpload(ctx, message.Chat.ID, learning.ActionAddAudio, message.Audio.FileID, name, message.Audio.MimeType)
	case message.Document != nil:
		return b.handleDocument(ctx, message)
	case strings.TrimSpace(message.Text) != "":
		return b.handleText(ctx, message)
	}
	return b.reply(message.Chat.ID, "I don't understand. Use /menu to show the main menu.", nil)
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, chatID)
	case "help":
		return b.handleHelp(chatID)
	case "menu":
		b.setState(chatID, chatState{})
		return b.showMainMenu(chatID)
	case "words":
		return b.showVocabulary(ctx, chatID)
	case "add":
		return b.startAddWords(ctx, chatID)
	case "learn":
		return b.startLearning(ctx, chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	case "export":
		return b.handleExport(ctx, chatID)
	case "reminders":
		return b.handleReminders(ctx, chatID, message.CommandArguments())
	case "cancel":
		b.setState(chatID, chatState{})
		return b.reply(chatID, "Cancelled.", b.MainMenuButtons())
	default:
		return b.reply(chatID, "Unknown command. Use /menu to show the main menu.", b.MainMenuButtons())
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	screen, err := b.screen(ctx, chatID)
	if err != nil {
		b.log.Error("error loading session", "chat_id", chatID, "error", err)
		return b.reply(chatID, msgSomethingWentWrong, nil)
	}
	if user := screen.User(); user != nil {
		b.setState(chatID, chatState{})
		text := fmt.Sprintf("👋 Welcome back, %s!\nNative language: %s", user.Username, user.NativeLanguage.Label())
		return b.reply(chatID, text, b.MainMenuButtons())
	}

	b.setState(chatID, chatState{step: stepUsername})
	text := "👋 Welcome to the Spanish vocabulary bot!\n\n" +
		"I'll help you collect Spanish words and practice them.\n\n" +
		"Please send the username you'd like to use."
	return b.reply(chatID, text, nil)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 How to use the bot\n\n" +
		"/start - Register or show the main menu\n" +
		"/words - Show your vocabulary\n" +
		"/add - Add new words\n" +
		"/learn - Practice with quiz questions\n" +
		"/stats - Show your statistics\n" +
		"/export - Download your vocabulary as Excel\n" +
		"/reminders on|off|HOUR - Configure practice reminders\n" +
		"/cancel - Cancel the current action\n\n" +
		"You can also send a photo of a word, a voice message, or an .xlsx/.csv word list at any time."
	return b.reply(chatID, text, [][]MenuButton{{{Text: "⬅️ Back to menu", CallbackData: callbackMenu}}})
}

// handleText routes plain text by the conversation step and the quiz phase
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := message.Text
	st := b.state(chatID)

	switch st.step {
	case stepUsername:
		username := strings.TrimSpace(text)
		if username == "" {
			return b.reply(chatID, "Please enter a username", nil)
		}
		b.setState(chatID, chatState{step: stepLanguage, username: username})
		return b.reply(chatID, "Choose your native language:", languageButtons())
	case stepLanguage:
		return b.reply(chatID, "Please choose your native language using the buttons below.", languageButtons())
	}

	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	if st.step == stepAddWords {
		return b.addFromText(ctx, chatID, screen, text)
	}
	if screen.Snapshot().Quiz.Phase == learning.PhaseQuestion {
		return b.submitAnswer(ctx, chatID, screen, text)
	}
	if _, ok := splitWordLine(text); ok {
		return b.addFromText(ctx, chatID, screen, text)
	}
	return b.reply(chatID, "I don't understand. Use /menu to show the main menu.", b.MainMenuButtons())
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("error answering callback", "chat_id", chatID, "error", err)
	}

	switch callback.Data {
	case callbackMenu:
		b.setState(chatID, chatState{})
		return b.showMainMenu(chatID)
	case callbackVocabulary:
		return b.showVocabulary(ctx, chatID)
	case callbackAdd:
		return b.startAddWords(ctx, chatID)
	case callbackLearn:
		return b.startLearning(ctx, chatID)
	case callbackNext:
		return b.nextQuestion(ctx, chatID)
	case callbackStop:
		return b.stopLearning(ctx, chatID)
	case callbackStats:
		return b.handleStats(ctx, chatID)
	case callbackExport:
		return b.handleExport(ctx, chatID)
	case callbackReminders:
		return b.handleReminders(ctx, chatID, "")
	case callbackRemindersOn:
		return b.handleReminders(ctx, chatID, "on")
	case callbackRemindersOff:
		return b.handleReminders(ctx, chatID, "off")
	}

	if strings.HasPrefix(callback.Data, prefixLanguage) {
		return b.handleLanguage(ctx, chatID, strings.TrimPrefix(callback.Data, prefixLanguage))
	}
	if strings.HasPrefix(callback.Data, prefixReminderHour) {
		return b.handleReminders(ctx, chatID, strings.TrimPrefix(callback.Data, prefixReminderHour))
	}
	b.log.Warn("unknown callback", "chat_id", chatID, "data", callback.Data)
	return nil
}

// handleLanguage completes the registration started by /start
func (b *Bot) handleLanguage(ctx context.Context, chatID int64, code string) error {
	st := b.state(chatID)
	if st.step != stepLanguage {
		return b.reply(chatID, "Use /start to register.", nil)
	}
	lang, err := models.ParseNativeLanguage(code)
	if err != nil {
		return b.reply(chatID, "Please choose English or Ukrainian", languageButtons())
	}
	screen, err := b.screen(ctx, chatID)
	if err != nil {
		return b.reply(chatID, msgSomethingWentWrong, nil)
	}

	err = screen.Register(ctx, st.username, lang)
	switch {
	case errors.Is(err, learning.ErrAlreadyRegistered):
		b.setState(chatID, chatState{})
		return b.showMainMenu(chatID)
	case learning.IsValidation(err):
		b.setState(chatID, chatState{step: stepUsername})
		return b.reply(chatID, learning.Message(learning.ActionRegister, err), nil)
	case err != nil:
		// Keep the language step so another tap retries
		return b.reply(chatID, "❌ "+errText(learning.ActionRegister, err), languageButtons())
	}

	b.setState(chatID, chatState{})
	user := screen.User()
	if b.deps.Chats != nil {
		sess := &database.ChatSession{
			ChatID:           chatID,
			UserID:           user.ID,
			Username:         user.Username,
			NativeLanguage:   user.NativeLanguage,
			RemindersEnabled: true,
			ReminderHour:     database.DefaultReminderHour,
		}
		if err := b.deps.Chats.Save(ctx, sess); err != nil {
			b.log.Error("error saving chat session", "chat_id", chatID, "error", err)
		}
	}

	v := screen.Snapshot()
	text := fmt.Sprintf("✅ %s\n\nUsername: %s\nNative language: %s",
		v.Result(learning.ActionRegister).Message, user.Username, v.LanguageLabel())
	return b.reply(chatID, text, b.MainMenuButtons())
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) error {
	return b.reply(chatID, "Main Menu - choose an option:", b.MainMenuButtons())
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 My Words", CallbackData: callbackVocabulary},
			{Text: "➕ Add Words", CallbackData: callbackAdd},
		},
		{
			{Text: "🎯 Practice", CallbackData: callbackLearn},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		},
		{
			{Text: "📤 Export", CallbackData: callbackExport},
			{Text: "⏰ Reminders", CallbackData: callbackReminders},
		},
	}
}

func languageButtons() [][]MenuButton {
	return [][]MenuButton{{
		{Text: "🇬🇧 English", CallbackData: prefixLanguage + string(models.LanguageEnglish)},
		{Text: "🇺🇦 Ukrainian", CallbackData: prefixLanguage + string(models.LanguageUkrainian)},
	}}
}

// requireUser returns the chat's screen, telling the user to register when needed
func (b *Bot) requireUser(ctx context.Context, chatID int64) (*learning.Screen, bool) {
	screen, err := b.screen(ctx, chatID)
	if err != nil {
		b.log.Error("error loading session", "chat_id", chatID, "error", err)
		b.reply(chatID, msgSomethingWentWrong, nil)
		return nil, false
	}
	if screen.User() == nil {
		b.reply(chatID, msgRegisterFirst, nil)
		return nil, false
	}
	return screen, true
}

func (b *Bot) showVocabulary(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	if err := screen.LoadVocabulary(ctx); err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionLoadVocabulary, err), b.MainMenuButtons())
	}
	words := screen.Snapshot().Vocabulary
	if len(words) == 0 {
		return b.reply(chatID, "No words yet. Add some words to get started!",
			[][]MenuButton{{{Text: "➕ Add Words", CallbackData: callbackAdd}}})
	}

	pages := formatVocabulary(words, b.config.WordsPerMessage)
	for i, page := range pages {
		var buttons [][]MenuButton
		if i == len(pages)-1 {
			buttons = [][]MenuButton{{
				{Text: "🎯 Practice", CallbackData: callbackLearn},
				{Text: "« Back to menu", CallbackData: callbackMenu},
			}}
		}
		if err := b.reply(chatID, page, buttons); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) startAddWords(ctx context.Context, chatID int64) error {
	if _, ok := b.requireUser(ctx, chatID); !ok {
		return nil
	}
	b.setState(chatID, chatState{step: stepAddWords})
	text := "📝 Adding new words\n\n" +
		"Send a word in the format:\n" +
		"español - translation\n\n" +
		"Optionally add the type:\n" +
		"comer - to eat - verb\n\n" +
		"Types: noun, verb, adjective, adverb, other.\n" +
		"Several lines add several words.\n\n" +
		"You can also send a photo of a word, a voice message, or an .xlsx/.csv word list."
	return b.reply(chatID, text, [][]MenuButton{{{Text: "✅ Done", CallbackData: callbackMenu}}})
}

// addFromText adds one word per non-empty line
func (b *Bot) addFromText(ctx context.Context, chatID int64, screen *learning.Screen, text string) error {
	var rows []learning.WordDraft
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, parseWordLine(line))
	}
	if len(rows) > 1 {
		return b.importRows(ctx, chatID, screen, rows)
	}
	if len(rows) == 0 {
		rows = append(rows, learning.WordDraft{})
	}

	created, err := screen.AddText(ctx, rows[0])
	if err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionAddText, err), nil)
	}
	msg := screen.Snapshot().Result(learning.ActionAddText).Message
	return b.reply(chatID, fmt.Sprintf("✅ %s\n\n%s", msg, formatWord(*created)), nil)
}

func (b *Bot) handleUpload(ctx context.Context, chatID int64, action learning.Action, fileID, name, contentType string) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	b.typing(chatID)

	data, err := b.download(ctx, fileID)
	if err != nil {
		b.log.Warn("error downloading file", "chat_id", chatID, "error", err)
		if errors.Is(err, errFileTooLarge) {
			return b.reply(chatID, "❌ The file is too large.", nil)
		}
		return b.reply(chatID, "❌ Could not download the file, please try again.", nil)
	}

	upload := api.Upload{Filename: name, ContentType: contentType, Body: bytes.NewReader(data)}
	var created *models.Vocabulary
	if action == learning.ActionAddImage {
		created, err = screen.AddImage(ctx, upload)
	} else {
		created, err = screen.AddAudio(ctx, upload)
	}
	if err != nil {
		return b.reply(chatID, "❌ "+errText(action, err), nil)
	}
	msg := screen.Snapshot().Result(action).Message
	return b.reply(chatID, fmt.Sprintf("✅ %s\n\n%s", msg, formatWord(*created)), nil)
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	doc := message.Document
	mime := strings.ToLower(doc.MimeType)

	switch ext := strings.ToLower(filepath.Ext(doc.FileName)); {
	case ext == ".xlsx" || ext == ".xlsm" || ext == ".csv":
		return b.handleWordList(ctx, chatID, doc.FileID, doc.FileName)
	case strings.HasPrefix(mime, "image/"):
		return b.handleUpload(ctx, chatID, learning.ActionAddImage, doc.FileID, doc.FileName, doc.MimeType)
	case strings.HasPrefix(mime, "audio/"):
		return b.handleUpload(ctx, chatID, learning.ActionAddAudio, doc.FileID, doc.FileName, doc.MimeType)
	}
	return b.reply(chatID, "Send a photo, a voice message, or an .xlsx/.csv word list.", nil)
}

// handleWordList imports an uploaded spreadsheet
func (b *Bot) handleWordList(ctx context.Context, chatID int64, fileID, name string) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	data, err := b.download(ctx, fileID)
	if err != nil {
		b.log.Warn("error downloading word list", "chat_id", chatID, "error", err)
		return b.reply(chatID, "❌ Could not download the file, please try again.", nil)
	}
	rows, err := excel.ParseWordList(bytes.NewReader(data), name, excel.DefaultImportConfig())
	if err != nil {
		b.log.Warn("error parsing word list", "chat_id", chatID, "file", name, "error", err)
		return b.reply(chatID, "❌ Could not read the word list: "+err.Error(), nil)
	}
	return b.importRows(ctx, chatID, screen, rows)
}

func (b *Bot) importRows(ctx context.Context, chatID int64, screen *learning.Screen, rows []learning.WordDraft) error {
	b.typing(chatID)
	summary, err := screen.ImportWords(ctx, rows)
	if err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionImport, err), nil)
	}
	msg := screen.Snapshot().Result(learning.ActionImport).Message
	return b.reply(chatID, formatImport(msg, summary, b.config.MaxImportErrors), nil)
}

func (b *Bot) startLearning(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	b.setState(chatID, chatState{})
	if !screen.Snapshot().VocabularyLoaded {
		if err := screen.LoadVocabulary(ctx); err != nil {
			return b.reply(chatID, "❌ "+errText(learning.ActionLoadVocabulary, err), nil)
		}
	}

	screen.ResetQuiz()
	q, err := screen.StartQuiz(ctx)
	if errors.Is(err, learning.ErrEmptyVocabulary) {
		return b.reply(chatID, screen.Snapshot().Result(learning.ActionQuestion).Message,
			[][]MenuButton{{{Text: "➕ Add Words", CallbackData: callbackAdd}}})
	}
	if err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionQuestion, err), b.MainMenuButtons())
	}
	return b.sendQuestion(chatID, q)
}

func (b *Bot) nextQuestion(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	q, err := screen.NextQuestion(ctx)
	if err != nil {
		if errors.Is(err, learning.ErrEmptyVocabulary) {
			return b.reply(chatID, screen.Snapshot().Result(learning.ActionQuestion).Message, nil)
		}
		return b.reply(chatID, "❌ "+errText(learning.ActionQuestion, err), quizButtons())
	}
	return b.sendQuestion(chatID, q)
}

func (b *Bot) stopLearning(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	screen.ResetQuiz()
	return b.reply(chatID, "🏁 Practice finished. Well done!", b.MainMenuButtons())
}

func (b *Bot) sendQuestion(chatID int64, q *models.LearningQuestion) error {
	return b.reply(chatID, "❓ "+q.Question+"\n\nType your answer.", [][]MenuButton{{
		{Text: "⏭ Skip", CallbackData: callbackNext},
		{Text: "⏹ Stop", CallbackData: callbackStop},
	}})
}

func (b *Bot) submitAnswer(ctx context.Context, chatID int64, screen *learning.Screen, answer string) error {
	before := screen.Snapshot().Quiz.Question
	fb, err := screen.SubmitAnswer(ctx, answer)
	if err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionAnswer, err), nil)
	}

	if b.deps.Answers != nil && before != nil {
		user := screen.User()
		rec := database.Answer{UserID: user.ID, VocabularyID: before.VocabularyID, IsCorrect: fb.IsCorrect}
		if err := b.deps.Answers.Record(ctx, rec); err != nil {
			b.log.Warn("error recording answer", "chat_id", chatID, "error", err)
		}
	}

	v := screen.Snapshot()
	return b.reply(chatID, formatFeedback(fb, v.Quiz.Conjugation), quizButtons())
}

func quizButtons() [][]MenuButton {
	return [][]MenuButton{{
		{Text: "➡️ Next question", CallbackData: callbackNext},
		{Text: "⏹ Stop", CallbackData: callbackStop},
	}}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	if err := screen.LoadVocabulary(ctx); err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionLoadVocabulary, err), b.MainMenuButtons())
	}
	var stats models.AnswerStats
	if b.deps.Answers != nil {
		var err error
		stats, err = b.deps.Answers.Stats(ctx, screen.User().ID)
		if err != nil {
			b.log.Error("error getting answer stats", "chat_id", chatID, "error", err)
			return b.reply(chatID, "Statistics are not available right now.", b.MainMenuButtons())
		}
	}
	return b.reply(chatID, formatStats(screen.Snapshot().Vocabulary, stats), [][]MenuButton{
		{{Text: "🎯 Practice", CallbackData: callbackLearn}},
		{{Text: "« Back to menu", CallbackData: callbackMenu}},
	})
}

// handleExport sends the vocabulary as an Excel workbook
func (b *Bot) handleExport(ctx context.Context, chatID int64) error {
	screen, ok := b.requireUser(ctx, chatID)
	if !ok {
		return nil
	}
	if err := screen.LoadVocabulary(ctx); err != nil {
		return b.reply(chatID, "❌ "+errText(learning.ActionLoadVocabulary, err), nil)
	}
	v := screen.Snapshot()
	if len(v.Vocabulary) == 0 {
		return b.reply(chatID, "No words yet. Add some words to get started!", nil)
	}

	data, err := excel.ExportVocabulary(v.Vocabulary, v.User.NativeLanguage)
	if err != nil {
		b.log.Error("error exporting vocabulary", "chat_id", chatID, "error", err)
		return b.reply(chatID, "❌ Failed to export vocabulary", nil)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "vocabulary.xlsx", Bytes: data})
	doc.Caption = fmt.Sprintf("📤 Your vocabulary, %d words", len(v.Vocabulary))
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send export: %w", err)
	}
	return nil
}

// handleReminders applies "on", "off" or an hour, then shows the settings
func (b *Bot) handleReminders(ctx context.Context, chatID int64, arg string) error {
	if _, ok := b.requireUser(ctx, chatID); !ok {
		return nil
	}
	if b.deps.Chats == nil {
		return b.reply(chatID, "Reminders are not available.", nil)
	}
	sess, err := b.deps.Chats.Get(ctx, chatID)
	if err != nil || sess == nil {
		if err != nil {
			b.log.Error("error getting chat session", "chat_id", chatID, "error", err)
		}
		return b.reply(chatID, "Reminders are not available.", nil)
	}

	enabled, hour := sess.RemindersEnabled, sess.ReminderHour
	switch arg = strings.ToLower(strings.TrimSpace(arg)); arg {
	case "":
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		h, err := strconv.Atoi(strings.TrimSuffix(arg, ":00"))
		if err != nil || !b.config.reminderHourAllowed(h) {
			return b.reply(chatID, fmt.Sprintf("Please send an hour from %d to %d, for example /reminders 18",
				b.config.ReminderStartHour, b.config.ReminderEndHour), nil)
		}
		enabled, hour = true, h
	}
	if arg != "" {
		if err := b.deps.Chats.SetReminders(ctx, chatID, enabled, hour); err != nil {
			b.log.Error("error updating reminders", "chat_id", chatID, "error", err)
			return b.reply(chatID, "❌ Error updating settings. Please try again.", nil)
		}
	}

	status := "off"
	toggle := MenuButton{Text: "🔔 Turn on", CallbackData: callbackRemindersOn}
	if enabled {
		status = fmt.Sprintf("on, daily at %02d:00", hour)
		toggle = MenuButton{Text: "🔕 Turn off", CallbackData: callbackRemindersOff}
	}
	buttons := [][]MenuButton{{toggle}}
	var hours []MenuButton
	for _, h := range b.config.ReminderHours {
		if !b.config.reminderHourAllowed(h) {
			continue
		}
		label := fmt.Sprintf("%02d:00", h)
		if enabled && h == hour {
			label = "✅ " + label
		}
		hours = append(hours, MenuButton{Text: label, CallbackData: prefixReminderHour + strconv.Itoa(h)})
	}
	if len(hours) > 0 {
		buttons = append(buttons, hours)
	}
	buttons = append(buttons, []MenuButton{{Text: "« Back to menu", CallbackData: callbackMenu}})
	return b.reply(chatID, "⏰ Practice reminders: "+status, buttons)
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("error sending chat action", "chat_id", chatID, "error", err)
	}
}

// download fetches a Telegram file, refusing files over the configured size
func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > b.config.MaxFileSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

// errText is the user-facing text for a failed screen action
func errText(action learning.Action, err error) string {
	switch {
	case errors.Is(err, learning.ErrBusy):
		return msgBusy
	case errors.Is(err, learning.ErrNotRegistered):
		return msgRegisterFirst
	case errors.Is(err, learning.ErrNoQuestion):
		return "There is no question right now. Tap Practice to start."
	}
	return learning.Message(action, err)
}

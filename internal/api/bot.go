package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "animal-watch-bot/internal/application"
	"animal-watch-bot/internal/domain/derror"
	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/infrastructure/metrics"
)

// WatchService описывает, что боту нужно от слоя приложения.
type WatchService interface {
	Subscribe(ctx context.Context, chatID int64, key string) (bool, error)
	Unsubscribe(ctx context.Context, chatID int64, key string) (bool, error)
	Subscriptions(ctx context.Context, chatID int64) ([]entity.Animal, error)
	Snapshot(ctx context.Context, chatID int64, key string) (*app.SnapshotOutput, error)
	Catalog() []entity.Animal
}

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      *Sender
	watch       WatchService
	stickerFile string
	log         zerolog.Logger
}

// Connect авторизуется в Telegram по токену.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// NewBot создаёт нового бота
func NewBot(api *tgbotapi.BotAPI, sender *Sender, watch WatchService, stickerFile string, log zerolog.Logger) *Bot {
	log.Info().Str("account", api.Self.UserName).Msg("authorized")
	return &Bot{
		api:         api,
		sender:      sender,
		watch:       watch,
		stickerFile: stickerFile,
		log:         log,
	}
}

// Run обрабатывает обновления до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			// /now может ждать детектор несколько секунд, не задерживаем остальные обновления
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
		return
	}

	chatID := msg.Chat.ID
	metrics.IncTelegramCommand(msg.Command())

	switch msg.Command() {
	case "start", "help":
		b.sendSticker(chatID)
		b.sendHTML(chatID, msgWelcome)

	case "add":
		b.sendKeyboard(chatID, msgChooseAdd, animalsKeyboard(b.watch.Catalog(), actionAdd))

	case "remove":
		b.chooseSubscribed(ctx, chatID, msgChooseRemove, actionRemove)

	case "now":
		b.chooseSubscribed(ctx, chatID, msgChooseNow, actionNow)

	case "animals":
		animals, err := b.watch.Subscriptions(ctx, chatID)
		if err != nil {
			b.log.Error().Err(err).Int64("chat_id", chatID).Msg("list subscriptions")
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, trackedText(animals))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// chooseSubscribed показывает клавиатуру только с животными, за которыми следит чат.
func (b *Bot) chooseSubscribed(ctx context.Context, chatID int64, text, action string) {
	animals, err := b.watch.Subscriptions(ctx, chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("list subscriptions")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	if len(animals) == 0 {
		b.sendMessage(chatID, msgNothingChosen)
		return
	}
	b.sendKeyboard(chatID, text, animalsKeyboard(animals, action))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answer(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	action, key, ok := parseCallback(cb.Data)
	if !ok {
		b.answer(cb.ID, msgUnknownCommand)
		return
	}
	metrics.IncTelegramCommand("callback_" + action)
	log := b.log.With().Int64("chat_id", chatID).Str("animal", key).Str("action", action).Logger()

	switch action {
	case actionAdd:
		if _, err := b.watch.Subscribe(ctx, chatID, key); err != nil {
			log.Error().Err(err).Msg("subscribe")
			b.answer(cb.ID, errorText(err))
			return
		}
		b.answer(cb.ID, subscribedText(b.animal(key)))

	case actionRemove:
		if _, err := b.watch.Unsubscribe(ctx, chatID, key); err != nil {
			log.Error().Err(err).Msg("unsubscribe")
			b.answer(cb.ID, errorText(err))
			return
		}
		b.answer(cb.ID, unsubscribedText(b.animal(key)))

	case actionNow:
		b.answer(cb.ID, "")
		out, err := b.watch.Snapshot(ctx, chatID, key)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot")
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, snapshotText(out.Animal))
		if err := b.sender.SendPhoto(ctx, chatID, out.Image, ""); err != nil {
			log.Error().Err(err).Msg("send snapshot")
		}
	}
}

func (b *Bot) animal(key string) entity.Animal {
	for _, a := range b.watch.Catalog() {
		if a.Key == key {
			return a
		}
	}
	return entity.Animal{Key: key, Instrumental: key}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, derror.ErrUnknownAnimal):
		return msgUnknownAnimal
	case errors.Is(err, derror.ErrNotSubscribed):
		return msgNotSubscribed
	case errors.Is(err, derror.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, derror.ErrStreamNotOpened):
		return msgStreamNotOpened
	case errors.Is(err, context.DeadlineExceeded):
		return msgStreamStalled
	case errors.Is(err, derror.ErrDetectorUnavailable):
		return msgDetectorDisabled
	default:
		return msgProcessingError
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("answer callback")
	}
}

// sendSticker отправляет приветственный стикер, если он настроен
func (b *Bot) sendSticker(chatID int64) {
	if b.stickerFile == "" {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewSticker(chatID, tgbotapi.FilePath(b.stickerFile))); err != nil {
		b.log.Warn().Err(err).Str("file", b.stickerFile).Msg("send sticker")
	}
}

func (b *Bot) sendKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send keyboard")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	if err := b.sender.SendText(context.Background(), chatID, text); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

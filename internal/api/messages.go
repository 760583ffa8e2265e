package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"animal-watch-bot/internal/domain/entity"
)

const (
	msgWelcome = "<b>🐾Добро пожаловать в Animal Detection Bot! 🐾</b>\n\n" +
		"Мы сообщаем интересную информацию о животных в зоопарке.\n\n" +
		"🙉 Чтобы начать следить за животным введите /add и выберите животное.\n" +
		"🙈 Чтобы перестать следить за животным - введите /remove и выберите животное.\n" +
		"🔍 Чтобы узнать за кем вы следите - введите /animals.\n" +
		"👀 Чтобы подсмотреть за кем-то прямо сейчас /now."

	msgChooseAdd      = "Выберите за кем хотите следить:"
	msgChooseRemove   = "Выберите за кем не хотите следить:"
	msgChooseNow      = "Выберите за кем хотите подсмотреть прямо сейчас:"
	msgNothingChosen  = "Вы еще не выбрали животных"
	msgNotTracking    = "Вы пока не следите ни за одним животным."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."

	msgUnknownAnimal    = "Такого животного нет в списке."
	msgNotSubscribed    = "Вы не следите за этим животным. Добавьте его через /add."
	msgRateLimited      = "⏳ Слишком много запросов, попробуйте чуть позже."
	msgStreamNotOpened  = "📡 Трансляция сейчас недоступна, попробуйте позже."
	msgStreamStalled    = "📡 Трансляция не отвечает, попробуйте позже."
	msgProcessingError  = "⚠️ Что-то пошло не так, попробуйте ещё раз."
	msgDetectorDisabled = "⚠️ Распознавание сейчас недоступно."
)

// Действия в данных inline-кнопок: "<действие>:<ключ животного>".
const (
	actionAdd    = "add"
	actionRemove = "rem"
	actionNow    = "now"
)

func callbackData(action, key string) string {
	return action + ":" + key
}

func parseCallback(data string) (action, key string, ok bool) {
	action, key, ok = strings.Cut(data, ":")
	if !ok || key == "" {
		return "", "", false
	}
	switch action {
	case actionAdd, actionRemove, actionNow:
		return action, key, true
	}
	return "", "", false
}

// animalsKeyboard строит клавиатуру с кнопкой на каждое животное.
func animalsKeyboard(animals []entity.Animal, action string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(animals))
	for _, a := range animals {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.Nominative(), callbackData(action, a.Key)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func trackedText(animals []entity.Animal) string {
	if len(animals) == 0 {
		return msgNotTracking
	}
	names := make([]string, len(animals))
	for i, a := range animals {
		names[i] = strings.TrimSpace(a.Emoji + " " + a.Instrumental)
	}
	return "Вы следите за: " + strings.Join(names, ", ") + "."
}

func subscribedText(a entity.Animal) string {
	return fmt.Sprintf("Теперь вы следите за %s!", a.Instrumental)
}

func unsubscribedText(a entity.Animal) string {
	return fmt.Sprintf("Теперь вы не следите за %s!", a.Instrumental)
}

func snapshotText(a entity.Animal) string {
	return fmt.Sprintf("Вот что происходит у %s прямо сейчас!", a.Genitive)
}

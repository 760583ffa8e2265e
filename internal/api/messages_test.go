package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/derror"
	"animal-watch-bot/internal/domain/entity"
)

var (
	penguins = entity.Animal{Key: "bird", Emoji: "🐧", Title: "Пингвины", Genitive: "пингвинов", Instrumental: "пингвинами"}
	bears    = entity.Animal{Key: "bear", Emoji: "🐻‍❄️", Title: "Медведи", Genitive: "мишек", Instrumental: "мишками"}
)

func TestParseCallback(t *testing.T) {
	action, key, ok := parseCallback(callbackData(actionRemove, "bird"))
	require.True(t, ok)
	require.Equal(t, actionRemove, action)
	require.Equal(t, "bird", key)

	for _, bad := range []string{"", "add", "add:", "drop:bird", "add_penguins"} {
		_, _, ok := parseCallback(bad)
		require.False(t, ok, bad)
	}
}

func TestAnimalsKeyboard(t *testing.T) {
	kb := animalsKeyboard([]entity.Animal{penguins, bears}, actionNow)
	require.Len(t, kb.InlineKeyboard, 2)

	btn := kb.InlineKeyboard[0][0]
	require.Equal(t, "🐧 Пингвины", btn.Text)
	require.NotNil(t, btn.CallbackData)
	require.Equal(t, "now:bird", *btn.CallbackData)
	require.Equal(t, "now:bear", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestTrackedText(t *testing.T) {
	require.Equal(t, msgNotTracking, trackedText(nil))
	require.Equal(t, "Вы следите за: 🐧 пингвинами, 🐻‍❄️ мишками.", trackedText([]entity.Animal{penguins, bears}))
}

func TestAnswers(t *testing.T) {
	require.Equal(t, "Теперь вы следите за пингвинами!", subscribedText(penguins))
	require.Equal(t, "Теперь вы не следите за мишками!", unsubscribedText(bears))
	require.Equal(t, "Вот что происходит у мишек прямо сейчас!", snapshotText(bears))
}

func TestErrorText(t *testing.T) {
	require.Equal(t, msgRateLimited, errorText(fmt.Errorf("now: %w", derror.ErrRateLimited)))
	require.Equal(t, msgUnknownAnimal, errorText(derror.ErrUnknownAnimal))
	require.Equal(t, msgNotSubscribed, errorText(derror.ErrNotSubscribed))
	require.Equal(t, msgStreamNotOpened, errorText(derror.ErrStreamNotOpened))
	require.Equal(t, msgStreamStalled, errorText(fmt.Errorf("read frame: %w", context.DeadlineExceeded)))
	require.Equal(t, msgProcessingError, errorText(errors.New("boom")))
}

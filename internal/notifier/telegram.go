package notifier

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

type TelegramNotifier struct {
	Token  string
	ChatID string
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{Token: token, ChatID: chatID}
}

func (t *TelegramNotifier) Send(message string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.Token)
	resp, err := http.PostForm(apiURL, url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

// SendWithRetry retries transient failures with a linear backoff. The
// message is dropped after the final attempt; notification delivery never
// blocks trading.
func (t *TelegramNotifier) SendWithRetry(message string) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = t.Send(message); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("telegram send failed")
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return fmt.Errorf("telegram send gave up: %w", err)
}

package apiexternal

import (
	"context"
	"time"

	"github.com/gregdel/pushover"
	"golang.org/x/time/rate"
)

type PushOverClient struct {
	ApiKey  string
	Limiter *rate.Limiter
}

var PushoverApi PushOverClient

func NewPushOverClient(apikey string) {
	rl := rate.NewLimiter(rate.Every(10*time.Second), 3) // 3 request every 10 seconds
	PushoverApi = PushOverClient{ApiKey: apikey, Limiter: rl}
}

func (p PushOverClient) SendMessage(messagetext string, title string, recipientkey string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Limiter.Wait(ctx); err != nil {
		return err
	}
	app := pushover.New(p.ApiKey)
	recipient := pushover.NewRecipient(recipientkey)
	message := pushover.NewMessageWithTitle(messagetext, title)
	_, errp := app.SendMessage(message, recipient)
	if errp != nil {
		return errp
	}
	return nil
}

package bot

import (
	"path/filepath"

	tele "gopkg.in/telebot.v3"
)

// Notifier is the worker-side Telegram sender. It shares no state with the
// polling bot; only the token.
type Notifier struct {
	api *tele.Bot
}

func NewNotifier(token string) (*Notifier, error) {
	api, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &Notifier{api: api}, nil
}

func (n *Notifier) SendText(userID int64, text string) error {
	_, err := n.api.Send(&tele.User{ID: userID}, text)
	return err
}

func (n *Notifier) SendVideo(userID int64, path string) error {
	video := &tele.Video{
		File:      tele.FromDisk(path),
		FileName:  filepath.Base(path),
		Streaming: true,
	}
	_, err := n.api.Send(&tele.User{ID: userID}, video)
	return err
}

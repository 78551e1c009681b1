// Package telegram adapts tgbotapi to the pipeline's Gateway interface.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// videoNoteLength is the side of the square note as shown by clients.
const videoNoteLength = 512

type Gateway struct {
	bot *tgbotapi.BotAPI
}

func NewGateway(bot *tgbotapi.BotAPI) *Gateway {
	return &Gateway{bot: bot}
}

func (g *Gateway) SendMessage(chatID int64, text string) (int, error) {
	sent, err := g.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (g *Gateway) EditMessageText(chatID int64, messageID int, text string) error {
	_, err := g.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (g *Gateway) DeleteMessage(chatID int64, messageID int) error {
	_, err := g.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (g *Gateway) FileURL(fileID string) (string, error) {
	return g.bot.GetFileDirectURL(fileID)
}

func (g *Gateway) SendVideoNote(chatID int64, name string, data []byte) error {
	note := tgbotapi.NewVideoNote(chatID, videoNoteLength, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := g.bot.Send(note)
	return err
}

func (g *Gateway) SendVideo(chatID int64, name string, data []byte) error {
	_, err := g.bot.Send(tgbotapi.NewVideo(chatID, tgbotapi.FileBytes{Name: name, Bytes: data}))
	return err
}

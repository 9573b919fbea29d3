package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackCityConfirm   = "city_confirm"
	callbackCityCancel    = "city_cancel"
	callbackDeleteConfirm = "deleteop_confirm"
	callbackDeleteCancel  = "deleteop_cancel"
)

// cityKeyboard offers one button per known city. It removes any previous
// keyboard when there is nothing to offer.
func cityKeyboard(cities []string, withLocation bool) any {
	var rows [][]tgbotapi.KeyboardButton
	if withLocation {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(textShareLocation)))
	}
	for _, c := range cities {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c)))
	}
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return tgbotapi.NewOneTimeReplyKeyboard(rows...)
}

func nextActionKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(textNextTrip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(textFinished)),
	)
}

func cityConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(textYes, callbackCityConfirm),
		tgbotapi.NewInlineKeyboardButtonData(textNo, callbackCityCancel),
	))
}

func deleteConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textConfirmDelete, callbackDeleteConfirm)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textNo, callbackDeleteCancel)),
	)
}

func html(m tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	m.ParseMode = tgbotapi.ModeHTML
	return m
}

func withKeyboard(m tgbotapi.MessageConfig, markup any) tgbotapi.MessageConfig {
	m.ReplyMarkup = markup
	return m
}

func withRemovedKeyboard(m tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	return withKeyboard(m, tgbotapi.NewRemoveKeyboard(true))
}

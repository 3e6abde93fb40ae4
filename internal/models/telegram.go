package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for an outcome notification.
type TelegramMessage struct {
	Endpoint  string
	Driver    string
	Outcome   Outcome
	StartTime time.Time
	Elapsed   time.Duration
	Attempts  int
	Detail    string // last failure detail, if any
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}

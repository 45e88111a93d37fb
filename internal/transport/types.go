// Package transport defines the adapter-neutral chat gateway types the
// bot core consumes, plus the Adapter interface the Telegram
// implementation satisfies.
package transport

import (
	"context"
	"errors"
)

// ErrBlockedByUser is returned by outbound operations when the target
// user has blocked the bot. Adapters map their platform error onto it.
var ErrBlockedByUser = errors.New("blocked by user")

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
	// UpdateBotJoinedChat fires when the bot itself is added to a group.
	UpdateBotJoinedChat UpdateKind = "bot_joined_chat"
)

type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
	Joined   *BotJoinedChat
}

type Message struct {
	ID        int
	ChatID    int64
	ChatTitle string
	ChatType  ChatType

	FromID        int64
	FromFirstName string
	FromUsername  string

	Text string
}

type Callback struct {
	ID            string
	FromID        int64
	FromFirstName string
	ChatID        int64
	ChatType      ChatType
	MessageID     int
	Data          string
}

type BotJoinedChat struct {
	ChatID    int64
	ChatTitle string
	AddedBy   int64
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode        string
	DisablePreview   bool
	ReplyToMessageID int
	// ReplyMarkupAdapter is adapter-specific markup (Telegram: *telebot.ReplyMarkup).
	ReplyMarkupAdapter any
}

// AnswerOptions controls a callback-query answer.
type AnswerOptions struct {
	Alert bool
}

// ChatMember is the subset of member info the bot needs for admin checks.
type ChatMember struct {
	UserID int64
}

// BotCommand is a single command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandScope selects which Telegram menu a command set applies to.
type CommandScope string

const (
	ScopeDefault         CommandScope = "default"
	ScopeAllPrivateChats CommandScope = "all_private_chats"
	ScopeAllChatAdmins   CommandScope = "all_chat_administrators"
)

// Adapter is the chat gateway. Implementations must be safe for
// concurrent use once Start has returned.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
	EditReplyMarkup(ctx context.Context, ref MessageRef, markup any) error
	AnswerCallback(ctx context.Context, callbackID, text string, opt *AnswerOptions) error

	// SendTyping probes whether the bot can reach a user's private chat;
	// Telegram rejects chat actions for users who blocked the bot.
	SendTyping(ctx context.Context, to ChatTarget) error

	LeaveChat(ctx context.Context, chatID int64) error
	ChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error)
	SetCommands(ctx context.Context, scope CommandScope, cmds []BotCommand) error

	BotUsername() string
}

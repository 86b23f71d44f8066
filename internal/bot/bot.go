// Package bot runs the Discord front end: it watches a single issue intake
// channel, opens a thread per report, and relays follow-up turns in the
// thread to the conversation service.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/conversation"
	"github.com/catturtle123/discord-github-issue-bot/internal/session"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

const (
	// Discord rejects messages over 2000 characters.
	maxDiscordMessageLength = 2000
	// Threads auto-archive after a day of inactivity.
	threadArchiveMinutes = 1440
	// Thread titles carry a short excerpt of the first message.
	threadNameExcerptRunes = 40

	turnTimeout = 90 * time.Second

	errorReply     = "죄송합니다, 요청을 처리하는 중 오류가 발생했습니다. 다시 시도해 주세요."
	confirmedReply = "이슈 생성이 확인되었습니다. 참여해 주셔서 감사합니다."
)

// Bot bridges Discord messages to the conversation service. Each thread under
// the intake channel maps to one conversation, keyed by the thread id.
type Bot struct {
	session    *discordgo.Session
	svc        *conversation.Service
	channelID  string
	replyDelay time.Duration
	logger     *logging.Logger
}

// New builds a Discord bot for the given intake channel. The session is
// configured but not yet connected; call Run to open the gateway.
func New(token, channelID string, svc *conversation.Service, replyDelay time.Duration, logger *logging.Logger) (*Bot, error) {
	if channelID == "" {
		return nil, errors.New("bot: issue channel id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	ds, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	ds.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		session:    ds,
		svc:        svc,
		channelID:  channelID,
		replyDelay: replyDelay,
		logger:     logger,
	}
	ds.AddHandler(b.onMessageCreate)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return err
	}
	b.logger.Info("discord gateway connected", "channel_id", b.channelID)

	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Bot echoes and DMs never start or continue a report.
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	ch, err := b.channel(s, m.ChannelID)
	if err != nil {
		b.logger.Warn("failed to resolve channel", "channel_id", m.ChannelID, "error", err)
		return
	}

	switch {
	case ch.IsThread() && ch.ParentID == b.channelID:
		b.handleThreadMessage(ctx, s, m)
	case m.ChannelID == b.channelID:
		b.handleChannelMessage(ctx, s, m)
	}
}

// handleChannelMessage opens a thread for a new report and runs the first
// turn inside it.
func (b *Bot) handleChannelMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	thread, err := s.MessageThreadStart(m.ChannelID, m.ID, threadName(m.Content), threadArchiveMinutes)
	if err != nil {
		b.logger.Error("failed to open issue thread", "channel_id", m.ChannelID, "error", err)
		if _, sendErr := s.ChannelMessageSendReply(m.ChannelID, errorReply, m.Reference()); sendErr != nil {
			b.logger.Error("failed to send error reply", "channel_id", m.ChannelID, "error", sendErr)
		}
		return
	}

	turns, err := b.svc.Start(ctx, thread.ID, m.Author.ID, m.Content)
	if err != nil {
		b.logger.Error("first turn failed", "conversation_id", thread.ID, "error", err)
		b.send(s, thread.ID, errorReply)
		return
	}
	b.deliver(ctx, s, thread.ID, turns)
}

// handleThreadMessage relays a follow-up turn. Threads without stored state
// (expired sessions, threads opened by hand) are ignored.
func (b *Bot) handleThreadMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	ok, err := b.svc.Exists(ctx, m.ChannelID)
	if err != nil {
		b.logger.Error("session lookup failed", "conversation_id", m.ChannelID, "error", err)
		b.send(s, m.ChannelID, errorReply)
		return
	}
	if !ok {
		return
	}

	turns, err := b.svc.Message(ctx, m.ChannelID, m.Content)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return
		}
		b.logger.Error("turn failed", "conversation_id", m.ChannelID, "error", err)
		b.send(s, m.ChannelID, errorReply)
		return
	}

	if len(turns) == 0 {
		// A successful run with no replies means the user just confirmed.
		b.send(s, m.ChannelID, confirmedReply)
		return
	}
	b.deliver(ctx, s, m.ChannelID, turns)
}

// deliver posts the assistant's replies to a thread, pacing consecutive
// messages so Discord renders them in order.
func (b *Bot) deliver(ctx context.Context, s *discordgo.Session, threadID string, turns []agent.Turn) {
	replies := pickReplies(turns)
	for i, text := range replies {
		if i > 0 && b.replyDelay > 0 {
			select {
			case <-time.After(b.replyDelay):
			case <-ctx.Done():
				return
			}
		}
		b.send(s, threadID, text)
	}
}

func (b *Bot) send(s *discordgo.Session, channelID, text string) {
	if _, err := s.ChannelMessageSend(channelID, truncateMessage(text)); err != nil {
		b.logger.Error("failed to send message", "channel_id", channelID, "error", err)
	}
}

func (b *Bot) channel(s *discordgo.Session, id string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(id); err == nil {
		return ch, nil
	}
	return s.Channel(id)
}

// pickReplies keeps at most the last two assistant turns, dropping user
// turns and any older backlog.
func pickReplies(turns []agent.Turn) []string {
	var replies []string
	for _, t := range turns {
		if t.Role == agent.RoleAssistant {
			replies = append(replies, t.Content)
		}
	}
	if len(replies) > 2 {
		replies = replies[len(replies)-2:]
	}
	return replies
}

// threadName derives a thread title from the opening message.
func threadName(content string) string {
	excerpt := []rune(strings.TrimSpace(content))
	if len(excerpt) > threadNameExcerptRunes {
		excerpt = excerpt[:threadNameExcerptRunes]
	}
	if len(excerpt) == 0 {
		return "이슈 제보"
	}
	return "이슈: " + string(excerpt)
}

// truncateMessage fits text into Discord's message length limit.
func truncateMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= maxDiscordMessageLength {
		return text
	}
	return string(runes[:maxDiscordMessageLength-3]) + "..."
}

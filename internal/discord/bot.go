// Package discord is the request gateway: it receives /share invocations,
// validates them, hands accepted jobs to the queue, and later delivers the
// terminal result back to the originating channel. It also doubles as the
// presence notifier.
package discord

import (
	"errors"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/ablomer/steam-clip-bot/internal/logging"
	"github.com/ablomer/steam-clip-bot/internal/queue"
	"github.com/ablomer/steam-clip-bot/internal/status"
)

const shareCommand = "share"

// linkPattern constrains submissions to Steam CDN share links. Anything
// else is rejected before a job record exists.
var linkPattern = regexp.MustCompile(`^https://cdn\.steamusercontent\.com/ugc/\S+$`)

// ErrInvalidLink means the submitted URL is not a Steam CDN share link.
var ErrInvalidLink = errors.New("invalid steam share link")

// ValidateURL checks that the submitted link matches the accepted shape.
func ValidateURL(raw string) error {
	if !linkPattern.MatchString(strings.TrimSpace(raw)) {
		return ErrInvalidLink
	}
	return nil
}

// Bot owns the Discord session. It implements queue.Gateway and
// queue.Notifier for the worker.
type Bot struct {
	session *discordgo.Session
	queue   *queue.FIFO
	guildID string
	ready   atomic.Bool
	log     zerolog.Logger
}

// NewBot creates the bot without connecting. Call Open to connect.
func NewBot(token, guildID string, q *queue.FIFO) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		session: session,
		queue:   q,
		guildID: guildID,
		log:     logging.Component("discord"),
	}

	session.Identify.Intents = discordgo.IntentsGuilds
	// Do-not-disturb until the slash command is registered, so users get
	// visual feedback that the bot is not ready yet.
	session.Identify.Presence = discordgo.GatewayStatusUpdate{
		Status: string(discordgo.StatusDoNotDisturb),
		Game: discordgo.Activity{
			Name: "initializing...",
			Type: discordgo.ActivityTypeGame,
		},
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the Discord gateway.
func (b *Bot) Open() error {
	return b.session.Open()
}

// Close disconnects from the Discord gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("logged in")

	// Guild-scoped registration so the command shows up instantly.
	cmd := &discordgo.ApplicationCommand{
		Name:        shareCommand,
		Description: "Download and host a Steam share video",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "url",
				Description: "The Steam CDN share link",
				Required:    true,
			},
		},
	}
	if _, err := s.ApplicationCommandCreate(s.State.User.ID, b.guildID, cmd); err != nil {
		b.log.Error().Err(err).Msg("failed to register /share command")
		return
	}
	b.log.Info().Str("guild", b.guildID).Msg("/share command registered")

	b.ready.Store(true)
	busy, waiting := b.queue.Snapshot()
	b.PublishStatus(busy, waiting)
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != shareCommand {
		return
	}

	if !b.ready.Load() {
		b.respondEphemeral(i.Interaction, "hang tight, I'm not ready yet! Please try again in a few seconds.")
		return
	}

	// Defer immediately; validation and enqueueing are fast but the three
	// second interaction deadline is not worth gambling on.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to defer interaction")
		return
	}

	url := strings.TrimSpace(data.Options[0].StringValue())
	if err := ValidateURL(url); err != nil {
		b.followupEphemeral(i.Interaction,
			"invalid Steam share link, please provide a link starting with `https://cdn.steamusercontent.com/ugc/`")
		return
	}

	job := queue.NewJob(url, queue.RequesterRef{
		ChannelID: i.ChannelID,
		UserID:    interactionUserID(i),
		AppID:     i.AppID,
		Token:     i.Token,
	})
	ahead := b.queue.Enqueue(job)
	b.log.Info().Str("job_id", job.ID).Str("url", url).Int("ahead", ahead).Msg("clip queued")

	b.PublishStatus(presenceAfterEnqueue(b.queue.Snapshot()))

	b.followupEphemeral(i.Interaction, ackMessage(ahead))
}

// PostResult posts the public success message to the originating channel.
func (b *Bot) PostResult(ref queue.RequesterRef, jobID, publicURL string) {
	if _, err := b.session.ChannelMessageSend(ref.ChannelID, resultMessage(ref.UserID, publicURL)); err != nil {
		b.log.Error().Str("job_id", jobID).Err(err).Msg("failed to post result")
	}
}

// PostFailure sends an ephemeral failure notice on the original interaction.
func (b *Bot) PostFailure(ref queue.RequesterRef, reason string) {
	interaction := &discordgo.Interaction{AppID: ref.AppID, Token: ref.Token}
	b.followupEphemeral(interaction, "❌ "+reason)
}

// presenceAfterEnqueue normalizes a queue snapshot taken right after an
// enqueue. The worker may not have claimed the new job yet, but the presence
// must never show idle while work is pending, so the unclaimed head job is
// reported as the one being processed.
func presenceAfterEnqueue(busy bool, waiting int) (bool, int) {
	if !busy && waiting > 0 {
		return true, waiting - 1
	}
	return busy, waiting
}

// PublishStatus updates the bot presence from the current queue state.
func (b *Bot) PublishStatus(busy bool, waiting int) {
	if !b.ready.Load() {
		return
	}
	if err := b.session.UpdateWatchStatus(0, status.Text(busy, waiting)); err != nil {
		b.log.Warn().Err(err).Msg("failed to update presence")
	}
}

func (b *Bot) respondEphemeral(i *discordgo.Interaction, content string) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to respond to interaction")
	}
}

func (b *Bot) followupEphemeral(i *discordgo.Interaction, content string) {
	_, err := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to send follow-up")
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

/* handlers.go
 * Contains testable handler methods that accept DiscordSession interface: chat commands, button and select menu
 * interactions, deleted messages and voice channel moves
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const commandPrefix = "$"

// splitArgs splits a command into its words. Words containing spaces are written in double quotes, e.g.
// $team create "Team Liquid"
func splitArgs(content string) ([]string, error) {
	spaceSplitter, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, err
	}
	parts, err := spaceSplitter.Split(strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}
	args := lo.Map(parts, func(p string, _ int) string {
		return strings.Trim(strings.TrimSpace(p), "\"“”")
	})
	return lo.Compact(args), nil
}

// newMessageHandler routes messages to appropriate handlers with a DiscordSession interface
// botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author == nil || message.Author.ID == botUserID || message.Author.Bot {
		return
	}
	if !strings.HasPrefix(message.Content, commandPrefix) {
		return
	}
	args, err := splitArgs(message.Content)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, "Could not read the command, check that every \" is closed")
		return
	}
	if len(args) == 0 {
		return
	}

	// Route to appropriate handler
	switch strings.ToLower(args[0]) {
	case "$help":
		b.helpMessageHandler(session, message)

	case "$link":
		b.linkHandler(session, message, args[1:])

	case "$lobby":
		b.lobbyHandler(session, message, args[1:])

	case "$lobbies":
		b.listLobbiesHandler(session, message)

	case "$cvar":
		b.cvarHandler(session, message, args[1:])

	case "$team":
		b.teamHandler(session, message, args[1:])
	}
}

// interactionHandler forwards a pressed button or a select menu choice to the display's subscriptions
func (b *Bot) interactionHandler(session DiscordSession, interaction *discordgo.InteractionCreate) {
	if interaction.Interaction == nil || interaction.Type != discordgo.InteractionMessageComponent || interaction.Message == nil {
		return
	}
	value, ok := choiceValue(interaction.MessageComponentData())
	if !ok {
		return
	}
	userID := interactionUser(interaction.Interaction)
	if userID == "" {
		return
	}

	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if !b.Surface.dispatch(interaction.Message.ID, shared.ChoiceEvent{UserID: userID, Value: value}) {
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "This prompt is no longer active",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}
	}
	if err := session.InteractionRespond(interaction.Interaction, resp); err != nil {
		b.log.Debug("failed to acknowledge interaction", zap.Error(err))
	}
}

func interactionUser(interaction *discordgo.Interaction) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

// messageDeleteHandler tells the engine that one of its displays was deleted
func (b *Bot) messageDeleteHandler(message *discordgo.MessageDelete) {
	if message.Message == nil {
		return
	}
	b.Surface.messageDeleted(message.ID)
}

// voiceStateHandler turns moves into and out of a lobby's queue voice channel into queue joins and leaves. A join
// that the engine rejects is explained in the lobby's text channel and the member is moved to the pre-match
// channel
func (b *Bot) voiceStateHandler(session DiscordSession, update *discordgo.VoiceStateUpdate) {
	if update.VoiceState == nil {
		return
	}
	before := ""
	if update.BeforeUpdate != nil {
		before = update.BeforeUpdate.ChannelID
	}
	after := update.ChannelID
	if before == after {
		return
	}
	ctx := context.Background()

	if before != "" {
		if lobby, err := b.APIPtr.LobbyForChannel(ctx, before); err == nil {
			if err := b.APIPtr.HandleLeave(ctx, lobby.ID, update.UserID); err != nil && !errors.Is(err, api.ErrLobbyLocked) {
				b.log.Warn("failed to leave queue", zap.String("lobby", lobby.ID), zap.String("user", update.UserID), zap.Error(err))
			}
		}
	}
	if after == "" {
		return
	}
	lobby, err := b.APIPtr.LobbyForChannel(ctx, after)
	if err != nil {
		return
	}
	err = b.APIPtr.HandleJoin(ctx, lobby.ID, update.UserID)
	if err == nil {
		return
	}
	session.ChannelMessageSend(lobby.Spaces.TextChannelID, fmt.Sprintf("<@%s> %s", update.UserID, b.userMessage(err, "joining the queue")))
	if lobby.Spaces.PrematchChannelID == "" {
		return
	}
	prematch := lobby.Spaces.PrematchChannelID
	if err := session.GuildMemberMove(update.GuildID, update.UserID, &prematch); err != nil {
		b.log.Debug("failed to move rejected member out of the queue", zap.String("user", update.UserID), zap.Error(err))
	}
}

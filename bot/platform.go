/* platform.go
 * Contains the Discord side effects of the engine other than displays: the channels of lobbies and matches, entry
 * permissions of queue channels and moving members between voice channels
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Discord error code for moving a member that is not connected to voice
const errCodeNotInVoice = 40032

// Platform implements api.Platform on top of a Discord session
type Platform struct {
	session DiscordSession
	log     *zap.Logger
}

// NewPlatform creates a Platform that acts through the given session
func NewPlatform(session DiscordSession, logger *zap.Logger) *Platform {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Platform{session: session, log: logger}
}

// CreateLobbySpaces creates a category holding the lobby's text channel, queue voice channel and pre-match voice
// channel. Channels already created are deleted again when a later one fails
// Preconditions: Receives the guild and the lobby name
// Postconditions: Returns the ids of the created channels
func (p *Platform) CreateLobbySpaces(ctx context.Context, guildID string, name string) (shared.LobbySpaces, error) {
	var spaces shared.LobbySpaces
	category, err := p.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return spaces, err
	}
	spaces.CategoryID = category.ID

	children := []struct {
		name  string
		kind  discordgo.ChannelType
		field *string
	}{
		{"queue", discordgo.ChannelTypeGuildText, &spaces.TextChannelID},
		{"Lobby", discordgo.ChannelTypeGuildVoice, &spaces.QueueChannelID},
		{"Pre-match", discordgo.ChannelTypeGuildVoice, &spaces.PrematchChannelID},
	}
	for _, c := range children {
		channel, err := p.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
			Name:     c.name,
			Type:     c.kind,
			ParentID: category.ID,
		})
		if err != nil {
			if cleanupErr := p.DeleteLobbySpaces(context.WithoutCancel(ctx), spaces); cleanupErr != nil {
				p.log.Warn("failed to delete partially created lobby channels", zap.Error(cleanupErr))
			}
			return shared.LobbySpaces{}, err
		}
		*c.field = channel.ID
	}
	return spaces, nil
}

// DeleteLobbySpaces deletes the channels of a lobby, children before the category. Channels that are already gone
// are skipped
func (p *Platform) DeleteLobbySpaces(ctx context.Context, spaces shared.LobbySpaces) error {
	return p.deleteChannels(ctx, spaces.TextChannelID, spaces.QueueChannelID, spaces.PrematchChannelID, spaces.CategoryID)
}

// SetQueueEntry opens or closes the queue voice channel for everyone in the guild
func (p *Platform) SetQueueEntry(ctx context.Context, lobby *shared.Lobby, open bool) error {
	var allow, deny int64
	if open {
		allow = discordgo.PermissionVoiceConnect
	} else {
		deny = discordgo.PermissionVoiceConnect
	}
	// the @everyone role shares the guild id
	err := p.session.ChannelPermissionSet(lobby.Spaces.QueueChannelID, lobby.GuildID, discordgo.PermissionOverwriteTypeRole, allow, deny, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to set queue entry of lobby %s: %w", lobby.ID, err)
	}
	return nil
}

// SetEarlyAccess grants or revokes a member overwrite on the queue channel for each user
func (p *Platform) SetEarlyAccess(ctx context.Context, lobby *shared.Lobby, userIDs []string, allow bool) error {
	var errs error
	for _, userID := range userIDs {
		var err error
		if allow {
			err = p.session.ChannelPermissionSet(lobby.Spaces.QueueChannelID, userID, discordgo.PermissionOverwriteTypeMember,
				discordgo.PermissionVoiceConnect|discordgo.PermissionViewChannel, 0, discordgo.WithContext(ctx))
		} else {
			err = p.session.ChannelPermissionDelete(lobby.Spaces.QueueChannelID, userID, discordgo.WithContext(ctx))
			if isNotFound(err) {
				err = nil
			}
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

// CreateMatchSpaces creates one voice channel per team in the lobby's category that only the team can join
func (p *Platform) CreateMatchSpaces(ctx context.Context, lobby *shared.Lobby, match *shared.Match) (shared.MatchSpaces, error) {
	var spaces shared.MatchSpaces
	for _, team := range match.Teams {
		overwrites := []*discordgo.PermissionOverwrite{
			{ID: lobby.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionVoiceConnect},
		}
		for _, member := range team.Members {
			overwrites = append(overwrites, &discordgo.PermissionOverwrite{
				ID:    member,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionVoiceConnect,
			})
		}
		channel, err := p.createChannel(ctx, lobby.GuildID, discordgo.GuildChannelCreateData{
			Name:                 fmt.Sprintf("Match #%d %s", match.ID, team.Name),
			Type:                 discordgo.ChannelTypeGuildVoice,
			ParentID:             lobby.Spaces.CategoryID,
			UserLimit:            len(team.Members),
			PermissionOverwrites: overwrites,
		})
		if err != nil {
			if cleanupErr := p.DeleteMatchSpaces(context.WithoutCancel(ctx), spaces); cleanupErr != nil {
				p.log.Warn("failed to delete partially created match channels", zap.Int("match", match.ID), zap.Error(cleanupErr))
			}
			return shared.MatchSpaces{}, err
		}
		spaces.ChannelIDs = append(spaces.ChannelIDs, channel.ID)
	}
	return spaces, nil
}

// DeleteMatchSpaces deletes the team voice channels of a match
func (p *Platform) DeleteMatchSpaces(ctx context.Context, spaces shared.MatchSpaces) error {
	return p.deleteChannels(ctx, spaces.ChannelIDs...)
}

// MovePlayers moves each user into a voice channel. Users that are not connected to voice are skipped
func (p *Platform) MovePlayers(ctx context.Context, guildID string, userIDs []string, channelID string) error {
	var errs error
	for _, userID := range userIDs {
		err := p.session.GuildMemberMove(guildID, userID, &channelID, discordgo.WithContext(ctx))
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == errCodeNotInVoice {
			continue
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (p *Platform) createChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	channel, err := p.session.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create channel %q: %w", data.Name, err)
	}
	return channel, nil
}

func (p *Platform) deleteChannels(ctx context.Context, channelIDs ...string) error {
	var errs error
	for _, id := range channelIDs {
		if id == "" {
			continue
		}
		if _, err := p.session.ChannelDelete(id, discordgo.WithContext(ctx)); err != nil && !isNotFound(err) {
			errs = multierr.Append(errs, fmt.Errorf("failed to delete channel %s: %w", id, err))
		}
	}
	return errs
}

var _ api.Platform = (*Platform)(nil)

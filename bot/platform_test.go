/* platform_test.go
 * Contains unit tests for the Discord channels, permissions and voice moves the engine asks for
 * Authors: Zachary Bower
 */

package bot

import (
	"errors"
	"testing"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// region Lobby spaces

func TestCreateLobbySpaces(t *testing.T) {
	session := NewMockDiscordSession()
	platform := NewPlatform(session, nil)

	spaces, err := platform.CreateLobbySpaces(t.Context(), "guild1", "Main")

	require.NoError(t, err)
	require.Len(t, session.Channels, 4)
	category := session.Channels[spaces.CategoryID]
	assert.Equal(t, "Main", category.Name)
	assert.Equal(t, discordgo.ChannelTypeGuildCategory, category.Type)
	assert.Equal(t, discordgo.ChannelTypeGuildText, session.Channels[spaces.TextChannelID].Type)
	assert.Equal(t, discordgo.ChannelTypeGuildVoice, session.Channels[spaces.QueueChannelID].Type)
	assert.Equal(t, "Pre-match", session.Channels[spaces.PrematchChannelID].Name)
	for _, id := range []string{spaces.TextChannelID, spaces.QueueChannelID, spaces.PrematchChannelID} {
		assert.Equal(t, spaces.CategoryID, session.Channels[id].ParentID)
	}
}

func TestCreateLobbySpaces_CleansUpOnFailure(t *testing.T) {
	session := NewMockDiscordSession()
	session.CreateChannelError = errors.New("maximum number of channels reached")
	session.FailAfter = 2
	platform := NewPlatform(session, nil)

	spaces, err := platform.CreateLobbySpaces(t.Context(), "guild1", "Main")

	assert.ErrorContains(t, err, "maximum number of channels reached")
	assert.Equal(t, shared.LobbySpaces{}, spaces)
	assert.Empty(t, session.Channels)
	assert.Len(t, session.DeletedChannels, 2)
}

func TestDeleteLobbySpaces_SkipsMissingChannels(t *testing.T) {
	session := NewMockDiscordSession()
	platform := NewPlatform(session, nil)
	spaces, err := platform.CreateLobbySpaces(t.Context(), "guild1", "Main")
	require.NoError(t, err)
	delete(session.Channels, spaces.TextChannelID)

	require.NoError(t, platform.DeleteLobbySpaces(t.Context(), spaces))

	assert.Empty(t, session.Channels)
	assert.Equal(t, []string{spaces.QueueChannelID, spaces.PrematchChannelID, spaces.CategoryID}, session.DeletedChannels)
}

// endregion

// region Permissions

func testLobby() *shared.Lobby {
	return &shared.Lobby{
		ID:      "l1",
		GuildID: "guild1",
		Spaces:  shared.LobbySpaces{CategoryID: "cat", QueueChannelID: "queue", TextChannelID: "text", PrematchChannelID: "prematch"},
	}
}

func TestSetQueueEntry(t *testing.T) {
	session := NewMockDiscordSession()
	platform := NewPlatform(session, nil)

	require.NoError(t, platform.SetQueueEntry(t.Context(), testLobby(), false))
	require.NoError(t, platform.SetQueueEntry(t.Context(), testLobby(), true))

	assert.Equal(t, []MockPermission{
		{ChannelID: "queue", TargetID: "guild1", Deny: discordgo.PermissionVoiceConnect},
		{ChannelID: "queue", TargetID: "guild1", Allow: discordgo.PermissionVoiceConnect},
	}, session.Permissions)
}

func TestSetQueueEntry_Error(t *testing.T) {
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("missing permissions")
	platform := NewPlatform(session, nil)

	err := platform.SetQueueEntry(t.Context(), testLobby(), false)

	assert.ErrorContains(t, err, "lobby l1")
}

func TestSetEarlyAccess(t *testing.T) {
	session := NewMockDiscordSession()
	platform := NewPlatform(session, nil)

	require.NoError(t, platform.SetEarlyAccess(t.Context(), testLobby(), []string{"u1", "u2"}, true))
	require.NoError(t, platform.SetEarlyAccess(t.Context(), testLobby(), []string{"u1"}, false))

	require.Len(t, session.Permissions, 3)
	assert.Equal(t, MockPermission{ChannelID: "queue", TargetID: "u2", Allow: discordgo.PermissionVoiceConnect | discordgo.PermissionViewChannel}, session.Permissions[1])
	assert.Equal(t, MockPermission{ChannelID: "queue", TargetID: "u1", Deleted: true}, session.Permissions[2])
}

// endregion

// region Match spaces

func TestCreateMatchSpaces(t *testing.T) {
	session := NewMockDiscordSession()
	platform := NewPlatform(session, nil)
	match := &shared.Match{
		ID: 42,
		Teams: [2]shared.MatchTeam{
			{Name: "team_u1", Members: []string{"u1", "u2"}},
			{Name: "team_u3", Members: []string{"u3", "u4"}},
		},
	}

	spaces, err := platform.CreateMatchSpaces(t.Context(), testLobby(), match)

	require.NoError(t, err)
	require.Len(t, spaces.ChannelIDs, 2)
	channel := session.Channels[spaces.ChannelIDs[0]]
	assert.Equal(t, "Match #42 team_u1", channel.Name)
	assert.Equal(t, "cat", channel.ParentID)
	assert.Equal(t, 2, channel.UserLimit)
	require.Len(t, channel.PermissionOverwrites, 3)
	assert.Equal(t, "guild1", channel.PermissionOverwrites[0].ID)
	assert.Equal(t, int64(discordgo.PermissionVoiceConnect), channel.PermissionOverwrites[0].Deny)
	assert.Equal(t, "u2", channel.PermissionOverwrites[2].ID)

	require.NoError(t, platform.DeleteMatchSpaces(t.Context(), spaces))
	assert.Empty(t, session.Channels)
}

func TestCreateMatchSpaces_CleansUpOnFailure(t *testing.T) {
	session := NewMockDiscordSession()
	session.CreateChannelError = errors.New("rate limited")
	session.FailAfter = 1
	platform := NewPlatform(session, nil)
	match := &shared.Match{ID: 7, Teams: [2]shared.MatchTeam{{Name: "a"}, {Name: "b"}}}

	_, err := platform.CreateMatchSpaces(t.Context(), testLobby(), match)

	assert.ErrorContains(t, err, "rate limited")
	assert.Empty(t, session.Channels)
}

// endregion

// region Moves

func TestMovePlayers_SkipsMembersNotInVoice(t *testing.T) {
	session := NewMockDiscordSession()
	session.NotInVoice["u2"] = true
	platform := NewPlatform(session, nil)

	err := platform.MovePlayers(t.Context(), "guild1", []string{"u1", "u2", "u3"}, "team_channel")

	require.NoError(t, err)
	assert.Equal(t, []MockMove{{UserID: "u1", ChannelID: "team_channel"}, {UserID: "u3", ChannelID: "team_channel"}}, session.Moves)
}

func TestMovePlayers_CollectsErrors(t *testing.T) {
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("missing permissions")
	platform := NewPlatform(session, nil)

	err := platform.MovePlayers(t.Context(), "guild1", []string{"u1", "u2"}, "team_channel")

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

// endregion

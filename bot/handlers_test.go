/* handlers_test.go
 * Contains unit tests for bot command handlers using mock Discord session
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"testing"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testBot struct {
	bot     *Bot
	session *MockDiscordSession
	store   *api.MockStore
	host    *api.MockMatchHost
}

// createTestBot creates a Bot whose engine renders through the mock session and stores in memory
func createTestBot(t *testing.T) *testBot {
	t.Helper()
	session := NewMockDiscordSession()
	logger := zaptest.NewLogger(t)
	surface := NewSurface(session, logger)
	store := api.NewMockStore()
	host := api.NewMockMatchHost()
	engine, err := api.NewAPI(api.Config{
		Store:    store,
		Host:     host,
		Surface:  surface,
		Platform: NewPlatform(session, logger),
		Logger:   logger,
		Timeouts: api.Timeouts{Invite: 50 * time.Millisecond, Poll: time.Hour},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	b, err := NewBot("test_token", engine, surface, logger)
	require.NoError(t, err)
	return &testBot{bot: b, session: session, store: store, host: host}
}

// createMockMessage creates a mock Discord message for testing
func createMockMessage(content, userID, username, channelID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			ChannelID: channelID,
			GuildID:   "guild1",
			Author: &discordgo.User{
				ID:       userID,
				Username: username,
			},
		},
	}
}

func (tb *testBot) send(content string, userID string) string {
	tb.bot.newMessageHandler(tb.session, createMockMessage(content, userID, "name_"+userID, "channel123"), "bot_id")
	return tb.session.GetLastMessage().Content
}

func (tb *testBot) linkUser(userID string) {
	tb.store.Users[userID] = &shared.User{UserID: userID, Username: "name_" + userID, SteamID: "76561198000000001"}
}

// region Routing

func TestHelpMessage_Success(t *testing.T) {
	tb := createTestBot(t)

	reply := tb.send("$help", "user123")

	assert.Contains(t, reply, "$link")
	assert.Contains(t, reply, "$lobby create")
	assert.Contains(t, reply, "$team join")
	assert.Equal(t, "channel123", tb.session.GetLastMessage().ChannelID)
}

func TestNewMessageHandler_IgnoresBotMessages(t *testing.T) {
	tb := createTestBot(t)

	tb.bot.newMessageHandler(tb.session, createMockMessage("$help", "bot_id", "bot", "channel123"), "bot_id")
	other := createMockMessage("$help", "other_bot", "bot", "channel123")
	other.Author.Bot = true
	tb.bot.newMessageHandler(tb.session, other, "bot_id")

	assert.Empty(t, tb.session.SentMessages)
}

func TestNewMessageHandler_IgnoresNonCommands(t *testing.T) {
	tb := createTestBot(t)

	tb.send("hello $help", "user123")
	tb.send("$unknown", "user123")

	assert.Empty(t, tb.session.SentMessages)
}

func TestNewMessageHandler_UnclosedQuote(t *testing.T) {
	tb := createTestBot(t)

	reply := tb.send(`$lobby create "Main`, "user123")

	assert.Contains(t, reply, "Could not read the command")
	assert.Empty(t, tb.store.Lobbies)
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`$lobby create "Main Lobby"  10`)
	require.NoError(t, err)
	assert.Equal(t, []string{"$lobby", "create", "Main Lobby", "10"}, args)

	args, err = splitArgs("$team")
	require.NoError(t, err)
	assert.Equal(t, []string{"$team"}, args)
}

// endregion

// region $link

func TestLink_Success(t *testing.T) {
	tb := createTestBot(t)

	reply := tb.send("$link 76561198000000001", "user123")

	assert.Contains(t, reply, "is now linked")
	require.Contains(t, tb.store.Users, "user123")
	assert.Equal(t, "76561198000000001", tb.store.Users["user123"].SteamID)
}

func TestLink_Invalid(t *testing.T) {
	tb := createTestBot(t)

	assert.Equal(t, api.ErrInvalidSteamID.Error(), tb.send("$link 1234", "user123"))
	assert.Contains(t, tb.send("$link", "user123"), "Usage")
	assert.NotContains(t, tb.store.Users, "user123")
}

// endregion

// region $lobby

func TestLobbyCreate(t *testing.T) {
	tb := createTestBot(t)

	reply := tb.send(`$lobby create "Main Lobby" 4`, "admin")

	assert.Equal(t, "Lobby Main Lobby created for 4 players", reply)
	lobbies, err := tb.bot.APIPtr.ListLobbies(t.Context(), "guild1")
	require.NoError(t, err)
	require.Len(t, lobbies, 1)
	lobby := lobbies[0]
	assert.Equal(t, 4, lobby.Capacity)
	assert.Len(t, tb.session.Channels, 4, "category, text, queue and pre-match channels")
	assert.Equal(t, lobby.Spaces.CategoryID, tb.session.Channels[lobby.Spaces.QueueChannelID].ParentID)
	assert.Equal(t, discordgo.ChannelTypeGuildVoice, tb.session.Channels[lobby.Spaces.QueueChannelID].Type)

	display, ok := tb.session.Message(lobby.Display.MessageID)
	require.True(t, ok, "queue display is posted")
	assert.Equal(t, "Main Lobby queue 0/4", display.Embeds[0].Title)
}

func TestLobbyCreate_InvalidCapacity(t *testing.T) {
	tb := createTestBot(t)

	assert.Equal(t, api.ErrInvalidCapacity.Error(), tb.send("$lobby create Main 5", "admin"))
	assert.Empty(t, tb.store.Lobbies)
}

func TestLobbySettings(t *testing.T) {
	tb := createTestBot(t)
	tb.send("$lobby create Main", "admin")
	lobbyID := func() string {
		lobbies, _ := tb.bot.APIPtr.ListLobbies(t.Context(), "guild1")
		return lobbies[0].ID
	}()

	assert.Equal(t, "Lobby Main series updated", tb.send("$lobby series main bo3", "admin"))
	assert.Equal(t, shared.SeriesBo3, tb.store.LobbySnapshot(lobbyID).Series)

	assert.Equal(t, api.ErrUnchanged.Error(), tb.send("$lobby series Main bo3", "admin"))
	assert.Equal(t, api.ErrInvalidSeries.Error(), tb.send("$lobby series Main bo4", "admin"))

	assert.Equal(t, "Lobby Main team method updated", tb.send("$lobby teams Main random", "admin"))
	assert.Equal(t, shared.TeamMethodRandom, tb.store.LobbySnapshot(lobbyID).TeamMethod)

	assert.Equal(t, "Lobby Main capacity set to 2", tb.send("$lobby capacity Main 2", "admin"))
	assert.Equal(t, 2, tb.store.LobbySnapshot(lobbyID).Capacity)
	assert.Contains(t, tb.send("$lobby capacity Main lots", "admin"), "not a number")
	assert.Equal(t, errUsage.Error(), tb.send("$lobby capacity Main", "admin"))

	assert.Equal(t, "Lobby Main region updated", tb.send("$lobby region Main eu", "admin"))
	assert.Equal(t, "EU", tb.store.LobbySnapshot(lobbyID).Region)

	assert.Equal(t, api.ErrSeasonNotFound.Error(), tb.send("$lobby season Main 2", "admin"))

	assert.Contains(t, tb.send("$lobby frobnicate Main", "admin"), "Unknown lobby action")
}

func TestLobbyMaps(t *testing.T) {
	tb := createTestBot(t)
	tb.send("$lobby create Main", "admin")
	lobbies, _ := tb.bot.APIPtr.ListLobbies(t.Context(), "guild1")
	lobbyID := lobbies[0].ID

	reply := tb.send("$lobby maps Main mirage de_nuke", "admin")
	assert.Equal(t, "Lobby Main map pool set to de_mirage, de_nuke", reply)
	assert.Equal(t, []string{"de_mirage", "de_nuke"}, tb.store.LobbySnapshot(lobbyID).MapPool)

	reply = tb.send("$lobby maps Main mirage notamap", "admin")
	assert.Contains(t, reply, "Unknown maps: notamap")
	assert.Equal(t, []string{"de_mirage", "de_nuke"}, tb.store.LobbySnapshot(lobbyID).MapPool)
}

func TestLobbyDelete(t *testing.T) {
	tb := createTestBot(t)
	tb.send("$lobby create Main", "admin")

	assert.Equal(t, "Lobby Main deleted", tb.send("$lobby delete Main", "admin"))
	assert.Empty(t, tb.store.Lobbies)
	assert.Empty(t, tb.session.Channels)
	assert.Empty(t, tb.session.Messages, "queue display is removed")

	assert.Equal(t, api.ErrLobbyNotFound.Error(), tb.send("$lobby delete Main", "admin"))
}

func TestListLobbies(t *testing.T) {
	tb := createTestBot(t)
	assert.Contains(t, tb.send("$lobbies", "admin"), "No lobbies")

	tb.send("$lobby create Main 4", "admin")
	reply := tb.send("$lobbies", "admin")
	assert.Contains(t, reply, "- Main: 0/4 queued, bo1, captains")
}

// endregion

// region $cvar

func TestCvarCommands(t *testing.T) {
	tb := createTestBot(t)
	tb.send("$lobby create Main", "admin")
	lobbies, _ := tb.bot.APIPtr.ListLobbies(t.Context(), "guild1")
	lobbyID := lobbies[0].ID

	assert.Equal(t, `Set mp_maxrounds to "24" on lobby Main`, tb.send("$cvar add Main mp_maxrounds 24", "admin"))
	assert.Equal(t, map[string]string{"mp_maxrounds": "24"}, tb.store.LobbySnapshot(lobbyID).Cvars)

	assert.Equal(t, "Removed mp_maxrounds from lobby Main", tb.send("$cvar del Main mp_maxrounds", "admin"))
	assert.Equal(t, api.ErrCvarNotFound.Error(), tb.send("$cvar del Main mp_maxrounds", "admin"))
	assert.Equal(t, api.ErrInvalidCvar.Error(), tb.send("$cvar add Main $bad 1", "admin"))
	assert.Contains(t, tb.send("$cvar add Main", "admin"), "Usage")
}

// endregion

// region $team

func TestTeamCommands(t *testing.T) {
	tb := createTestBot(t)
	tb.linkUser("cap")

	assert.Equal(t, "Team Team Liquid created with name_cap as captain", tb.send(`$team create "Team Liquid"`, "cap"))
	assert.Equal(t, api.ErrAlreadyOnTeam.Error(), tb.send("$team create Other", "cap"))
	assert.Equal(t, api.ErrNotLinked.Error(), tb.send("$team create Other", "stranger"))

	reply := tb.send("$team", "cap")
	assert.Contains(t, reply, "Team Liquid (captain <@cap>)")
	assert.Contains(t, tb.send("$team", "stranger"), "is not on a team")

	assert.Equal(t, "name_cap left their team", tb.send("$team leave", "cap"))
	assert.Empty(t, tb.store.Teams)
	assert.Equal(t, api.ErrTeamNotFound.Error(), tb.send("$team leave", "cap"))
}

func TestTeamJoin_Expires(t *testing.T) {
	tb := createTestBot(t)
	tb.linkUser("cap")
	tb.linkUser("u2")
	tb.send("$team create Falcons", "cap")

	reply := tb.send("$team join Falcons", "u2")

	assert.Equal(t, "name_u2's request to join Falcons was expired", reply)
	assert.Equal(t, 0, tb.bot.Surface.subscriptions())
}

// endregion

// region Interactions

func componentInteraction(messageID string, userID string, data discordgo.MessageComponentInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		Message: &discordgo.Message{ID: messageID},
		Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:    data,
	}}
}

func TestInteractionHandler_DeliversChoice(t *testing.T) {
	tb := createTestBot(t)
	sub, err := tb.bot.Surface.Subscribe(shared.SurfaceRef{ChannelID: "c1", MessageID: "m1"})
	require.NoError(t, err)
	defer sub.Close()

	tb.bot.interactionHandler(tb.session, componentInteraction("m1", "u1", discordgo.MessageComponentInteractionData{CustomID: customIDPrefix + "ready"}))
	tb.bot.interactionHandler(tb.session, componentInteraction("m1", "u2", discordgo.MessageComponentInteractionData{
		CustomID: menuIDPrefix + "0",
		Values:   []string{"de_nuke"},
	}))

	assert.Equal(t, shared.ChoiceEvent{UserID: "u1", Value: "ready"}, <-sub.Choices())
	assert.Equal(t, shared.ChoiceEvent{UserID: "u2", Value: "de_nuke"}, <-sub.Choices())
	require.Len(t, tb.session.Responses, 2)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, tb.session.Responses[0].Type)
}

func TestInteractionHandler_InactivePrompt(t *testing.T) {
	tb := createTestBot(t)

	tb.bot.interactionHandler(tb.session, componentInteraction("m9", "u1", discordgo.MessageComponentInteractionData{CustomID: customIDPrefix + "ready"}))

	require.Len(t, tb.session.Responses, 1)
	resp := tb.session.Responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestInteractionHandler_IgnoresForeignComponents(t *testing.T) {
	tb := createTestBot(t)

	tb.bot.interactionHandler(tb.session, componentInteraction("m1", "u1", discordgo.MessageComponentInteractionData{CustomID: "other_bot_button"}))

	assert.Empty(t, tb.session.Responses)
}

func TestMessageDeleteHandler(t *testing.T) {
	tb := createTestBot(t)
	sub, err := tb.bot.Surface.Subscribe(shared.SurfaceRef{ChannelID: "c1", MessageID: "m1"})
	require.NoError(t, err)
	defer sub.Close()

	tb.bot.messageDeleteHandler(&discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1"}})
	tb.bot.messageDeleteHandler(&discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1"}})

	select {
	case <-sub.Deleted():
	default:
		t.Fatal("subscription was not told about the deletion")
	}
}

// endregion

// region Voice

func voiceMove(userID string, from string, to string) *discordgo.VoiceStateUpdate {
	update := &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{GuildID: "guild1", UserID: userID, ChannelID: to}}
	if from != "" {
		update.BeforeUpdate = &discordgo.VoiceState{GuildID: "guild1", UserID: userID, ChannelID: from}
	}
	return update
}

func addVoiceLobby(tb *testBot) {
	tb.store.Lobbies["l1"] = &shared.Lobby{
		ID:            "l1",
		GuildID:       "guild1",
		Name:          "Main",
		Capacity:      10,
		Mode:          shared.ModePug,
		TeamMethod:    shared.TeamMethodRandom,
		CaptainMethod: shared.CaptainMethodRandom,
		Series:        shared.SeriesBo1,
		MapPool:       []string{"de_mirage"},
		Spaces:        shared.LobbySpaces{QueueChannelID: "queue", TextChannelID: "text", PrematchChannelID: "prematch"},
		Queue:         []shared.QueuedPlayer{},
	}
}

func TestVoiceStateHandler_JoinAndLeave(t *testing.T) {
	tb := createTestBot(t)
	addVoiceLobby(tb)
	tb.linkUser("u1")

	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "", "queue"))
	assert.Equal(t, []string{"u1"}, tb.store.LobbySnapshot("l1").QueuedIDs())

	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "queue", "queue"))
	assert.Equal(t, []string{"u1"}, tb.store.LobbySnapshot("l1").QueuedIDs(), "same channel updates are ignored")

	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "queue", "general"))
	assert.Empty(t, tb.store.LobbySnapshot("l1").Queue)
	assert.Empty(t, tb.session.SentMessages)
}

func TestVoiceStateHandler_RejectedJoin(t *testing.T) {
	tb := createTestBot(t)
	addVoiceLobby(tb)

	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "general", "queue"))

	assert.Empty(t, tb.store.LobbySnapshot("l1").Queue)
	last := tb.session.GetLastMessage()
	assert.Equal(t, "text", last.ChannelID)
	assert.Equal(t, "<@u1> "+api.ErrNotLinked.Error(), last.Content)
	require.Len(t, tb.session.Moves, 1)
	assert.Equal(t, MockMove{UserID: "u1", ChannelID: "prematch"}, tb.session.Moves[0])
}

func TestVoiceStateHandler_OtherChannels(t *testing.T) {
	tb := createTestBot(t)
	addVoiceLobby(tb)
	tb.linkUser("u1")

	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "", "general"))
	tb.bot.voiceStateHandler(tb.session, voiceMove("u1", "general", ""))

	assert.Empty(t, tb.store.LobbySnapshot("l1").Queue)
	assert.Empty(t, tb.session.SentMessages)
}

// endregion

/* commands.go
 * Contains the chat commands: linking steam accounts, lobby administration, cvars and team rosters
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/logic"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
)

// helpMessageHandler handles the $help command with a DiscordSession interface
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("G5 Bot\n")
	res.WriteString("`$link <steamid64>`: Links your steam account. Required before joining a queue\n")
	res.WriteString("Join a lobby's queue voice channel to queue, leave it to leave the queue\n")
	res.WriteString("`$lobbies`: Lists the lobbies of this server\n")
	res.WriteString("`$lobby create <name> [capacity] [pug|team]`: Creates a lobby with its channels\n")
	res.WriteString("`$lobby delete <name>`: Deletes a lobby and its channels\n")
	res.WriteString("`$lobby capacity <name> <n>`: Sets the number of players, an even number between 2 and 32. Clears the queue\n")
	res.WriteString("`$lobby series <name> <bo1|bo2|bo3|bo5>`: Sets the series length\n")
	res.WriteString("`$lobby teams <name> <captains|autobalance|random>`: Sets how teams are formed\n")
	res.WriteString("`$lobby captains <name> <volunteer|rank|random>`: Sets how draft captains are chosen\n")
	res.WriteString("`$lobby region <name> [region]`: Restricts servers to a region flag. No region allows any server\n")
	res.WriteString("`$lobby season <name> <id>`: Attaches matches to a season, 0 detaches\n")
	res.WriteString("`$lobby maps <name> <map1> ... <mapN>`: Sets the map pool. There is fuzzy matching on map names\n")
	res.WriteString("`$lobby empty <name>`: Empties the queue\n")
	res.WriteString("`$cvar add <lobby> <key> <value>` / `$cvar del <lobby> <key>`: Manages custom server variables\n")
	res.WriteString("`$team create <name>` / `$team join <name>` / `$team leave` / `$team`: Manages fixed team rosters\n")
	res.WriteString("Names that contain two or more words need to be encased in \" (e.g. \"Main Lobby\")\n")
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// linkHandler handles `$link <steamid64>`
func (b *Bot) linkHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) != 1 {
		session.ChannelMessageSend(message.ChannelID, "Usage: `$link <steamid64>`")
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := b.APIPtr.LinkUser(ctx, message.Author.ID, message.Author.Username, args[0]); err != nil {
		session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "linking your account"))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s is now linked to steam account %s", message.Author.Username, args[0]))
}

func (b *Bot) listLobbiesHandler(session DiscordSession, message *discordgo.MessageCreate) {
	ctx, cancel := commandContext()
	defer cancel()
	lobbies, err := b.APIPtr.ListLobbies(ctx, message.GuildID)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "listing lobbies"))
		return
	}
	if len(lobbies) == 0 {
		session.ChannelMessageSend(message.ChannelID, "No lobbies. Create one with `$lobby create <name>`")
		return
	}
	var res strings.Builder
	res.WriteString("Lobbies:\n")
	for _, l := range lobbies {
		res.WriteString(fmt.Sprintf("- %s: %d/%d queued, %s, %s\n", l.Name, len(l.Queue), l.Capacity, l.Series, l.TeamMethod))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// lobbyHandler handles the `$lobby <action> ...` administration commands
func (b *Bot) lobbyHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		session.ChannelMessageSend(message.ChannelID, "Usage: `$lobby <action> <name> ...`, see `$help`")
		return
	}
	action, name, rest := strings.ToLower(args[0]), args[1], args[2:]
	ctx, cancel := commandContext()
	defer cancel()

	if action == "create" {
		b.createLobby(ctx, session, message, name, rest)
		return
	}

	lobby, err := b.lobbyByName(ctx, message.GuildID, name)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "finding the lobby"))
		return
	}

	var reply string
	switch action {
	case "delete":
		err = b.APIPtr.DeleteLobby(ctx, lobby.ID)
		reply = fmt.Sprintf("Lobby %s deleted", lobby.Name)
	case "capacity":
		var capacity int
		capacity, err = intArg(rest)
		if err == nil {
			err = b.APIPtr.SetCapacity(ctx, lobby.ID, capacity)
		}
		reply = fmt.Sprintf("Lobby %s capacity set to %d", lobby.Name, capacity)
	case "series":
		err = b.withValue(rest, func(v string) error { return b.APIPtr.SetSeries(ctx, lobby.ID, v) })
		reply = fmt.Sprintf("Lobby %s series updated", lobby.Name)
	case "teams":
		err = b.withValue(rest, func(v string) error { return b.APIPtr.SetTeamMethod(ctx, lobby.ID, v) })
		reply = fmt.Sprintf("Lobby %s team method updated", lobby.Name)
	case "captains":
		err = b.withValue(rest, func(v string) error { return b.APIPtr.SetCaptainMethod(ctx, lobby.ID, v) })
		reply = fmt.Sprintf("Lobby %s captain method updated", lobby.Name)
	case "region":
		err = b.APIPtr.SetRegion(ctx, lobby.ID, strings.Join(rest, ""))
		reply = fmt.Sprintf("Lobby %s region updated", lobby.Name)
	case "season":
		var season int
		season, err = intArg(rest)
		if err == nil {
			err = b.APIPtr.SetSeason(ctx, lobby.ID, season)
		}
		reply = fmt.Sprintf("Lobby %s season updated", lobby.Name)
	case "maps":
		reply, err = b.setMaps(ctx, lobby, rest)
	case "empty":
		err = b.APIPtr.EmptyQueue(ctx, lobby.ID)
		reply = fmt.Sprintf("Lobby %s queue emptied", lobby.Name)
	default:
		reply = fmt.Sprintf("Unknown lobby action %q, see `$help`", action)
	}
	if err != nil {
		reply = b.userMessage(err, "updating the lobby")
	}
	session.ChannelMessageSend(message.ChannelID, reply)
}

func (b *Bot) createLobby(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, name string, rest []string) {
	opts := api.LobbyOptions{GuildID: message.GuildID, Name: name}
	for _, arg := range rest {
		if n, err := strconv.Atoi(arg); err == nil {
			opts.Capacity = n
			continue
		}
		opts.Mode = shared.LobbyMode(strings.ToLower(arg))
	}
	lobby, err := b.APIPtr.CreateLobby(ctx, opts)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "creating the lobby"))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Lobby %s created for %d players", lobby.Name, lobby.Capacity))
}

// setMaps resolves the typed map names and replaces the lobby's pool
func (b *Bot) setMaps(ctx context.Context, lobby *shared.Lobby, input []string) (string, error) {
	resolved, invalid := logic.ResolveMapNames(input, logic.KnownMaps)
	if len(invalid) > 0 {
		return fmt.Sprintf("Unknown maps: %s. Valid maps are %s", strings.Join(invalid, ", "), strings.Join(logic.KnownMaps, ", ")), nil
	}
	if err := b.APIPtr.SetMapPool(ctx, lobby.ID, resolved); err != nil {
		return "", err
	}
	return fmt.Sprintf("Lobby %s map pool set to %s", lobby.Name, strings.Join(resolved, ", ")), nil
}

// cvarHandler handles `$cvar add <lobby> <key> <value>` and `$cvar del <lobby> <key>`
func (b *Bot) cvarHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 3 {
		session.ChannelMessageSend(message.ChannelID, "Usage: `$cvar add <lobby> <key> <value>` or `$cvar del <lobby> <key>`")
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	lobby, err := b.lobbyByName(ctx, message.GuildID, args[1])
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "finding the lobby"))
		return
	}
	key := args[2]

	var reply string
	switch strings.ToLower(args[0]) {
	case "add":
		value := strings.Join(args[3:], " ")
		err = b.APIPtr.AddCvar(ctx, lobby.ID, key, value)
		reply = fmt.Sprintf("Set %s to %q on lobby %s", key, value, lobby.Name)
	case "del", "delete":
		err = b.APIPtr.DeleteCvar(ctx, lobby.ID, key)
		reply = fmt.Sprintf("Removed %s from lobby %s", key, lobby.Name)
	default:
		reply = "Usage: `$cvar add <lobby> <key> <value>` or `$cvar del <lobby> <key>`"
	}
	if err != nil {
		reply = b.userMessage(err, "updating cvars")
	}
	session.ChannelMessageSend(message.ChannelID, reply)
}

// teamHandler handles the `$team` roster commands. A join request blocks until the captain answers or the
// request expires
func (b *Bot) teamHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	user := message.Author
	if len(args) == 0 {
		b.showTeam(session, message)
		return
	}
	action := strings.ToLower(args[0])
	name := strings.Join(args[1:], " ")

	switch action {
	case "create":
		ctx, cancel := commandContext()
		defer cancel()
		team, err := b.APIPtr.CreateTeam(ctx, message.GuildID, name, user.ID)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "creating the team"))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Team %s created with %s as captain", team.Name, user.Username))

	case "join":
		status, err := b.APIPtr.RequestTeamJoin(context.Background(), message.GuildID, name, user.ID, message.ChannelID)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "requesting to join the team"))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s's request to join %s was %s", user.Username, name, status))

	case "leave":
		ctx, cancel := commandContext()
		defer cancel()
		if err := b.APIPtr.LeaveTeam(ctx, message.GuildID, user.ID); err != nil {
			session.ChannelMessageSend(message.ChannelID, b.userMessage(err, "leaving the team"))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s left their team", user.Username))

	default:
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Unknown team action %q, see `$help`", action))
	}
}

func (b *Bot) showTeam(session DiscordSession, message *discordgo.MessageCreate) {
	ctx, cancel := commandContext()
	defer cancel()
	team, err := b.APIPtr.Store.GetTeamByMember(ctx, message.GuildID, message.Author.ID)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s is not on a team", message.Author.Username))
		return
	}
	var res strings.Builder
	res.WriteString(fmt.Sprintf("%s (captain <@%s>)\n", team.Name, team.CaptainID))
	for _, m := range team.Members {
		res.WriteString(fmt.Sprintf("- <@%s>\n", m))
	}
	if pending := b.APIPtr.PendingInvites(team.ID); len(pending) > 0 {
		res.WriteString(fmt.Sprintf("%d pending join requests\n", len(pending)))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// lobbyByName finds a guild's lobby by name, ignoring case
func (b *Bot) lobbyByName(ctx context.Context, guildID string, name string) (*shared.Lobby, error) {
	lobbies, err := b.APIPtr.ListLobbies(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for i := range lobbies {
		if strings.EqualFold(lobbies[i].Name, name) {
			return &lobbies[i], nil
		}
	}
	return nil, api.ErrLobbyNotFound
}

func (b *Bot) withValue(args []string, fn func(v string) error) error {
	if len(args) != 1 {
		return errUsage
	}
	return fn(args[0])
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

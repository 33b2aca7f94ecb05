/* bot.go
 * Contains logic used for creating the bot. Requires a discord bot token and APIPtr, both of which are passed in
 * from main.go, along with the Surface the engine renders its displays on
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/logic"

	"go.uber.org/zap"
)

// commandTimeout bounds a single chat command. Team join requests wait for the captain and use their own window
const commandTimeout = 30 * time.Second

type Bot struct {
	BotToken string
	APIPtr   *api.API
	Surface  *Surface
	log      *zap.Logger
}

// NewBot creates the bot
// Preconditions: Receives a non empty bot token, the engine, the surface the engine posts to and an optional logger
// Postconditions: Returns the bot, or an error if the token or engine is missing
func NewBot(botToken string, apiPtr *api.API, surface *Surface, logger *zap.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("api is required but none was provided")
	}
	if surface == nil {
		return nil, fmt.Errorf("surface is required but none was provided")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		BotToken: botToken,
		APIPtr:   apiPtr,
		Surface:  surface,
		log:      logger,
	}, nil
}

var errUsage = errors.New("missing or invalid value, see `$help`")

// userErrors are the engine errors whose text is shown to users as is
var userErrors = []error{
	api.ErrNotLinked, api.ErrAlreadyInMatch, api.ErrAlreadyQueued, api.ErrQueuedElsewhere, api.ErrLobbyFull, api.ErrNotOnRosteredTeam,
	api.ErrTeamFull, api.ErrLobbyLocked, api.ErrLobbyNotFound, api.ErrInvalidCapacity, api.ErrInvalidSeries,
	api.ErrInvalidMethod, api.ErrUnchanged, api.ErrInvalidCvar, api.ErrCvarNotFound, api.ErrSeasonNotFound,
	api.ErrInvalidSteamID, api.ErrTeamNotFound, api.ErrAlreadyOnTeam, api.ErrTeamNameTaken,
	api.ErrCaptainCannotLeave, api.ErrTeamBusy, api.ErrInvitePending, logic.ErrMapPoolTooSmall, errUsage,
}

// userMessage turns an engine error into the text shown in chat. Unexpected errors are logged and hidden
func (b *Bot) userMessage(err error, action string) string {
	for _, known := range userErrors {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	b.log.Error("command failed", zap.String("action", action), zap.Error(err))
	return fmt.Sprintf("An error occurred %s", action)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

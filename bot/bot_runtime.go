//go:build !test

/* bot_runtime.go
 * Contains runtime-only Discord bot methods that use *discordgo.Session directly.
 * Delegates to testable handlers in handlers.go to avoid code duplication.
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// NewSession creates the Discord session with the intents the bot needs. The session is shared by the Surface,
// the Platform and the bot itself
func NewSession(botToken string) (*discordgo.Session, error) {
	discord, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, err
	}
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
	return discord, nil
}

// Run registers the event handlers, opens the session and blocks until ctx is cancelled
func (b *Bot) Run(ctx context.Context, discord *discordgo.Session) error {
	discord.AddHandler(b.newMessage)
	discord.AddHandler(b.interactionCreate)
	discord.AddHandler(b.messageDelete)
	discord.AddHandler(b.voiceStateUpdate)

	if err := discord.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer discord.Close()

	b.log.Info("G5 bot started", zap.String("user", discord.State.User.Username))
	<-ctx.Done()
	return nil
}

// newMessage delegates to the testable newMessageHandler
// *discordgo.Session implements DiscordSession interface
func (b *Bot) newMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {
	b.newMessageHandler(discord, message, discord.State.User.ID)
}

func (b *Bot) interactionCreate(discord *discordgo.Session, interaction *discordgo.InteractionCreate) {
	b.interactionHandler(discord, interaction)
}

func (b *Bot) messageDelete(_ *discordgo.Session, message *discordgo.MessageDelete) {
	b.messageDeleteHandler(message)
}

// voiceStateUpdate runs on its own goroutine, so a join that fills a lobby may block here for the whole match setup
func (b *Bot) voiceStateUpdate(discord *discordgo.Session, update *discordgo.VoiceStateUpdate) {
	b.voiceStateHandler(discord, update)
}

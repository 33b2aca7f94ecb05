/* surface.go
 * Contains the Discord rendering of engine displays. A display is one message with an embed and a set of buttons,
 * or select menus when there are too many options for buttons. Choices and deletions of a message are routed to
 * the subscriptions the engine holds on it
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const customIDPrefix = "g5:"
const menuIDPrefix = customIDPrefix + "menu:"
const embedColour = 0x5865F2

// Discord limits
const maxButtonsPerRow = 5
const maxRows = 5
const maxMenuOptions = 25

// Surface implements api.Surface on top of a Discord session
type Surface struct {
	session DiscordSession
	log     *zap.Logger

	mu   sync.Mutex
	subs map[string][]*subscription
}

// NewSurface creates a Surface that posts through the given session
func NewSurface(session DiscordSession, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{
		session: session,
		log:     logger,
		subs:    make(map[string][]*subscription),
	}
}

// Post sends a display as a new message
func (s *Surface) Post(ctx context.Context, channelID string, display shared.Display) (shared.SurfaceRef, error) {
	msg, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{renderEmbed(display)},
		Components: renderComponents(display.Options),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return shared.SurfaceRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return shared.SurfaceRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

// Update replaces the content of a posted display. A message that no longer exists returns api.ErrSurfaceGone
func (s *Surface) Update(ctx context.Context, ref shared.SurfaceRef, display shared.Display) error {
	embeds := []*discordgo.MessageEmbed{renderEmbed(display)}
	components := renderComponents(display.Options)
	_, err := s.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if isNotFound(err) {
		return api.ErrSurfaceGone
	}
	return err
}

// Delete removes a posted display
func (s *Surface) Delete(ctx context.Context, ref shared.SurfaceRef) error {
	err := s.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	if isNotFound(err) {
		return api.ErrSurfaceGone
	}
	return err
}

// Subscribe starts collecting the choices made on a display
func (s *Surface) Subscribe(ref shared.SurfaceRef) (api.Subscription, error) {
	if ref.MessageID == "" {
		return nil, api.ErrSurfaceGone
	}
	sub := &subscription{
		surface:   s,
		messageID: ref.MessageID,
		choices:   make(chan shared.ChoiceEvent, 32),
		deleted:   make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[ref.MessageID] = append(s.subs[ref.MessageID], sub)
	s.mu.Unlock()
	return sub, nil
}

// dispatch delivers a choice to the subscriptions of a message and reports whether there were any
func (s *Surface) dispatch(messageID string, ev shared.ChoiceEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[messageID]
	for _, sub := range subs {
		select {
		case sub.choices <- ev:
		default:
			s.log.Warn("dropped choice on a busy display", zap.String("message", messageID), zap.String("user", ev.UserID))
		}
	}
	return len(subs) > 0
}

// messageDeleted signals the subscriptions of a message that was deleted on Discord
func (s *Surface) messageDeleted(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs[messageID] {
		sub.markDeleted()
	}
}

// subscriptions counts the open subscriptions
func (s *Surface) subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, subs := range s.subs {
		n += len(subs)
	}
	return n
}

type subscription struct {
	surface   *Surface
	messageID string
	choices   chan shared.ChoiceEvent
	deleted   chan struct{}
	gone      sync.Once
}

func (sub *subscription) Choices() <-chan shared.ChoiceEvent { return sub.choices }
func (sub *subscription) Deleted() <-chan struct{}           { return sub.deleted }

func (sub *subscription) markDeleted() {
	sub.gone.Do(func() { close(sub.deleted) })
}

// Close removes the subscription. Safe to call more than once
func (sub *subscription) Close() {
	s := sub.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := lo.Without(s.subs[sub.messageID], sub)
	if len(remaining) == 0 {
		delete(s.subs, sub.messageID)
		return
	}
	s.subs[sub.messageID] = remaining
}

// choiceValue extracts the option value of a component interaction, or false if the component is not ours
func choiceValue(data discordgo.MessageComponentInteractionData) (string, bool) {
	if strings.HasPrefix(data.CustomID, menuIDPrefix) {
		if len(data.Values) == 0 {
			return "", false
		}
		return data.Values[0], true
	}
	if strings.HasPrefix(data.CustomID, customIDPrefix) {
		return strings.TrimPrefix(data.CustomID, customIDPrefix), true
	}
	return "", false
}

func renderEmbed(display shared.Display) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       display.Title,
		Description: display.Description,
		Color:       embedColour,
	}
	for _, f := range display.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if display.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: display.Footer}
	}
	return embed
}

// renderComponents lays options out as rows of buttons. More options than fit as buttons are offered as select
// menus of up to 25 options each
func renderComponents(options []shared.Option) []discordgo.MessageComponent {
	components := []discordgo.MessageComponent{}
	if len(options) == 0 {
		return components
	}
	if len(options) <= maxButtonsPerRow*maxRows {
		for _, row := range lo.Chunk(options, maxButtonsPerRow) {
			buttons := lo.Map(row, func(o shared.Option, _ int) discordgo.MessageComponent {
				return discordgo.Button{
					Label:    o.Label,
					Style:    buttonStyle(o.Value),
					CustomID: customIDPrefix + o.Value,
					Disabled: o.Disabled,
				}
			})
			components = append(components, discordgo.ActionsRow{Components: buttons})
		}
		return components
	}
	for i, chunk := range lo.Chunk(lo.Reject(options, func(o shared.Option, _ int) bool { return o.Disabled }), maxMenuOptions) {
		if i == maxRows {
			break
		}
		menuOptions := lo.Map(chunk, func(o shared.Option, _ int) discordgo.SelectMenuOption {
			return discordgo.SelectMenuOption{Label: o.Label, Value: o.Value}
		})
		components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    fmt.Sprintf("%s%d", menuIDPrefix, i),
				Placeholder: fmt.Sprintf("Choose (%d-%d)", i*maxMenuOptions+1, i*maxMenuOptions+len(chunk)),
				Options:     menuOptions,
			},
		}})
	}
	return components
}

func buttonStyle(value string) discordgo.ButtonStyle {
	switch value {
	case "ready", "accept":
		return discordgo.SuccessButton
	case "reject":
		return discordgo.DangerButton
	case "volunteer":
		return discordgo.PrimaryButton
	default:
		return discordgo.SecondaryButton
	}
}

// isNotFound reports whether a Discord request failed because the message or channel no longer exists
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

var _ api.Surface = (*Surface)(nil)

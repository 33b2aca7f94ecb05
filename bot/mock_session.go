/* mock_session.go
 * Contains mock implementation of DiscordSession for testing
 * Authors: Zachary Bower
 */

package bot

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// MockDiscordSession implements DiscordSession in memory and records every request
type MockDiscordSession struct {
	mu   sync.Mutex
	next int

	// SentMessages stores the plain text messages sent during tests
	SentMessages []MockMessage
	// Messages holds the current state of every complex message by id
	Messages map[string]*discordgo.MessageSend
	// Channels holds the channels that were created and not deleted
	Channels        map[string]discordgo.GuildChannelCreateData
	DeletedChannels []string
	Permissions     []MockPermission
	Moves           []MockMove
	Responses       []*discordgo.InteractionResponse

	// ErrorToReturn allows tests to simulate errors on every request
	ErrorToReturn error
	// CreateChannelError fails channel creation once the given number of channels exist
	CreateChannelError error
	FailAfter          int
	// NotInVoice lists users that Discord reports as not connected to voice
	NotInVoice map[string]bool
}

// MockMessage represents a message sent to a channel
type MockMessage struct {
	ChannelID string
	Content   string
}

// MockPermission records a permission overwrite being set or deleted
type MockPermission struct {
	ChannelID string
	TargetID  string
	Allow     int64
	Deny      int64
	Deleted   bool
}

// MockMove records a member being moved between voice channels
type MockMove struct {
	UserID    string
	ChannelID string
}

// NewMockDiscordSession creates a new MockDiscordSession for testing
func NewMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{
		SentMessages: make([]MockMessage, 0),
		Messages:     make(map[string]*discordgo.MessageSend),
		Channels:     make(map[string]discordgo.GuildChannelCreateData),
		NotInVoice:   make(map[string]bool),
	}
}

// notFoundError builds the error Discord returns for an unknown message
func notFoundError(code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "Unknown"},
	}
}

func (m *MockDiscordSession) nextID(prefix string) string {
	m.next++
	return fmt.Sprintf("%s%d", prefix, m.next)
}

// ChannelMessageSend implements DiscordSession.ChannelMessageSend
func (m *MockDiscordSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	m.SentMessages = append(m.SentMessages, MockMessage{
		ChannelID: channelID,
		Content:   content,
	})

	return &discordgo.Message{
		ID:        m.nextID("text"),
		ChannelID: channelID,
		Content:   content,
	}, nil
}

func (m *MockDiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	id := m.nextID("msg")
	m.Messages[id] = data
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (m *MockDiscordSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	msg, ok := m.Messages[edit.ID]
	if !ok {
		return nil, notFoundError(discordgo.ErrCodeUnknownMessage)
	}
	if edit.Embeds != nil {
		msg.Embeds = *edit.Embeds
	}
	if edit.Components != nil {
		msg.Components = *edit.Components
	}
	return &discordgo.Message{ID: edit.ID, ChannelID: edit.Channel}, nil
}

func (m *MockDiscordSession) ChannelMessageDelete(channelID string, messageID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	if _, ok := m.Messages[messageID]; !ok {
		return notFoundError(discordgo.ErrCodeUnknownMessage)
	}
	delete(m.Messages, messageID)
	return nil
}

func (m *MockDiscordSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	if m.CreateChannelError != nil && len(m.Channels) >= m.FailAfter {
		return nil, m.CreateChannelError
	}
	id := m.nextID("chan")
	m.Channels[id] = data
	return &discordgo.Channel{ID: id, GuildID: guildID, Name: data.Name, Type: data.Type, ParentID: data.ParentID}, nil
}

func (m *MockDiscordSession) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	if _, ok := m.Channels[channelID]; !ok {
		return nil, notFoundError(discordgo.ErrCodeUnknownChannel)
	}
	delete(m.Channels, channelID)
	m.DeletedChannels = append(m.DeletedChannels, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (m *MockDiscordSession) ChannelPermissionSet(channelID string, targetID string, targetType discordgo.PermissionOverwriteType, allow int64, deny int64, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	m.Permissions = append(m.Permissions, MockPermission{ChannelID: channelID, TargetID: targetID, Allow: allow, Deny: deny})
	return nil
}

func (m *MockDiscordSession) ChannelPermissionDelete(channelID string, targetID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	m.Permissions = append(m.Permissions, MockPermission{ChannelID: channelID, TargetID: targetID, Deleted: true})
	return nil
}

func (m *MockDiscordSession) GuildMemberMove(guildID string, userID string, channelID *string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	if m.NotInVoice[userID] {
		return &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"},
			Message:  &discordgo.APIErrorMessage{Code: errCodeNotInVoice, Message: "Target user is not connected to voice."},
		}
	}
	target := ""
	if channelID != nil {
		target = *channelID
	}
	m.Moves = append(m.Moves, MockMove{UserID: userID, ChannelID: target})
	return nil
}

func (m *MockDiscordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}
	m.Responses = append(m.Responses, resp)
	return nil
}

// GetLastMessage returns the last message sent, or empty MockMessage if none
func (m *MockDiscordSession) GetLastMessage() MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return MockMessage{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// Message returns the current state of a complex message
func (m *MockDiscordSession) Message(id string) (*discordgo.MessageSend, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	return msg, ok
}

// ClearMessages clears all stored messages
func (m *MockDiscordSession) ClearMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = nil
}

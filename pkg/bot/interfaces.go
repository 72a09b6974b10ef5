package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/JadeGeek/Awada/pkg/nlu"
)

// Classifier names the intent of one utterance.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, float64, error)
}

// Extractor pulls entities out of one text. The handler applies the
// confidence threshold and deduplicates.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]nlu.Entity, error)
}

// Generator completes one prompt, honoring the stop marker.
type Generator interface {
	Generate(ctx context.Context, prompt, stop string) (string, error)
}

// Messenger delivers replies. Fire-and-forget from the engine's
// perspective; delivery failures are the messenger's concern.
type Messenger interface {
	Send(userID, text string) error
	// Forward relays a session's raw turn to a director.
	Forward(userID, target, text string) error
}

// DiscordSession abstracts the discordgo session for testing.
type DiscordSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordMessenger delivers over DM channels, caching the per-user channel
// id after the first send.
type DiscordMessenger struct {
	session  DiscordSession
	mu       sync.Mutex
	channels map[string]string // user id -> DM channel id
}

func NewDiscordMessenger(s DiscordSession) *DiscordMessenger {
	return &DiscordMessenger{
		session:  s,
		channels: make(map[string]string),
	}
}

func (m *DiscordMessenger) channelFor(userID string) (string, error) {
	m.mu.Lock()
	if id, ok := m.channels[userID]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	channel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("create DM channel for %s: %w", userID, err)
	}

	m.mu.Lock()
	m.channels[userID] = channel.ID
	m.mu.Unlock()
	return channel.ID, nil
}

func (m *DiscordMessenger) Send(userID, text string) error {
	channelID, err := m.channelFor(userID)
	if err != nil {
		return err
	}
	_, err = m.session.ChannelMessageSend(channelID, text)
	return err
}

func (m *DiscordMessenger) Forward(userID, target, text string) error {
	return m.Send(target, fmt.Sprintf("[%s] %s", userID, text))
}

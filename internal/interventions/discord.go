package interventions

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"flowday/internal/logging"
)

// DiscordNotifier delivers reminder messages to a Discord channel. It
// is optional: the daemon only constructs one when a bot token is
// configured.
type DiscordNotifier struct {
	session *discordgo.Session
	channel string
}

// NewDiscordNotifier opens a Discord session for the given bot token
// and target channel.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	logging.Info("discord", "notifier connected (channel %s)", channelID)
	return &DiscordNotifier{session: session, channel: channelID}, nil
}

// Send posts a message to the configured channel. Messages are
// truncated to Discord's 2000 character limit.
func (n *DiscordNotifier) Send(message string) error {
	message = logging.Truncate(message, 1997)
	if _, err := n.session.ChannelMessageSend(n.channel, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// Close shuts the Discord session down.
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}

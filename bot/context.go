package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Context carries what a single event handler needs.
type Context struct {
	b   *Bot
	s   *discordgo.Session
	ctx context.Context
}

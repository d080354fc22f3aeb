package bot

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dgraph-io/badger"
	"github.com/intrntsrfr/meido/pkg/utils"
	"github.com/intrntsrfr/meido/pkg/utils/builders"
	"go.uber.org/zap"

	"github.com/dashwav/yinbot/database"
	"github.com/dashwav/yinbot/kvstore"
)

type Color int

const (
	ColorRed    Color = 0xff0000
	ColorGreen  Color = 0x00ff00
	ColorBlue   Color = 0x61d1ed
	ColorWhite  Color = 0xffffff
	ColorOrange Color = 0xf57f54
)

// attachments above this size are not cached
const maxAttachmentSize = 10 << 20

func newCachedMessage(m *discordgo.Message) *kvstore.CachedMessage {
	msg := &kvstore.CachedMessage{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorTag: m.Author.String(),
		Bot:       m.Author.Bot,
		Content:   m.Content,
	}

	for _, a := range m.Attachments {
		if a.Size > maxAttachmentSize {
			continue
		}
		data, err := kvstore.GetAttachment(a.URL)
		if err != nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, &kvstore.Attachment{
			Filename: a.Filename,
			Size:     a.Size,
			Data:     data,
		})
	}
	return msg
}

func newCachedMember(m *discordgo.Member, gid string) *kvstore.CachedMember {
	if m.GuildID != "" {
		gid = m.GuildID
	}
	return &kvstore.CachedMember{
		GuildID: gid,
		UserID:  m.User.ID,
		UserTag: m.User.String(),
		Nick:    m.Nick,
		Roles:   m.Roles,
	}
}

// sendToModlogs delivers a message to every modlog channel of the guild.
func (c *Context) sendToModlogs(gid string, send *discordgo.MessageSend) {
	channels, err := c.b.db.GetModlogChannels(c.ctx, parseID(gid))
	if err != nil {
		c.b.log.Error("failed to get modlog channels", zap.Error(err))
		return
	}
	for _, ch := range channels {
		if _, err := c.s.ChannelMessageSendComplex(formatID(ch), send); err != nil {
			c.b.log.Warn("failed to send modlog message", zap.Int64("channel", ch), zap.Error(err))
		}
	}
}

func readyHandler(c *Context, r *discordgo.Ready) {
	if c.b.statusStarted.CompareAndSwap(false, true) {
		go c.b.rotateStatus(c.ctx, c.s)
	}
	c.b.log.Info("logged in", zap.String("user", r.User.String()))
}

func disconnectHandler(c *Context, _ *discordgo.Disconnect) {
	c.b.log.Info("disconnected")
}

func guildCreateHandler(c *Context, g *discordgo.GuildCreate) {
	gid := parseID(g.ID)
	if err := c.b.db.AddServer(c.ctx, gid); err != nil {
		c.b.log.Error("failed to add server", zap.String("guild", g.ID), zap.Error(err))
		return
	}

	srv, err := c.b.db.GetServer(c.ctx, gid)
	if err != nil {
		c.b.log.Error("failed to get server", zap.String("guild", g.ID), zap.Error(err))
		return
	}
	c.b.setCachedPrefix(g.ID, srv.Prefix)

	for _, mem := range g.Members {
		if err := c.b.store.SetMember(newCachedMember(mem, g.ID)); err != nil {
			c.b.log.Warn("failed to cache member", zap.Error(err))
		}
	}

	c.b.log.Info("loaded guild", zap.String("name", g.Name), zap.Int("members", len(g.Members)))
}

func guildMembersChunkHandler(c *Context, g *discordgo.GuildMembersChunk) {
	for _, mem := range g.Members {
		_ = c.b.store.SetMember(newCachedMember(mem, g.GuildID))
	}
}

func guildMemberAddHandler(c *Context, m *discordgo.GuildMemberAdd) {
	_ = c.b.store.SetMember(newCachedMember(m.Member, m.GuildID))
}

func guildMemberUpdateHandler(c *Context, m *discordgo.GuildMemberUpdate) {
	_ = c.b.store.SetMember(newCachedMember(m.Member, m.GuildID))
}

func guildMemberRemoveHandler(c *Context, m *discordgo.GuildMemberRemove) {
	embed := builders.NewEmbedBuilder().
		WithTitle("User left or kicked").
		WithThumbnail(m.User.AvatarURL("256")).
		AddField("User", fmt.Sprintf("%v\n%v", m.User.Mention(), m.User.String()), true).
		WithFooter(fmt.Sprintf("User ID: %v", m.User.ID), "").
		WithColor(int(ColorOrange))

	if mem, err := c.b.store.GetMember(m.GuildID, m.User.ID); err == nil && len(mem.Roles) > 0 {
		mentions := make([]string, 0, len(mem.Roles))
		for _, r := range mem.Roles {
			mentions = append(mentions, fmt.Sprintf("<@&%v>", r))
		}
		embed.AddField("Roles", strings.Join(mentions, ", "), false)
	}

	c.sendToModlogs(m.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
	_ = c.b.store.DeleteMember(m.GuildID, m.User.ID)
}

func guildBanAddHandler(c *Context, d *discordgo.GuildBanAdd) {
	embed := builders.NewEmbedBuilder().
		WithTitle("User banned").
		WithThumbnail(d.User.AvatarURL("256")).
		AddField("User", fmt.Sprintf("%v\n%v", d.User.Mention(), d.User.String()), false).
		WithFooter(fmt.Sprintf("User ID: %v", d.User.ID), "").
		WithColor(int(ColorRed))

	if _, err := c.b.store.GetMember(d.GuildID, d.User.ID); err != nil {
		if err != badger.ErrKeyNotFound {
			c.b.log.Error("failed to get member", zap.Error(err))
		}
		// banned without ever being in the server
		embed.WithDescription("User was not in the server")
		c.sendToModlogs(d.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
		return
	}

	messages, err := c.b.store.GetMessageLog(d.GuildID, d.User.ID)
	if err != nil {
		c.b.log.Error("failed to get message log", zap.Error(err))
	}

	if len(messages) == 0 {
		embed.AddField("24h message log", "No history.", false)
		c.sendToModlogs(d.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
		return
	}

	sort.Sort(kvstore.ByID(messages))
	text := strings.Builder{}
	for _, msg := range messages {
		ts := utils.IDToTimestamp(msg.ID).Format(time.DateTime)
		text.WriteString(fmt.Sprintf("\nChannel: %v\nTimestamp: %v\nContent: %v\n", msg.ChannelID, ts, msg.Content))
		if len(msg.Attachments) > 0 {
			text.WriteString("Info: Message had attachment\n")
		}
	}
	embed.AddField("Total messages", fmt.Sprint(len(messages)), false)

	if c.b.owo != nil {
		link, err := c.b.owo.Upload(text.String())
		if err != nil {
			c.b.log.Warn("failed to upload ban log", zap.Error(err))
			embed.AddField("24h message log", "Error getting link", false)
		} else {
			embed.AddField("24h message log", link, false)
		}
		c.sendToModlogs(d.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
		return
	}

	reply := builders.NewMessageSendBuilder().
		AddTextFile(fmt.Sprintf("24h_ban_log_%v_%v.txt", d.User.ID, time.Now().Unix()), text.String()).
		Embed(embed.Build())
	c.sendToModlogs(d.GuildID, reply.Build())
}

func guildBanRemoveHandler(c *Context, d *discordgo.GuildBanRemove) {
	embed := builders.NewEmbedBuilder().
		WithTitle("User unbanned").
		WithThumbnail(d.User.AvatarURL("256")).
		AddField("User", fmt.Sprintf("%v\n%v", d.User.Mention(), d.User.String()), false).
		WithFooter(fmt.Sprintf("User ID: %v", d.User.ID), "").
		WithColor(int(ColorGreen))

	c.sendToModlogs(d.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
}

func messageCreateHandler(c *Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}

	rec := &database.Message{
		GuildID:   parseID(m.GuildID),
		MessageID: parseID(m.ID),
		AuthorID:  parseID(m.Author.ID),
		ChannelID: parseID(m.ChannelID),
		IsBot:     m.Author.Bot,
		Pinned:    m.Pinned,
		Content:   m.ContentWithMentionsReplaced(),
		CreatedAt: m.Timestamp,
	}
	if err := c.b.db.AddMessage(c.ctx, rec); err != nil {
		c.b.log.Warn("failed to archive message", zap.String("message", m.ID), zap.Error(err))
	}

	if err := c.b.store.SetMessage(newCachedMessage(m.Message)); err != nil {
		c.b.log.Warn("failed to cache message", zap.String("message", m.ID), zap.Error(err))
	}

	if m.Author.Bot {
		return
	}
	c.handleCommand(m)
}

func messageUpdateHandler(c *Context, m *discordgo.MessageUpdate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}

	old, err := c.b.store.GetMessage(m.GuildID, m.ChannelID, m.ID)
	if err != nil || old.Content == m.Content {
		return
	}

	embed := builders.NewEmbedBuilder().
		WithTitle("Message edited").
		WithColor(int(ColorBlue)).
		AddField("User", fmt.Sprintf("%v\n%v (%v)", m.Author.Mention(), old.AuthorTag, old.AuthorID), true).
		AddField("Channel", fmt.Sprintf("<#%v>", m.ChannelID), true).
		AddField("Old content", orPlaceholder(old.Content), false).
		AddField("New content", orPlaceholder(m.Content), false).
		WithFooter(fmt.Sprintf("Message ID: %v", m.ID), "")

	c.sendToModlogs(m.GuildID, &discordgo.MessageSend{Embed: embed.Build()})

	_ = c.b.store.SetMessage(newCachedMessage(m.Message))
}

func messageDeleteHandler(c *Context, m *discordgo.MessageDelete) {
	msg, err := c.b.store.GetMessage(m.GuildID, m.ChannelID, m.ID)
	if err != nil {
		return
	}

	ts := utils.IDToTimestamp(msg.ID).Format(time.DateTime)
	embed := builders.NewEmbedBuilder().
		WithTitle("Message deleted").
		WithColor(int(ColorWhite)).
		AddField("User", fmt.Sprintf("<@%v>\n%v (%v)", msg.AuthorID, msg.AuthorTag, msg.AuthorID), true).
		AddField("Channel", fmt.Sprintf("<#%v> (%v)", m.ChannelID, m.ChannelID), true).
		AddField("Content", orPlaceholder(msg.Content), false).
		WithFooter(fmt.Sprintf("Sent %v", ts), "")

	send := &discordgo.MessageSend{Embed: embed.Build()}
	for _, a := range msg.Attachments {
		send.Files = append(send.Files, &discordgo.File{
			Name:   a.Filename,
			Reader: bytes.NewReader(a.Data),
		})
	}
	c.sendToModlogs(m.GuildID, send)
}

func messageDeleteBulkHandler(c *Context, m *discordgo.MessageDeleteBulk) {
	var deleted []*kvstore.CachedMessage
	for _, mid := range m.Messages {
		if msg, err := c.b.store.GetMessage(m.GuildID, m.ChannelID, mid); err == nil {
			deleted = append(deleted, msg)
		}
	}
	sort.Sort(kvstore.ByID(deleted))

	text := strings.Builder{}
	for _, msg := range deleted {
		text.WriteString(fmt.Sprintf("\nUser: %v (%v)\nContent: %v\n", msg.AuthorTag, msg.AuthorID, msg.Content))
		if len(msg.Attachments) > 0 {
			text.WriteString("Info: Message had attachment\n")
		}
	}

	embed := builders.NewEmbedBuilder().
		WithTitle(fmt.Sprintf("Bulk message delete - (%v) messages deleted", len(m.Messages))).
		WithColor(int(ColorWhite)).
		AddField("Channel", fmt.Sprintf("<#%v>", m.ChannelID), true).
		AddField("Messages recovered", fmt.Sprint(len(deleted)), true)

	if c.b.owo != nil {
		link, err := c.b.owo.Upload(text.String())
		if err != nil {
			c.b.log.Warn("failed to upload bulk delete log", zap.Error(err))
			embed.AddField("Message log", "Error getting link", false)
		} else {
			embed.AddField("Message log", link, false)
		}
		c.sendToModlogs(m.GuildID, &discordgo.MessageSend{Embed: embed.Build()})
		return
	}

	reply := builders.NewMessageSendBuilder().
		AddTextFile(fmt.Sprintf("bulk_delete_%v_%v.txt", m.ChannelID, time.Now().Unix()), text.String()).
		Embed(embed.Build())
	c.sendToModlogs(m.GuildID, reply.Build())
}

func orPlaceholder(content string) string {
	if content == "" {
		return "No content"
	}
	return content
}

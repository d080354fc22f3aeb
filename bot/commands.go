package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/utils"
	"github.com/intrntsrfr/meido/pkg/utils/builders"
	"go.uber.org/zap"

	"github.com/dashwav/yinbot/database"
)

// handleCommand routes a message that starts with the guild's prefix.
func (c *Context) handleCommand(m *discordgo.MessageCreate) {
	prefix := c.b.prefixFor(m.GuildID)
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(args) == 0 {
		return
	}

	switch strings.ToLower(args[0]) {
	case "prefix":
		c.prefixCommand(m, args)
	case "modlog":
		c.modlogCommand(m, args)
	case "role":
		c.roleCommand(m, args)
	case "roles":
		c.rolesCommand(m)
	case "iam":
		c.iamCommand(m, args)
	case "iamnot":
		c.iamnotCommand(m, args)
	case "ban":
		c.banCommand(m, args)
	case "kick":
		c.kickCommand(m, args)
	case "warn":
		c.warnCommand(m, args)
	case "modlogs":
		c.modlogsCommand(m, args)
	}
}

// isAdmin resolves permissions through the shard wrapper; the guild may
// live in any session's state, not the one the command arrived on.
func (c *Context) isAdmin(m *discordgo.MessageCreate) bool {
	perms, err := c.b.disc.UserChannelPermissions(m.Author.ID, m.ChannelID)
	return err == nil && perms&discordgo.PermissionAdministrator != 0
}

func (c *Context) replyEmbed(chID, title, desc string, color Color) {
	embed := builders.NewEmbedBuilder().
		WithTitle(title).
		WithColor(int(color))
	if desc != "" {
		embed.WithDescription(desc)
	}
	if _, err := c.s.ChannelMessageSendEmbed(chID, embed.Build()); err != nil {
		c.b.log.Warn("failed to send reply", zap.Error(err))
	}
}

func (c *Context) prefixCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) {
		return
	}

	if len(args) < 2 {
		c.replyEmbed(m.ChannelID, fmt.Sprintf("Current prefix is: '%v'", c.b.prefixFor(m.GuildID)), "", ColorGreen)
		return
	}
	if strings.ToLower(args[1]) != "change" || len(args) < 3 {
		c.replyEmbed(m.ChannelID, "Usage: prefix change <new prefix>", "", ColorRed)
		return
	}

	newPrefix := args[2]
	if !ValidPrefix(newPrefix) {
		c.replyEmbed(m.ChannelID, "Prefix must be less than or equal to two characters", "", ColorRed)
		return
	}

	if err := c.b.db.SetPrefix(c.ctx, parseID(m.GuildID), newPrefix); err != nil {
		c.b.log.Error("failed to set prefix", zap.String("guild", m.GuildID), zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}

	c.b.setCachedPrefix(m.GuildID, newPrefix)
	c.replyEmbed(m.ChannelID, fmt.Sprintf("Server prefix set to '%v'", newPrefix), "", ColorGreen)
}

func (c *Context) modlogCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) {
		return
	}

	if len(args) < 2 {
		channels, err := c.b.db.GetModlogChannels(c.ctx, parseID(m.GuildID))
		if err != nil {
			c.b.log.Error("failed to get modlog channels", zap.Error(err))
			c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
			return
		}
		desc := strings.Builder{}
		for _, ch := range channels {
			desc.WriteString(fmt.Sprintf("<#%v>\n", ch))
		}
		c.replyEmbed(m.ChannelID, "Current modlog channels:", desc.String(), ColorGreen)
		return
	}

	if len(args) < 3 {
		c.replyEmbed(m.ChannelID, "No channel mentions detected, try again.", "", ColorRed)
		return
	}

	var changed []string
	for _, arg := range args[2:] {
		chStr := utils.TrimChannelID(arg)
		ch, err := c.b.disc.Channel(chStr)
		if err != nil || ch.GuildID != m.GuildID {
			continue
		}

		switch strings.ToLower(args[1]) {
		case "add":
			if ok, err := c.b.db.AddModlogChannel(c.ctx, parseID(m.GuildID), parseID(ch.ID)); err == nil && ok {
				changed = append(changed, ch.Name)
			}
		case "remove", "rem":
			if ok, err := c.b.db.RemoveModlogChannel(c.ctx, parseID(m.GuildID), parseID(ch.ID)); err == nil && ok {
				changed = append(changed, ch.Name)
			}
		}
	}

	if len(changed) == 0 {
		c.replyEmbed(m.ChannelID, "No modlog channels changed.", "", ColorOrange)
		return
	}

	title := "Channels added to modlog list:"
	if strings.ToLower(args[1]) != "add" {
		title = "Channels removed from modlog list:"
	}
	c.replyEmbed(m.ChannelID, title, strings.Join(changed, "\n"), ColorGreen)
}

func (c *Context) roleCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) {
		return
	}
	if len(args) < 3 {
		c.replyEmbed(m.ChannelID, "Usage: role <add|remove> <role>", "", ColorRed)
		return
	}

	roleID := parseID(TrimRoleMention(args[2]))
	if roleID == 0 {
		c.replyEmbed(m.ChannelID, "That does not look like a role.", "", ColorRed)
		return
	}

	switch strings.ToLower(args[1]) {
	case "add":
		if !c.guildHasRole(m.GuildID, roleID) {
			c.replyEmbed(m.ChannelID, "There is no such role in this server.", "", ColorRed)
			return
		}
		if err := c.b.db.AddAssignableRole(c.ctx, parseID(m.GuildID), roleID); err != nil {
			c.b.log.Error("failed to add assignable role", zap.Error(err))
			c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
			return
		}
		c.replyEmbed(m.ChannelID, "Role added to the self-assign list", fmt.Sprintf("<@&%v>", roleID), ColorGreen)
	case "remove", "rem":
		err := c.b.db.RemoveAssignableRole(c.ctx, parseID(m.GuildID), roleID)
		if errors.Is(err, database.ErrRoleNotPresent) {
			c.replyEmbed(m.ChannelID, "That role is not in the self-assign list", "", ColorRed)
			return
		}
		if err != nil {
			c.b.log.Error("failed to remove assignable role", zap.Error(err))
			c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
			return
		}
		c.replyEmbed(m.ChannelID, "Role removed from the self-assign list", fmt.Sprintf("<@&%v>", roleID), ColorGreen)
	}
}

func (c *Context) guildHasRole(gid string, roleID int64) bool {
	g, err := c.b.disc.Guild(gid)
	if err != nil {
		return false
	}
	for _, r := range g.Roles {
		if parseID(r.ID) == roleID {
			return true
		}
	}
	return false
}

// memberHasRole answers false when the member is not cached anywhere.
func (c *Context) memberHasRole(gid, uid, roleID string) bool {
	mem, err := c.b.disc.Member(gid, uid)
	if err != nil {
		return false
	}
	for _, r := range mem.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (c *Context) rolesCommand(m *discordgo.MessageCreate) {
	roles, err := c.b.db.GetAssignableRoles(c.ctx, parseID(m.GuildID))
	if err != nil {
		c.b.log.Error("failed to get assignable roles", zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}
	if len(roles) == 0 {
		c.replyEmbed(m.ChannelID, "There are no self-assignable roles.", "", ColorOrange)
		return
	}

	desc := strings.Builder{}
	for _, r := range roles {
		desc.WriteString(fmt.Sprintf("<@&%v>\n", r))
	}
	c.replyEmbed(m.ChannelID, "Self-assignable roles:", desc.String(), ColorGreen)
}

func (c *Context) iamCommand(m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		c.replyEmbed(m.ChannelID, "Usage: iam <role>", "", ColorRed)
		return
	}

	roleStr := TrimRoleMention(args[1])
	ok, err := c.b.db.IsRoleAssignable(c.ctx, parseID(m.GuildID), parseID(roleStr))
	if err != nil {
		c.b.log.Error("failed to check role", zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}
	if !ok {
		c.replyEmbed(m.ChannelID, "That role is not self-assignable.", "", ColorRed)
		return
	}
	if c.memberHasRole(m.GuildID, m.Author.ID, roleStr) {
		c.replyEmbed(m.ChannelID, "You already have that role.", "", ColorOrange)
		return
	}

	if err := c.s.GuildMemberRoleAdd(m.GuildID, m.Author.ID, roleStr); err != nil {
		c.replyEmbed(m.ChannelID, "Could not give you that role.", "", ColorRed)
		return
	}
	c.replyEmbed(m.ChannelID, "Role assigned", fmt.Sprintf("<@&%v>", roleStr), ColorGreen)
}

func (c *Context) iamnotCommand(m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		c.replyEmbed(m.ChannelID, "Usage: iamnot <role>", "", ColorRed)
		return
	}

	roleStr := TrimRoleMention(args[1])
	ok, err := c.b.db.IsRoleAssignable(c.ctx, parseID(m.GuildID), parseID(roleStr))
	if err != nil {
		c.b.log.Error("failed to check role", zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}
	if !ok {
		c.replyEmbed(m.ChannelID, "That role is not self-assignable.", "", ColorRed)
		return
	}
	if !c.memberHasRole(m.GuildID, m.Author.ID, roleStr) {
		c.replyEmbed(m.ChannelID, "You do not have that role.", "", ColorOrange)
		return
	}

	if err := c.s.GuildMemberRoleRemove(m.GuildID, m.Author.ID, roleStr); err != nil {
		c.replyEmbed(m.ChannelID, "Could not remove that role.", "", ColorRed)
		return
	}
	c.replyEmbed(m.ChannelID, "Role removed", fmt.Sprintf("<@&%v>", roleStr), ColorGreen)
}

func (c *Context) banCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) || len(args) < 2 {
		return
	}

	target := TrimUserMention(args[1])
	if parseID(target) == 0 {
		c.replyEmbed(m.ChannelID, "That does not look like a user.", "", ColorRed)
		return
	}
	reason := strings.Join(args[2:], " ")

	if err := c.s.GuildBanCreateWithReason(m.GuildID, target, reason, 0); err != nil {
		c.replyEmbed(m.ChannelID, "Failed to ban user.", "", ColorRed)
		return
	}
	c.logModAction(m, target, database.ActionBan)
	c.replyEmbed(m.ChannelID, "User banned", fmt.Sprintf("<@%v>", target), ColorGreen)
}

func (c *Context) kickCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) || len(args) < 2 {
		return
	}

	target := TrimUserMention(args[1])
	if parseID(target) == 0 {
		c.replyEmbed(m.ChannelID, "That does not look like a user.", "", ColorRed)
		return
	}
	reason := strings.Join(args[2:], " ")

	if err := c.s.GuildMemberDeleteWithReason(m.GuildID, target, reason); err != nil {
		c.replyEmbed(m.ChannelID, "Failed to kick user.", "", ColorRed)
		return
	}
	c.logModAction(m, target, database.ActionKick)
	c.replyEmbed(m.ChannelID, "User kicked", fmt.Sprintf("<@%v>", target), ColorGreen)
}

func (c *Context) warnCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) || len(args) < 2 {
		return
	}

	target := TrimUserMention(args[1])
	if parseID(target) == 0 {
		c.replyEmbed(m.ChannelID, "That does not look like a user.", "", ColorRed)
		return
	}

	err := c.b.db.InsertModAction(c.ctx, parseID(m.GuildID), parseID(m.Author.ID), parseID(target), database.ActionWarn)
	if errors.Is(err, database.ErrDuplicateModAction) {
		c.replyEmbed(m.ChannelID, "You have already warned this user.", "", ColorOrange)
		return
	}
	if err != nil {
		c.b.log.Error("failed to log warn", zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}
	c.replyEmbed(m.ChannelID, "User warned", fmt.Sprintf("<@%v>", target), ColorOrange)
}

func (c *Context) modlogsCommand(m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) || len(args) < 2 {
		return
	}

	target := TrimUserMention(args[1])
	actions, err := c.b.db.GetModActions(c.ctx, parseID(m.GuildID), parseID(target))
	if err != nil {
		c.b.log.Error("failed to get mod actions", zap.Error(err))
		c.replyEmbed(m.ChannelID, "Internal issue, please try again later", "", ColorRed)
		return
	}
	if len(actions) == 0 {
		c.replyEmbed(m.ChannelID, "No moderation history for that user.", "", ColorGreen)
		return
	}

	desc := strings.Builder{}
	for _, a := range actions {
		desc.WriteString(fmt.Sprintf("%v by <@%v> - %v\n", a.Action, a.ModID, a.LogTime.Format(time.DateTime)))
	}
	c.replyEmbed(m.ChannelID, fmt.Sprintf("Moderation history for %v", target), desc.String(), ColorBlue)
}

// logModAction records a moderation event, treating a duplicate entry as
// benign.
func (c *Context) logModAction(m *discordgo.MessageCreate, target string, action database.Action) {
	err := c.b.db.InsertModAction(c.ctx, parseID(m.GuildID), parseID(m.Author.ID), parseID(target), action)
	if err != nil && !errors.Is(err, database.ErrDuplicateModAction) {
		c.b.log.Error("failed to log mod action", zap.String("action", action.String()), zap.Error(err))
	}
}

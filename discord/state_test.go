package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLookupsSpanShards(t *testing.T) {
	empty := &discordgo.Session{State: discordgo.NewState()}
	loaded := &discordgo.Session{State: discordgo.NewState()}

	guild := &discordgo.Guild{
		ID:      "300",
		OwnerID: "10",
		Channels: []*discordgo.Channel{
			{ID: "77", GuildID: "300", Name: "modlog", Type: discordgo.ChannelTypeGuildText},
		},
		Members: []*discordgo.Member{
			{GuildID: "300", User: &discordgo.User{ID: "10"}},
		},
	}
	require.NoError(t, loaded.State.GuildAdd(guild))

	// the guild lives on the second shard only; lookups must still find it
	d := &Discord{sessions: []*discordgo.Session{empty, loaded}}

	g, err := d.Guild("300")
	require.NoError(t, err)
	assert.Equal(t, "300", g.ID)

	ch, err := d.Channel("77")
	require.NoError(t, err)
	assert.Equal(t, "modlog", ch.Name)

	mem, err := d.Member("300", "10")
	require.NoError(t, err)
	assert.Equal(t, "10", mem.User.ID)

	perms, err := d.UserChannelPermissions("10", "77")
	require.NoError(t, err)
	assert.NotZero(t, perms&discordgo.PermissionAdministrator)
}

func TestStateLookupMisses(t *testing.T) {
	d := &Discord{sessions: []*discordgo.Session{
		{State: discordgo.NewState()},
	}}

	_, err := d.Guild("999")
	assert.ErrorIs(t, err, discordgo.ErrStateNotFound)

	_, err = d.Channel("999")
	assert.ErrorIs(t, err, discordgo.ErrStateNotFound)

	_, err = d.Member("999", "1")
	assert.ErrorIs(t, err, discordgo.ErrStateNotFound)

	_, err = d.UserChannelPermissions("1", "999")
	assert.ErrorIs(t, err, discordgo.ErrStateNotFound)
}

package kvstore

import (
	"sort"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)

	msg := &CachedMessage{
		ID:        "300",
		GuildID:   "1",
		ChannelID: "2",
		AuthorID:  "3",
		AuthorTag: "jeff#0001",
		Content:   "hello",
	}
	require.NoError(t, s.SetMessage(msg))

	got, err := s.GetMessage("1", "2", "300")
	require.NoError(t, err)
	assert.Equal(t, msg.Content, got.Content)
	assert.Equal(t, msg.AuthorTag, got.AuthorTag)

	_, err = s.GetMessage("1", "2", "301")
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestGetMessageLog(t *testing.T) {
	s := newTestStore(t)

	for _, m := range []*CachedMessage{
		{ID: "102", GuildID: "1", ChannelID: "2", AuthorID: "3", Content: "second"},
		{ID: "101", GuildID: "1", ChannelID: "2", AuthorID: "3", Content: "first"},
		{ID: "103", GuildID: "1", ChannelID: "4", AuthorID: "5", Content: "someone else"},
	} {
		require.NoError(t, s.SetMessage(m))
	}

	messages, err := s.GetMessageLog("1", "3")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	sort.Sort(ByID(messages))
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestMemberRoundTrip(t *testing.T) {
	s := newTestStore(t)

	mem := &CachedMember{
		GuildID: "1",
		UserID:  "3",
		UserTag: "jeff#0001",
		Roles:   []string{"10", "11"},
	}
	require.NoError(t, s.SetMember(mem))

	got, err := s.GetMember("1", "3")
	require.NoError(t, err)
	assert.Equal(t, mem.Roles, got.Roles)

	require.NoError(t, s.DeleteMember("1", "3"))
	_, err = s.GetMember("1", "3")
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *JsonDB {
	t.Helper()
	db, err := NewJsonDatabase(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return db
}

func TestAddServerIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddServer(ctx, 1))
	require.NoError(t, db.SetPrefix(ctx, 1, "!!"))

	// second add must not reset anything
	require.NoError(t, db.AddServer(ctx, 1))

	s, err := db.GetServer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "!!", s.Prefix)

	prefixes, err := db.GetServerPrefixes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "!!"}, prefixes)
}

func TestSetPrefix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))

	tests := []struct {
		name    string
		guildID int64
		prefix  string
		wantErr error
	}{
		{name: "valid", guildID: 1, prefix: "?"},
		{name: "two chars", guildID: 1, prefix: "!!"},
		{name: "too long", guildID: 1, prefix: "!!!", wantErr: ErrPrefixTooLong},
		{name: "unknown guild", guildID: 2, prefix: "?", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.SetPrefix(ctx, tt.guildID, tt.prefix)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssignableRoles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))

	ok, err := db.IsRoleAssignable(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.AddAssignableRole(ctx, 1, 5))
	ok, err = db.IsRoleAssignable(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.RemoveAssignableRole(ctx, 1, 5))
	ok, err = db.IsRoleAssignable(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAssignableRoleNotPresent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))
	require.NoError(t, db.AddAssignableRole(ctx, 1, 5))

	err := db.RemoveAssignableRole(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrRoleNotPresent)

	// existing sequence must be untouched
	roles, err := db.GetAssignableRoles(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, roles)
}

func TestGetServerReturnsDetachedCopy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))
	require.NoError(t, db.AddAssignableRole(ctx, 1, 5))

	s, err := db.GetServer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, s.AssignableRoles, 1)

	// writing through the returned row must not reach store state
	s.AssignableRoles[0] = 999
	s.Prefix = "zz"

	ok, err := db.IsRoleAssignable(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	fresh, err := db.GetServer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, fresh.Prefix)
	assert.Equal(t, pq.Int64Array{5}, fresh.AssignableRoles)
}

func TestGetAssignableRolesUnknownGuild(t *testing.T) {
	db := newTestDB(t)

	roles, err := db.GetAssignableRoles(context.Background(), 404)
	assert.NoError(t, err)
	assert.Empty(t, roles)
}

func TestConcurrentRoleRemoval(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))
	require.NoError(t, db.AddAssignableRole(ctx, 1, 5))

	// exactly one of the two removals wins, the other sees not-present
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.RemoveAssignableRole(ctx, 1, 5)
		}(i)
	}
	wg.Wait()

	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], ErrRoleNotPresent)
	} else {
		assert.ErrorIs(t, errs[0], ErrRoleNotPresent)
		assert.NoError(t, errs[1])
	}
}

func TestInsertModActionUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))

	require.NoError(t, db.InsertModAction(ctx, 1, 10, 20, ActionBan))
	assert.ErrorIs(t, db.InsertModAction(ctx, 1, 10, 20, ActionBan), ErrDuplicateModAction)

	// a different action against the same target is a new composite key
	require.NoError(t, db.InsertModAction(ctx, 1, 10, 20, ActionKick))

	actions, err := db.GetModActions(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestModlogChannelToggle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AddServer(ctx, 1))

	added, err := db.AddModlogChannel(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = db.AddModlogChannel(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, added)

	channels, err := db.GetModlogChannels(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, channels)

	removed, err := db.RemoveModlogChannel(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.RemoveModlogChannel(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddMessageConflictNoop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	msg := &Message{GuildID: 1, MessageID: 100, AuthorID: 2, ChannelID: 3, Content: "hello"}
	require.NoError(t, db.AddMessage(ctx, msg))

	dup := &Message{GuildID: 1, MessageID: 100, AuthorID: 2, ChannelID: 3, Content: "changed"}
	require.NoError(t, db.AddMessage(ctx, dup))

	got, err := db.GetMessage(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	_, err = db.GetMessage(ctx, 101)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStubsReturnUnimplemented(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.AddWhitelistWord(ctx, 1, "hi"), ErrUnimplemented)
	assert.ErrorIs(t, db.AddBlacklistWord(ctx, 1, "hi"), ErrUnimplemented)
	assert.ErrorIs(t, db.AddBlacklistChannel(ctx, 1, 2), ErrUnimplemented)
	assert.ErrorIs(t, db.AddR9kChannel(ctx, 1, 2), ErrUnimplemented)
}

func TestJsonDBPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx := context.Background()

	db, err := NewJsonDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.AddServer(ctx, 1))
	require.NoError(t, db.SetPrefix(ctx, 1, "y!"))
	require.NoError(t, db.Close())

	db2, err := NewJsonDatabase(path)
	require.NoError(t, err)
	s, err := db2.GetServer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "y!", s.Prefix)
}

package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ServerDB is the contract for the per-guild configuration store. All
// methods are safe for concurrent use; each call borrows a connection from
// the underlying pool for its own duration.
type ServerDB interface {
	GetConn() *sqlx.DB
	Close() error

	AddServer(ctx context.Context, guildID int64) error
	GetServer(ctx context.Context, guildID int64) (*Server, error)
	GetServerPrefixes(ctx context.Context) (map[int64]string, error)
	SetPrefix(ctx context.Context, guildID int64, prefix string) error

	AddAssignableRole(ctx context.Context, guildID, roleID int64) error
	RemoveAssignableRole(ctx context.Context, guildID, roleID int64) error
	IsRoleAssignable(ctx context.Context, guildID, roleID int64) (bool, error)
	GetAssignableRoles(ctx context.Context, guildID int64) ([]int64, error)

	InsertModAction(ctx context.Context, guildID, modID, targetID int64, action Action) error
	GetModActions(ctx context.Context, guildID, targetID int64) ([]*ModAction, error)

	GetModlogChannels(ctx context.Context, guildID int64) ([]int64, error)
	AddModlogChannel(ctx context.Context, guildID, channelID int64) (bool, error)
	RemoveModlogChannel(ctx context.Context, guildID, channelID int64) (bool, error)

	AddMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, messageID int64) (*Message, error)

	// Word filter and r9k channels are schema-only for now. These return
	// ErrUnimplemented so callers can tell "did nothing because
	// unimplemented" from "already in that state".
	AddWhitelistWord(ctx context.Context, guildID int64, word string) error
	AddBlacklistWord(ctx context.Context, guildID int64, word string) error
	AddBlacklistChannel(ctx context.Context, guildID, channelID int64) error
	AddR9kChannel(ctx context.Context, guildID, channelID int64) error
}

// Config carries everything needed to build a store. Exactly one of Pool
// or ConnStr must be set.
type Config struct {
	Log     *zap.Logger
	ConnStr string
	Pool    *sqlx.DB
	Schema  string
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PsqlDB is the postgres-backed ServerDB. One instance owns the pool for
// the process lifetime.
type PsqlDB struct {
	pool   *sqlx.DB
	log    *zap.Logger
	schema string
}

// NewPSQLDatabase builds a PsqlDB from a connection string or an already
// established pool, then ensures the schema exists. Passing a nil logger,
// or both or neither of pool and connection string, is a programmer error.
func NewPSQLDatabase(c *Config) (*PsqlDB, error) {
	if c.Log == nil {
		panic("database: nil logger")
	}
	if (c.Pool == nil) == (c.ConnStr == "") {
		panic("database: exactly one of Pool or ConnStr must be set")
	}

	schema := c.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	db := &PsqlDB{
		pool:   c.Pool,
		log:    c.Log,
		schema: schema,
	}

	if db.pool == nil {
		pool, err := sqlx.Connect("postgres", c.ConnStr)
		if err != nil {
			db.log.Error("unable to connect to db", zap.Error(err))
			return nil, err
		}
		pool.SetMaxOpenConns(16)
		pool.SetConnMaxLifetime(time.Hour)
		db.pool = pool
		db.log.Info("connected to postgres")
	}

	if err := EnsureSchema(context.Background(), db.pool, db.schema); err != nil {
		db.log.Error("unable to create schema", zap.Error(err))
		return nil, err
	}

	return db, nil
}

func (p *PsqlDB) GetConn() *sqlx.DB {
	return p.pool
}

func (p *PsqlDB) Close() error {
	return p.pool.Close()
}

func (p *PsqlDB) AddServer(ctx context.Context, guildID int64) error {
	q := fmt.Sprintf(`INSERT INTO %v.servers (serverid, prefix) VALUES ($1, $2) ON CONFLICT (serverid) DO NOTHING;`, p.schema)
	_, err := p.pool.ExecContext(ctx, q, guildID, DefaultPrefix)
	return err
}

func (p *PsqlDB) GetServer(ctx context.Context, guildID int64) (*Server, error) {
	var s Server
	q := fmt.Sprintf(`SELECT * FROM %v.servers WHERE serverid = $1;`, p.schema)
	if err := p.pool.GetContext(ctx, &s, q, guildID); err != nil {
		if rowAbsent(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (p *PsqlDB) GetServerPrefixes(ctx context.Context) (map[int64]string, error) {
	var rows []struct {
		ServerID int64  `db:"serverid"`
		Prefix   string `db:"prefix"`
	}
	q := fmt.Sprintf(`SELECT serverid, prefix FROM %v.servers;`, p.schema)
	if err := p.pool.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}

	prefixes := make(map[int64]string, len(rows))
	for _, r := range rows {
		prefixes[r.ServerID] = r.Prefix
	}
	return prefixes, nil
}

func (p *PsqlDB) SetPrefix(ctx context.Context, guildID int64, prefix string) error {
	if len(strings.TrimSpace(prefix)) > MaxPrefixLen {
		return ErrPrefixTooLong
	}
	q := fmt.Sprintf(`UPDATE %v.servers SET prefix = $2 WHERE serverid = $1;`, p.schema)
	res, err := p.pool.ExecContext(ctx, q, guildID, prefix)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PsqlDB) AddAssignableRole(ctx context.Context, guildID, roleID int64) error {
	q := fmt.Sprintf(`UPDATE %v.servers SET assignableroles = array_append(assignableroles, $2) WHERE serverid = $1;`, p.schema)
	res, err := p.pool.ExecContext(ctx, q, guildID, roleID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveAssignableRole removes every occurrence of roleID in a single
// statement, so two racing removals cannot interleave. The loser sees
// ErrRoleNotPresent, as does a remove against an unknown guild.
func (p *PsqlDB) RemoveAssignableRole(ctx context.Context, guildID, roleID int64) error {
	q := fmt.Sprintf(`UPDATE %v.servers SET assignableroles = array_remove(assignableroles, $2) WHERE serverid = $1 AND $2 = ANY (assignableroles);`, p.schema)
	res, err := p.pool.ExecContext(ctx, q, guildID, roleID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRoleNotPresent
	}
	return nil
}

func (p *PsqlDB) IsRoleAssignable(ctx context.Context, guildID, roleID int64) (bool, error) {
	var ok bool
	q := fmt.Sprintf(`SELECT $2 = ANY (assignableroles) FROM %v.servers WHERE serverid = $1;`, p.schema)
	if err := p.pool.GetContext(ctx, &ok, q, guildID, roleID); err != nil {
		if rowAbsent(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (p *PsqlDB) GetAssignableRoles(ctx context.Context, guildID int64) ([]int64, error) {
	var roles pq.Int64Array
	q := fmt.Sprintf(`SELECT assignableroles FROM %v.servers WHERE serverid = $1;`, p.schema)
	if err := p.pool.GetContext(ctx, &roles, q, guildID); err != nil {
		if rowAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return []int64(roles), nil
}

func (p *PsqlDB) InsertModAction(ctx context.Context, guildID, modID, targetID int64, action Action) error {
	q := fmt.Sprintf(`INSERT INTO %v.moderation (serverid, modid, targetid, action) VALUES ($1, $2, $3, $4);`, p.schema)
	_, err := p.pool.ExecContext(ctx, q, guildID, modID, targetID, action)
	if isUniqueViolation(err) {
		return ErrDuplicateModAction
	}
	return err
}

func (p *PsqlDB) GetModActions(ctx context.Context, guildID, targetID int64) ([]*ModAction, error) {
	var actions []*ModAction
	q := fmt.Sprintf(`SELECT * FROM %v.moderation WHERE serverid = $1 AND targetid = $2 ORDER BY logtime;`, p.schema)
	if err := p.pool.SelectContext(ctx, &actions, q, guildID, targetID); err != nil {
		return nil, err
	}
	return actions, nil
}

func (p *PsqlDB) GetModlogChannels(ctx context.Context, guildID int64) ([]int64, error) {
	var channels []int64
	q := fmt.Sprintf(`SELECT channelid FROM %v.modlog_channels WHERE serverid = $1;`, p.schema)
	if err := p.pool.SelectContext(ctx, &channels, q, guildID); err != nil {
		return nil, err
	}
	return channels, nil
}

func (p *PsqlDB) AddModlogChannel(ctx context.Context, guildID, channelID int64) (bool, error) {
	q := fmt.Sprintf(`INSERT INTO %v.modlog_channels (serverid, channelid) VALUES ($1, $2) ON CONFLICT (serverid, channelid) DO NOTHING;`, p.schema)
	res, err := p.pool.ExecContext(ctx, q, guildID, channelID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PsqlDB) RemoveModlogChannel(ctx context.Context, guildID, channelID int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %v.modlog_channels WHERE serverid = $1 AND channelid = $2;`, p.schema)
	res, err := p.pool.ExecContext(ctx, q, guildID, channelID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PsqlDB) AddMessage(ctx context.Context, msg *Message) error {
	q := fmt.Sprintf(`INSERT INTO %v.messages (guildid, messageid, authorid, channelid, isbot, pinned, content, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (messageid) DO NOTHING;`, p.schema)
	_, err := p.pool.ExecContext(ctx, q, msg.GuildID, msg.MessageID, msg.AuthorID, msg.ChannelID, msg.IsBot, msg.Pinned, msg.Content, msg.CreatedAt)
	return err
}

func (p *PsqlDB) GetMessage(ctx context.Context, messageID int64) (*Message, error) {
	var m Message
	q := fmt.Sprintf(`SELECT * FROM %v.messages WHERE messageid = $1;`, p.schema)
	if err := p.pool.GetContext(ctx, &m, q, messageID); err != nil {
		if rowAbsent(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (p *PsqlDB) AddWhitelistWord(ctx context.Context, guildID int64, word string) error {
	return ErrUnimplemented
}

func (p *PsqlDB) AddBlacklistWord(ctx context.Context, guildID int64, word string) error {
	return ErrUnimplemented
}

func (p *PsqlDB) AddBlacklistChannel(ctx context.Context, guildID, channelID int64) error {
	return ErrUnimplemented
}

func (p *PsqlDB) AddR9kChannel(ctx context.Context, guildID, channelID int64) error {
	return ErrUnimplemented
}

// rowAbsent reports whether an error from a row scan just means there was
// no row to decode.
func rowAbsent(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultSchema is the postgres namespace used when Config.Schema is empty.
const DefaultSchema = "yinbot"

var schemaStmts = []string{`
CREATE SCHEMA IF NOT EXISTS %[1]s;
`, `
CREATE TABLE IF NOT EXISTS %[1]s.servers (
	serverid          BIGINT PRIMARY KEY,
	prefix            VARCHAR(2),
	assignableroles   BIGINT[] DEFAULT '{}',
	filterwordswhite  VARCHAR[] DEFAULT '{}',
	filterwordsblack  VARCHAR[] DEFAULT '{}',
	blacklistchannels INT[] DEFAULT '{}',
	r9kchannels       INT[] DEFAULT '{}',
	addtime           TIMESTAMP DEFAULT now()
);
`, `
CREATE TABLE IF NOT EXISTS %[1]s.moderation (
	serverid BIGINT,
	modid    BIGINT,
	targetid BIGINT,
	action   SMALLINT,
	logtime  TIMESTAMP DEFAULT now(),
	PRIMARY KEY (serverid, modid, targetid, action)
);
`, `
CREATE TABLE IF NOT EXISTS %[1]s.modlog_channels (
	serverid  BIGINT,
	channelid BIGINT,
	PRIMARY KEY (serverid, channelid)
);
`, `
CREATE TABLE IF NOT EXISTS %[1]s.messages (
	guildid   BIGINT,
	messageid BIGINT PRIMARY KEY,
	authorid  BIGINT,
	channelid BIGINT,
	isbot     BOOLEAN DEFAULT false,
	pinned    BOOLEAN DEFAULT false,
	content   TEXT,
	createdat TIMESTAMP DEFAULT now()
);
`}

// EnsureSchema creates the namespace and tables if they do not exist. It is
// safe to run on every startup. Errors are fatal to the caller and are
// returned unmodified apart from context.
func EnsureSchema(ctx context.Context, conn *sqlx.DB, schema string) error {
	if schema == "" {
		schema = DefaultSchema
	}
	for _, stmt := range schemaStmts {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf(stmt, schema)); err != nil {
			return fmt.Errorf("ensure schema %v: %w", schema, err)
		}
	}
	return nil
}

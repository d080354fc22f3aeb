package database

import (
	"time"

	"github.com/lib/pq"
)

const (
	// DefaultPrefix is set on a server row at creation.
	DefaultPrefix = "-"
	// MaxPrefixLen matches the VARCHAR(2) prefix column.
	MaxPrefixLen = 2
)

// Action is the kind of moderation event being logged.
type Action int16

const (
	ActionWarn Action = iota
	ActionMute
	ActionKick
	ActionBan
	ActionUnban
)

func (a Action) String() string {
	switch a {
	case ActionWarn:
		return "warn"
	case ActionMute:
		return "mute"
	case ActionKick:
		return "kick"
	case ActionBan:
		return "ban"
	case ActionUnban:
		return "unban"
	}
	return "unknown"
}

// Server mirrors one row in the servers table.
type Server struct {
	ServerID          int64          `json:"serverid" db:"serverid"`
	Prefix            string         `json:"prefix" db:"prefix"`
	AssignableRoles   pq.Int64Array  `json:"assignableroles" db:"assignableroles"`
	FilterWordsWhite  pq.StringArray `json:"filterwordswhite" db:"filterwordswhite"`
	FilterWordsBlack  pq.StringArray `json:"filterwordsblack" db:"filterwordsblack"`
	BlacklistChannels pq.Int32Array  `json:"blacklistchannels" db:"blacklistchannels"`
	R9kChannels       pq.Int32Array  `json:"r9kchannels" db:"r9kchannels"`
	AddTime           time.Time      `json:"addtime" db:"addtime"`
}

// copy returns the row detached from the store's backing arrays, so
// callers cannot write through it into store state.
func (s *Server) copy() *Server {
	cp := *s
	cp.AssignableRoles = append(pq.Int64Array(nil), s.AssignableRoles...)
	cp.FilterWordsWhite = append(pq.StringArray(nil), s.FilterWordsWhite...)
	cp.FilterWordsBlack = append(pq.StringArray(nil), s.FilterWordsBlack...)
	cp.BlacklistChannels = append(pq.Int32Array(nil), s.BlacklistChannels...)
	cp.R9kChannels = append(pq.Int32Array(nil), s.R9kChannels...)
	return &cp
}

// ModAction mirrors one row in the moderation table. The composite key
// (serverid, modid, targetid, action) means a moderator can log a given
// action against a target at most once per guild.
type ModAction struct {
	ServerID int64     `json:"serverid" db:"serverid"`
	ModID    int64     `json:"modid" db:"modid"`
	TargetID int64     `json:"targetid" db:"targetid"`
	Action   Action    `json:"action" db:"action"`
	LogTime  time.Time `json:"logtime" db:"logtime"`
}

// Message mirrors one row in the messages archive, keyed by message ID.
type Message struct {
	GuildID   int64     `json:"guildid" db:"guildid"`
	MessageID int64     `json:"messageid" db:"messageid"`
	AuthorID  int64     `json:"authorid" db:"authorid"`
	ChannelID int64     `json:"channelid" db:"channelid"`
	IsBot     bool      `json:"isbot" db:"isbot"`
	Pinned    bool      `json:"pinned" db:"pinned"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdat" db:"createdat"`
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// JsonDB is a file-backed ServerDB for local development and tests. State
// lives in memory behind a mutex and is flushed to disk on Close.
type JsonDB struct {
	path  string
	state *state
}

type state struct {
	sync.Mutex
	Servers    map[int64]*Server  `json:"servers"`
	ModActions []*ModAction       `json:"mod_actions"`
	Modlogs    map[int64][]int64  `json:"modlog_channels"`
	Messages   map[int64]*Message `json:"messages"`
}

func newState() *state {
	return &state{
		Servers:  make(map[int64]*Server),
		Modlogs:  make(map[int64][]int64),
		Messages: make(map[int64]*Message),
	}
}

func NewJsonDatabase(path string) (*JsonDB, error) {
	db := &JsonDB{
		path:  path,
		state: newState(),
	}
	err := db.load(path)
	return db, err
}

func (j *JsonDB) load(path string) error {
	if _, err := os.Stat(path); err != nil {
		// no data file yet, start from empty state
		return nil
	}

	d, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	st := newState()
	if err := json.Unmarshal(d, st); err != nil {
		return err
	}
	j.state = st
	return nil
}

func (j *JsonDB) save() error {
	j.state.Lock()
	defer j.state.Unlock()

	d, err := json.Marshal(j.state)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, d, 0644)
}

func (j *JsonDB) GetConn() *sqlx.DB {
	return nil
}

func (j *JsonDB) Close() error {
	return j.save()
}

func (j *JsonDB) AddServer(_ context.Context, guildID int64) error {
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Servers[guildID]; ok {
		return nil
	}
	j.state.Servers[guildID] = &Server{
		ServerID: guildID,
		Prefix:   DefaultPrefix,
		AddTime:  time.Now(),
	}
	return nil
}

func (j *JsonDB) GetServer(_ context.Context, guildID int64) (*Server, error) {
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copy(), nil
}

func (j *JsonDB) GetServerPrefixes(_ context.Context) (map[int64]string, error) {
	j.state.Lock()
	defer j.state.Unlock()
	prefixes := make(map[int64]string, len(j.state.Servers))
	for id, s := range j.state.Servers {
		prefixes[id] = s.Prefix
	}
	return prefixes, nil
}

func (j *JsonDB) SetPrefix(_ context.Context, guildID int64, prefix string) error {
	if len(strings.TrimSpace(prefix)) > MaxPrefixLen {
		return ErrPrefixTooLong
	}
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return ErrNotFound
	}
	s.Prefix = prefix
	return nil
}

func (j *JsonDB) AddAssignableRole(_ context.Context, guildID, roleID int64) error {
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return ErrNotFound
	}
	s.AssignableRoles = append(s.AssignableRoles, roleID)
	return nil
}

func (j *JsonDB) RemoveAssignableRole(_ context.Context, guildID, roleID int64) error {
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return ErrRoleNotPresent
	}
	// drops every occurrence, same as array_remove in the psql store
	kept := s.AssignableRoles[:0]
	for _, r := range s.AssignableRoles {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(s.AssignableRoles) {
		return ErrRoleNotPresent
	}
	s.AssignableRoles = kept
	return nil
}

func (j *JsonDB) IsRoleAssignable(_ context.Context, guildID, roleID int64) (bool, error) {
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return false, nil
	}
	for _, r := range s.AssignableRoles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (j *JsonDB) GetAssignableRoles(_ context.Context, guildID int64) ([]int64, error) {
	j.state.Lock()
	defer j.state.Unlock()
	s, ok := j.state.Servers[guildID]
	if !ok {
		return nil, nil
	}
	roles := make([]int64, len(s.AssignableRoles))
	copy(roles, s.AssignableRoles)
	return roles, nil
}

func (j *JsonDB) InsertModAction(_ context.Context, guildID, modID, targetID int64, action Action) error {
	j.state.Lock()
	defer j.state.Unlock()
	for _, ma := range j.state.ModActions {
		if ma.ServerID == guildID && ma.ModID == modID && ma.TargetID == targetID && ma.Action == action {
			return ErrDuplicateModAction
		}
	}
	j.state.ModActions = append(j.state.ModActions, &ModAction{
		ServerID: guildID,
		ModID:    modID,
		TargetID: targetID,
		Action:   action,
		LogTime:  time.Now(),
	})
	return nil
}

func (j *JsonDB) GetModActions(_ context.Context, guildID, targetID int64) ([]*ModAction, error) {
	j.state.Lock()
	defer j.state.Unlock()
	var actions []*ModAction
	for _, ma := range j.state.ModActions {
		if ma.ServerID == guildID && ma.TargetID == targetID {
			cp := *ma
			actions = append(actions, &cp)
		}
	}
	return actions, nil
}

func (j *JsonDB) GetModlogChannels(_ context.Context, guildID int64) ([]int64, error) {
	j.state.Lock()
	defer j.state.Unlock()
	channels := make([]int64, len(j.state.Modlogs[guildID]))
	copy(channels, j.state.Modlogs[guildID])
	return channels, nil
}

func (j *JsonDB) AddModlogChannel(_ context.Context, guildID, channelID int64) (bool, error) {
	j.state.Lock()
	defer j.state.Unlock()
	for _, c := range j.state.Modlogs[guildID] {
		if c == channelID {
			return false, nil
		}
	}
	j.state.Modlogs[guildID] = append(j.state.Modlogs[guildID], channelID)
	return true, nil
}

func (j *JsonDB) RemoveModlogChannel(_ context.Context, guildID, channelID int64) (bool, error) {
	j.state.Lock()
	defer j.state.Unlock()
	channels := j.state.Modlogs[guildID]
	for i, c := range channels {
		if c == channelID {
			j.state.Modlogs[guildID] = append(channels[:i], channels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (j *JsonDB) AddMessage(_ context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("database: nil message")
	}
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Messages[msg.MessageID]; ok {
		return nil
	}
	cp := *msg
	j.state.Messages[msg.MessageID] = &cp
	return nil
}

func (j *JsonDB) GetMessage(_ context.Context, messageID int64) (*Message, error) {
	j.state.Lock()
	defer j.state.Unlock()
	m, ok := j.state.Messages[messageID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (j *JsonDB) AddWhitelistWord(context.Context, int64, string) error {
	return ErrUnimplemented
}

func (j *JsonDB) AddBlacklistWord(context.Context, int64, string) error {
	return ErrUnimplemented
}

func (j *JsonDB) AddBlacklistChannel(context.Context, int64, int64) error {
	return ErrUnimplemented
}

func (j *JsonDB) AddR9kChannel(context.Context, int64, int64) error {
	return ErrUnimplemented
}

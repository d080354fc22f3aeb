package kvstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"go.uber.org/zap"
)

// messageTTL bounds how long deleted-message context stays available.
const messageTTL = 24 * time.Hour

// Store is a badger-backed cache for recent messages and member state.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

func NewStore(log *zap.Logger, path string) (*Store, error) {
	s := &Store{
		log: log,
	}

	opts := badger.DefaultOptions(path)
	opts.Truncate = true
	opts.ValueLogLoadingMode = options.FileIO
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		s.log.Error("failed to open badger", zap.Error(err))
		return nil, err
	}
	s.db = db

	go s.runGC()

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (s *Store) SetMember(m *CachedMember) error {
	enc, err := encodeGob(m)
	if err != nil {
		s.log.Error("failed to encode member", zap.Error(err))
		return err
	}

	key := fmt.Sprintf("member:%v:%v", m.GuildID, m.UserID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), enc)
	})
}

func (s *Store) GetMember(gid, uid string) (*CachedMember, error) {
	var member CachedMember
	key := fmt.Sprintf("member:%v:%v", gid, uid)
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return decodeGob(value, &member)
	}); err != nil {
		if err != badger.ErrKeyNotFound {
			s.log.Error("failed to read member", zap.Error(err))
		}
		return nil, err
	}

	return &member, nil
}

func (s *Store) DeleteMember(gid, uid string) error {
	key := fmt.Sprintf("member:%v:%v", gid, uid)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// SetMessage stores the message under message:<guild>:<channel>:<id> and an
// index entry under index:<guild>:<author>:<id>, so the per-user log scan
// does not have to walk every channel.
func (s *Store) SetMessage(msg *CachedMessage) error {
	enc, err := encodeGob(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	messageKey := fmt.Sprintf("message:%v:%v:%v", msg.GuildID, msg.ChannelID, msg.ID)
	indexKey := fmt.Sprintf("index:%v:%v:%v", msg.GuildID, msg.AuthorID, msg.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(messageKey), enc).WithTTL(messageTTL)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}

		indexEntry := badger.NewEntry([]byte(indexKey), []byte(messageKey)).WithTTL(messageTTL)
		return txn.SetEntry(indexEntry)
	})
}

func (s *Store) GetMessage(gid, cid, mid string) (*CachedMessage, error) {
	var message CachedMessage
	key := fmt.Sprintf("message:%v:%v:%v", gid, cid, mid)
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return decodeGob(value, &message)
	}); err != nil {
		if err != badger.ErrKeyNotFound {
			s.log.Error("failed to read message", zap.Error(err))
		}
		return nil, err
	}

	return &message, nil
}

// GetMessageLog returns the still-cached messages one user sent in a guild.
func (s *Store) GetMessageLog(gid, uid string) ([]*CachedMessage, error) {
	prefix := []byte(fmt.Sprintf("index:%v:%v:", gid, uid))
	var messages []*CachedMessage
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				s.log.Error("failed to read index entry", zap.Error(err))
				continue
			}

			item, err := txn.Get(value)
			if err != nil {
				// index may outlive the message entry by a moment
				continue
			}
			enc, err := item.ValueCopy(nil)
			if err != nil {
				s.log.Error("failed to read message", zap.Error(err))
				continue
			}

			var message CachedMessage
			if err := decodeGob(enc, &message); err != nil {
				s.log.Error("failed to decode message", zap.Error(err))
				continue
			}
			messages = append(messages, &message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *Store) runGC() {
	gcTicker := time.NewTicker(time.Hour)
	for range gcTicker.C {
		for {
			if err := s.db.RunValueLogGC(0.7); err != nil {
				break
			}
		}
	}
}

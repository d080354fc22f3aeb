package kvstore

import (
	"io"
	"net/http"
)

// CachedMessage is the short-lived copy of a message kept for modlog
// output after the original is deleted or edited.
type CachedMessage struct {
	ID          string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorTag   string
	Bot         bool
	Content     string
	Attachments []*Attachment
}

type Attachment struct {
	Filename string
	Size     int
	Data     []byte
}

// CachedMember is the last known state of a guild member, used for leave
// and ban logs after the member is gone.
type CachedMember struct {
	GuildID string
	UserID  string
	UserTag string
	Nick    string
	Roles   []string
}

func GetAttachment(url string) ([]byte, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	return io.ReadAll(res.Body)
}

type ByID []*CachedMessage

func (m ByID) Len() int {
	return len(m)
}

func (m ByID) Less(i, j int) bool {
	return m[i].ID < m[j].ID
}

func (m ByID) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

package bot

import (
	"strconv"
	"strings"

	"github.com/dashwav/yinbot/database"
)

// parseID converts a snowflake string to the int64 the database layer
// uses. Returns 0 for garbage input; discord-supplied IDs are always valid.
func parseID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ValidPrefix reports whether p can be used as a command prefix.
func ValidPrefix(p string) bool {
	p = strings.TrimSpace(p)
	return len(p) > 0 && len(p) <= database.MaxPrefixLen
}

// TrimRoleMention strips role mention decoration, leaving the ID.
func TrimRoleMention(s string) string {
	s = strings.TrimPrefix(s, "<@&")
	s = strings.TrimSuffix(s, ">")
	return s
}

// TrimUserMention strips user mention decoration, leaving the ID.
func TrimUserMention(s string) string {
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimSuffix(s, ">")
	return s
}

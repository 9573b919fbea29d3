// Package access decides who may run operator commands.
package access

import (
	"strconv"
	"strings"
)

// Operators is the configured allow-list. Entries are Telegram usernames
// (with or without a leading @, case-insensitive) or numeric user IDs.
type Operators struct {
	usernames map[string]bool
	ids       map[int64]bool
}

// NewOperators builds the allow-list from raw config entries.
func NewOperators(entries []string) *Operators {
	o := &Operators{
		usernames: make(map[string]bool),
		ids:       make(map[int64]bool),
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if id, err := strconv.ParseInt(e, 10, 64); err == nil {
			o.ids[id] = true
			continue
		}
		o.usernames[normalize(e)] = true
	}
	return o
}

// Allows reports whether the Telegram user is an operator.
func (o *Operators) Allows(userID int64, username string) bool {
	if o == nil {
		return false
	}
	if o.ids[userID] {
		return true
	}
	u := normalize(username)
	return u != "" && o.usernames[u]
}

// Len returns the number of configured entries.
func (o *Operators) Len() int {
	return len(o.usernames) + len(o.ids)
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

package bot

import (
	"strconv"
	"strings"
)

const (
	cmdStart          = "start"
	cmdChangeHometown = "changehometown"
	cmdNewOp          = "newop"
	cmdListOps        = "listops"
	cmdCancel         = "cancel"
	cmdMyOrders       = "myorders"
	cmdOrder          = "order"
	cmdShowOrders     = "showorders"
	cmdDeleteOp       = "deleteop"
)

// Commands that carry an id, written /<name>_<id>.
var linkCommands = []string{cmdOrder, cmdShowOrders, cmdDeleteOp}

type command struct {
	name string
	id   int64
}

// entry reports whether the command starts a conversation.
func (c command) entry() bool {
	switch c.name {
	case cmdStart, cmdChangeHometown, cmdNewOp, cmdListOps, cmdMyOrders:
		return true
	case cmdOrder, cmdShowOrders, cmdDeleteOp:
		return c.id > 0
	}
	return false
}

// parseCommand reads "/name", "/name@bot" and deep links like "/order_12".
// Anything after the first word is ignored. Deep links without a valid id
// come back under their full name and so count as unknown.
func parseCommand(text string) (command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return command{}, false
	}
	name = strings.ToLower(name)

	for _, link := range linkCommands {
		rest, ok := strings.CutPrefix(name, link+"_")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			break
		}
		return command{name: link, id: id}, true
	}
	return command{name: name}, true
}

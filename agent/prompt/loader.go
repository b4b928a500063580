package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/dispatcher.txt
var dispatcherRaw string

// Dispatcher returns the trimmed system prompt used for every chat turn.
func Dispatcher() string {
	return strings.TrimSpace(dispatcherRaw)
}

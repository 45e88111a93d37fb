package tgui

import (
	"strings"
)

// Data formats inline callback data as "action" or "action:arg:arg".
// Args are kept as-is (no escaping), so they must not contain ':'.
func Data(action string, args ...string) string {
	action = strings.TrimSpace(action)
	if len(args) == 0 {
		return action
	}
	return action + ":" + strings.Join(args, ":")
}

// SplitData is the inverse of Data: it returns the action and its args.
func SplitData(data string) (action string, args []string) {
	parts := strings.Split(data, ":")
	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts[0], parts[1:]
}

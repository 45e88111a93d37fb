package config

import (
	"reflect"
	"sort"
	"strings"

	"santabot/internal/logging"
)

// SummarizeChange returns a compact list of changed sections and safe
// structured attrs for logging (never includes secrets like tokens).
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logging.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logging.Field, 0, 12)

	// Telegram (never log token)
	if strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) ||
		!reflect.DeepEqual(oldCfg.Telegram.Admins, newCfg.Telegram.Admins) ||
		oldCfg.Telegram.LogChat != newCfg.Telegram.LogChat ||
		oldCfg.Telegram.ExitUnknownGroups != newCfg.Telegram.ExitUnknownGroups ||
		oldCfg.Telegram.RatePerSec != newCfg.Telegram.RatePerSec {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logging.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
			logging.Int("telegram.admin_count", len(newCfg.Telegram.Admins)),
			logging.Bool("telegram.log_chat_set", newCfg.Telegram.LogChat != 0),
			logging.Bool("telegram.exit_unknown_groups", newCfg.Telegram.ExitUnknownGroups),
		)
	}

	// Santa rules
	if oldCfg.Santa != newCfg.Santa {
		changed = append(changed, "santa")
		attrs = append(attrs,
			logging.Int("santa.min_participants", newCfg.Santa.MinParticipants),
			logging.Int("santa.timeout_hours", newCfg.Santa.TimeoutHours),
		)
	}

	// Storage (persistence)
	oldS := oldCfg.Storage
	newS := newCfg.Storage
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldS != nil {
		oDriver = strings.TrimSpace(oldS.Driver)
		oBusy = strings.TrimSpace(oldS.BusyTimeout)
		oPathSet = strings.TrimSpace(oldS.Path) != ""
	}
	if newS != nil {
		nDriver = strings.TrimSpace(newS.Driver)
		nBusy = strings.TrimSpace(newS.BusyTimeout)
		nPathSet = strings.TrimSpace(newS.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logging.String("storage.driver", nDriver),
			logging.Bool("storage.path_set", nPathSet),
			logging.String("storage.busy_timeout", nBusy),
		)
	}

	// Logging document. Compared wholesale; the section is applied once at
	// startup so a change here only produces a restart-required warning.
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logging.Bool("logging.section_set", newCfg.Logging != nil),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

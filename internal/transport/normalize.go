package transport

import (
	"strings"

	"clonedirect/internal/domain"
)

// keywordKinds maps stage-independent text inputs onto event kinds, the same
// kinds the choice buttons produce. First match wins; everything else stays
// free text for the core to resolve by stage.
var keywordKinds = []struct {
	keyword string
	kind    domain.EventKind
}{
	{"menu", domain.EventBrowse},
	{"clones", domain.EventBrowse},
	{"strains", domain.EventBrowse},
	{"catalog", domain.EventBrowse},
	{"cart", domain.EventViewCart},
	{"faq", domain.EventFAQ},
	{"how much", domain.EventPricing},
	{"pricing", domain.EventPricing},
	{"cancel", domain.EventCancel},
}

// commandKinds maps slash commands. Operator-only commands still map for
// everyone; the core rejects non-operator callers.
var commandKinds = map[string]domain.EventKind{
	"/start":    domain.EventStart,
	"/cancel":   domain.EventCancel,
	"/orders":   domain.EventAdminOrders,
	"/complete": domain.EventAdminComplete,
	"/delete":   domain.EventAdminDelete,
	"/export":   domain.EventAdminExport,
	"/remind":   domain.EventAdminRemind,
}

// MapText normalizes a raw text message into the shared Event type.
func MapText(userID, text string) domain.Event {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		cmd, arg, _ := strings.Cut(trimmed, " ")
		if kind, ok := commandKinds[strings.ToLower(cmd)]; ok {
			return domain.Event{UserID: userID, Kind: kind, Arg: strings.TrimSpace(arg)}
		}
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range keywordKinds {
		if strings.Contains(lower, kw.keyword) {
			return domain.Event{UserID: userID, Kind: kw.kind}
		}
	}

	return domain.Event{UserID: userID, Kind: domain.EventText, Arg: trimmed}
}

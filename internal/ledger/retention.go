package ledger

import (
	"slices"
	"strings"
)

// Prune keeps the perChannel most recent items of every channel, ordered by
// the published string descending. Channels appear in order of first
// occurrence. Items without a channel are grouped under DefaultChannel.
func Prune(items []WorkItem, perChannel int) []WorkItem {
	if perChannel < 0 {
		perChannel = 0
	}
	order := make([]string, 0)
	groups := make(map[string][]WorkItem)
	for _, item := range items {
		channel := item.ChannelOrDefault()
		if _, ok := groups[channel]; !ok {
			order = append(order, channel)
		}
		groups[channel] = append(groups[channel], item)
	}

	kept := make([]WorkItem, 0, len(items))
	for _, channel := range order {
		group := groups[channel]
		slices.SortStableFunc(group, func(a, b WorkItem) int {
			return strings.Compare(b.Published, a.Published)
		})
		if len(group) > perChannel {
			group = group[:perChannel]
		}
		kept = append(kept, group...)
	}
	return kept
}

// FilterShorts drops items whose video id contains "short" in any case and
// returns the remaining items plus the number dropped.
func FilterShorts(items []WorkItem) ([]WorkItem, int) {
	kept := make([]WorkItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.VideoID), "short") {
			continue
		}
		kept = append(kept, item)
	}
	return kept, len(items) - len(kept)
}

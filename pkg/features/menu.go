package features

import (
	"fmt"

	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"go.uber.org/zap"
)

// PreferenceMenuKey prefixes generated preference menu item ids.
const PreferenceMenuKey = "preferenceMenu"

// MenuItemState is the checkmark state of a menu item.
type MenuItemState string

const (
	MenuItemOn    MenuItemState = "on"
	MenuItemOff   MenuItemState = "off"
	MenuItemMixed MenuItemState = "mixed"
)

// MenuItem is a native menu entry handed to the host.
type MenuItem struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Enabled           *bool         `json:"enabled,omitempty"`
	IsSectionHeader   bool          `json:"isSectionHeader,omitempty"`
	State             MenuItemState `json:"state,omitempty"`
	KeyEquivalent     string        `json:"keyEquivalent,omitempty"`
	KeyModifiers      []string      `json:"keyModifiers,omitempty"`
	Submenu           []MenuItem    `json:"submenu,omitempty"`
	RepresentedObject any           `json:"representedObject,omitempty"`
}

// MenuProvider builds the preference menu on demand.
type MenuProvider func() []MenuItem

func titleOrDefault(title string) string {
	if title == "" {
		return "item"
	}
	return title
}

// NormalizeMenuItems returns a copy of items where every item without an id
// gets "<key>:<title>#<index>" and every direct submenu item without an id
// gets "<parent id>><title>#<index>". Nothing else is checked.
func NormalizeMenuItems(items []MenuItem, key string) []MenuItem {
	if items == nil {
		return []MenuItem{}
	}
	out := make([]MenuItem, len(items))
	for idx, it := range items {
		out[idx] = normalizeMenuItem(it, key, idx)
	}
	return out
}

// NormalizeMenuItem normalizes a single top-level item as if it were at index 0.
func NormalizeMenuItem(item MenuItem, key string) MenuItem {
	return normalizeMenuItem(item, key, 0)
}

func normalizeMenuItem(it MenuItem, key string, idx int) MenuItem {
	if it.ID == "" {
		it.ID = fmt.Sprintf("%s:%s#%d", key, titleOrDefault(it.Title), idx)
	}
	if it.Submenu != nil {
		sub := make([]MenuItem, len(it.Submenu))
		for sIdx, s := range it.Submenu {
			if s.ID == "" {
				s.ID = fmt.Sprintf("%s>%s#%d", it.ID, titleOrDefault(s.Title), sIdx)
			}
			sub[sIdx] = s
		}
		it.Submenu = sub
	}
	return it
}

// PreferenceMenuItems runs provider and normalizes its items under
// PreferenceMenuKey. A nil provider yields an empty menu, and a panicking
// provider is logged and yields an empty menu.
func (f *Features) PreferenceMenuItems(provider MenuProvider) (items []MenuItem) {
	if provider == nil {
		return []MenuItem{}
	}
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.ComponentError(logging.ComponentFeatures, "preference menu provider panicked",
				zap.String("panic", fmt.Sprint(rec)))
			items = []MenuItem{}
		}
	}()
	return NormalizeMenuItems(provider(), PreferenceMenuKey)
}

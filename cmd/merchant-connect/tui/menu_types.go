package tui

// ActionType distinguishes how a menu action is executed.
type ActionType int

const (
	ActionNone ActionType = iota // category (has children, no action)
	ActionCLI                    // exit menu, run CLI command, re-enter menu
	ActionTUI                    // exit menu, run an interactive form or view, re-enter menu
)

// Action IDs shared by the menu and the dispatcher.
const (
	ActionStatus           = "status"
	ActionConnect          = "connect"
	ActionPing             = "ping"
	ActionProfileShow      = "profile-show"
	ActionProfileEdit      = "profile-edit"
	ActionProfileRepublish = "profile-republish"
	ActionPublishLocations = "publish-locations"
	ActionPublishCatalog   = "publish-catalog"
	ActionPublishAll       = "publish-all"
	ActionSeller           = "seller"
	ActionSetBackend       = "set-backend"
	ActionReset            = "reset"
)

// AllActionIDs returns every action ID. Tests use it to check that the
// dispatcher handles each one.
func AllActionIDs() []string {
	return []string{
		ActionStatus, ActionConnect, ActionPing,
		ActionProfileShow, ActionProfileEdit, ActionProfileRepublish,
		ActionPublishLocations, ActionPublishCatalog, ActionPublishAll,
		ActionSeller, ActionSetBackend, ActionReset,
	}
}

// MenuAction is the result of selecting a leaf menu item.
type MenuAction struct {
	ID   string
	Type ActionType
}

// menuItem is one entry in the menu tree.
type menuItem struct {
	label    string
	desc     string
	children []menuItem
	action   MenuAction
}

func (m menuItem) isCategory() bool {
	return len(m.children) > 0
}

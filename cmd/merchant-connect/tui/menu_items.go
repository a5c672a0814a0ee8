package tui

import "github.com/synvya/merchant-connect/internal/commands"

// BuildMenuItems returns the menu tree for the detected state.
func BuildMenuItems(state commands.MenuState) []menuItem {
	if !state.Connected {
		return buildDisconnectedMenu()
	}
	return buildConnectedMenu()
}

func buildDisconnectedMenu() []menuItem {
	return []menuItem{
		{
			label:  "Connect with Square",
			desc:   "authorize in your browser",
			action: MenuAction{ID: ActionConnect, Type: ActionCLI},
		},
		{
			label:  "Check backend",
			action: MenuAction{ID: ActionPing, Type: ActionCLI},
		},
		{
			label:  "Change backend URL",
			action: MenuAction{ID: ActionSetBackend, Type: ActionTUI},
		},
	}
}

func buildConnectedMenu() []menuItem {
	return []menuItem{
		{
			label: "Profile",
			children: []menuItem{
				{label: "Show profile", action: MenuAction{ID: ActionProfileShow, Type: ActionCLI}},
				{label: "Edit profile", desc: "save and publish", action: MenuAction{ID: ActionProfileEdit, Type: ActionTUI}},
				{label: "Publish profile again", action: MenuAction{ID: ActionProfileRepublish, Type: ActionCLI}},
			},
		},
		{
			label: "Publish",
			children: []menuItem{
				{label: "Locations", action: MenuAction{ID: ActionPublishLocations, Type: ActionCLI}},
				{label: "Products", action: MenuAction{ID: ActionPublishCatalog, Type: ActionCLI}},
				{label: "Everything", desc: "locations and products", action: MenuAction{ID: ActionPublishAll, Type: ActionCLI}},
			},
		},
		{
			label: "Account",
			children: []menuItem{
				{label: "Connection status", action: MenuAction{ID: ActionStatus, Type: ActionCLI}},
				{label: "Seller info", action: MenuAction{ID: ActionSeller, Type: ActionCLI}},
				{label: "Reconnect with Square", action: MenuAction{ID: ActionConnect, Type: ActionCLI}},
				{label: "Change backend URL", action: MenuAction{ID: ActionSetBackend, Type: ActionTUI}},
				{label: "Disconnect", desc: "forget the session", action: MenuAction{ID: ActionReset, Type: ActionTUI}},
			},
		},
	}
}

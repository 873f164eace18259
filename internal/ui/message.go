package ui

import "github.com/desertthunder/reeladmin/internal/tasks"

// loadedMsg reports a finished Controller.Load.
type loadedMsg struct {
	err error
}

// toggledMsg reports a finished status toggle.
type toggledMsg struct {
	id  string
	err error
}

// progressUpdateMsg carries a coordinator update.
type progressUpdateMsg tasks.Update

// updatesClosedMsg is sent once the coordinator's update channel is closed.
type updatesClosedMsg struct{}

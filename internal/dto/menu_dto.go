package dto

import "github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"

// MenuResponse is a snapshot as served to the public menu, tagged with where
// it came from.
type MenuResponse struct {
	menu.Snapshot
	Source menu.Source `json:"source"`
}

package games

// Change actions published after a successful mutation.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeNotifier receives a notification after a successful games or
// user_games mutation so realtime consumers can invalidate and recompute
// their game list.
type ChangeNotifier interface {
	NotifyChange(table string, action string, gameID uint)
}

// NopNotifier discards notifications. Used when no realtime server runs,
// e.g. in controller tests.
type NopNotifier struct{}

func (NopNotifier) NotifyChange(string, string, uint) {}

package tray

// Actions are the agent operations reachable from the menu.
type Actions interface {
	OpenSettings()
	Toggle(entityID string)
	RequestShutdown()
}

// Route returns a click handler dispatching entry ids to actions. Handlers
// must return quickly; Toggle implementations are expected to hand work off.
func Route(a Actions) func(id string) {
	return func(id string) {
		switch id {
		case SettingsID:
			a.OpenSettings()
		case QuitID:
			a.RequestShutdown()
		default:
			a.Toggle(id)
		}
	}
}

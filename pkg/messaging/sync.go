package messaging

type ChangeTopic string

const (
	SelectionChanged ChangeTopic = "selection_changed"
	StateChanged     ChangeTopic = "state_changed"
)

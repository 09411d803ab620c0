package domain

// FlowStage is the state of a question moving through the guidance flow.
type FlowStage string

// Guidance flow stages, in order. Failed is terminal.
const (
	StageReceived FlowStage = "RECEIVED"
	StageExpanded FlowStage = "EXPANDED"
	StageEmbedded FlowStage = "EMBEDDED"
	StageMatched  FlowStage = "MATCHED"
	StageComposed FlowStage = "COMPOSED"
	StageReturned FlowStage = "RETURNED"
	StageFailed   FlowStage = "FAILED"
)

// Ability is a competency inferred from matched events.
type Ability struct {
	ID          int    `json:"id"`
	Name        string `json:"ability"`
	Description string `json:"description"`
}

// ActivityFit is a matched activity and how well it fits a question.
type ActivityFit struct {
	ID         int64      `json:"id"`
	EventID    int64      `json:"event_id"`
	Activity   string     `json:"activity"`
	Fit        float64    `json:"fit"`
	EventsList []FitEvent `json:"events_list"`
}

// FitEvent is the event role shown under an ActivityFit.
type FitEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
}

// SuggestedEvent is an event the model recommends for a question.
type SuggestedEvent struct {
	EventID      int64  `json:"event_id"`
	ActivityName string `json:"activity_name"`
	EventName    string `json:"event_name"`
	Situation    string `json:"situation"`
	Task         string `json:"task"`
	Action       string `json:"action"`
	Result       string `json:"result"`
	Contribution int    `json:"contribution"`
	Comment      string `json:"comment"`
}

// Recommendation is the composed answer of the recommend flow.
type Recommendation struct {
	Analysis        string           `json:"analysis"`
	SuggestedEvents []SuggestedEvent `json:"suggested_events"`
	Tip             string           `json:"tip"`
}

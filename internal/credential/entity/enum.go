package entity

// DeleteOutcome reports what a delete did.
type DeleteOutcome int8

const (
	// DeleteOutcomeNotFound means no record matched.
	DeleteOutcomeNotFound DeleteOutcome = iota
	// DeleteOutcomeDeleted means at least one record was removed.
	DeleteOutcomeDeleted
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteOutcomeDeleted:
		return "Deleted"
	default:
		return "NotFound"
	}
}

// AuthOutcome labels authentication attempts in metrics.
type AuthOutcome string

const (
	AuthOutcomeSuccess AuthOutcome = "success"
	AuthOutcomeFailure AuthOutcome = "failure"
	AuthOutcomeInvalid AuthOutcome = "invalid_input"
	AuthOutcomeError   AuthOutcome = "error"
)

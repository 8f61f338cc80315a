package lifecycle

// Sweep actions reported in the result list.
const (
	ActionExpired = "expired"
	ActionBlocked = "blocked"
)

// ActionResult records one transition or notice performed during a sweep.
// Error is set when the action was attempted but delivery failed; the
// record's precondition still holds, so a later sweep retries it.
type ActionResult struct {
	SubscriptionID string `json:"subId"`
	Action         string `json:"action"`
	Error          string `json:"error,omitempty"`
}

// noticeAction maps a notice type to its result action label.
func noticeAction(t string) string {
	return "notice_" + t
}

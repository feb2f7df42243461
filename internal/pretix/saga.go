package pretix

// Multi-step upstream writes (event then settings, ticket then quota) are
// not transactional: the first write may commit while the second fails.
// Instead of hiding that in a log line, each step is recorded and the
// overall outcome distinguishes full success from success-with-warning.

// Step statuses.
const (
	StepOK     = "ok"
	StepFailed = "failed"
)

// Step records one upstream write within a multi-step operation.
type Step struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Outcome is the recorded completion state of a multi-step operation.
// Warning is set when a later step failed after an earlier one committed.
type Outcome struct {
	Success bool   `json:"success"`
	Warning bool   `json:"warning,omitempty"`
	Steps   []Step `json:"steps,omitempty"`
}

// Ok appends a successful step.
func (o *Outcome) Ok(name string) {
	o.Steps = append(o.Steps, Step{Name: name, Status: StepOK})
}

// Fail appends a failed step.
func (o *Outcome) Fail(name, message string) {
	o.Steps = append(o.Steps, Step{Name: name, Status: StepFailed, Message: message})
}

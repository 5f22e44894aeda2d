package provisioning

import "fmt"

// StateRecord tracks the installation progress of a single entity: its deploy
// state, completion percentage, a free-text status message, and the severity
// of the latest report. Every Host, ClusterHost, and Cluster owns exactly one.
type StateRecord struct {
	state      DeployState
	percentage float64
	message    string
	severity   Severity
}

// NewStateRecord creates a StateRecord in its initial UNINITIALIZED state.
func NewStateRecord() *StateRecord {
	return &StateRecord{
		state:    StateUninitialized,
		severity: SeverityInfo,
	}
}

// ReconstructStateRecord creates a StateRecord from stored fields, bypassing
// creation invariants. This should only be used by repositories when loading
// from the DB.
func ReconstructStateRecord(state DeployState, percentage float64, message string, severity Severity) *StateRecord {
	return &StateRecord{
		state:      state,
		percentage: percentage,
		message:    message,
		severity:   severity,
	}
}

// State returns the current deploy state.
func (r *StateRecord) State() DeployState { return r.state }

// Percentage returns the completion fraction in [0, 1].
func (r *StateRecord) Percentage() float64 { return r.percentage }

// Message returns the free-text status description.
func (r *StateRecord) Message() string { return r.message }

// Severity returns the severity of the latest report.
func (r *StateRecord) Severity() Severity { return r.severity }

// Update normalizes the record after any field mutation. It is idempotent:
// calling it twice with no intervening mutation leaves the record unchanged.
//
// The rules, applied in order:
//  1. UNINITIALIZED/INITIALIZED records carry no progress: percentage, message
//     and severity are reset.
//  2. An INSTALLING record with an ERROR severity has failed; one that reached
//     100% has succeeded.
//  3. A SUCCESSFUL record always reads 100%.
func (r *StateRecord) Update() {
	if r.state == StateUninitialized || r.state == StateInitialized {
		r.percentage = 0.0
		r.severity = SeverityInfo
		r.message = ""
	}
	if r.state == StateInstalling {
		if r.severity == SeverityError {
			r.state = StateError
		} else if r.percentage >= 1.0 {
			r.state = StateSuccessful
			r.percentage = 1.0
		}
	}
	if r.state == StateSuccessful {
		r.percentage = 1.0
	}
}

// ForceState overwrites the deploy state and re-normalizes the record. It is
// used by cascades, which move dependent records to a prescribed state.
func (r *StateRecord) ForceState(state DeployState) {
	r.state = state
	r.Update()
}

// ApplyProgress applies an externally reported progress update. A report
// against an INITIALIZED record begins the install by moving it to INSTALLING;
// a report against an UNINITIALIZED record is rejected because the entity has
// no validated configuration to install from.
func (r *StateRecord) ApplyProgress(percentage float64, message string, severity Severity) error {
	if percentage < 0.0 || percentage > 1.0 {
		return fmt.Errorf("%w: percentage %v outside [0,1]", ErrInvalidParameter, percentage)
	}
	if !severity.IsKnown() {
		return fmt.Errorf("%w: severity %q", ErrInvalidParameter, severity)
	}
	if r.state == StateUninitialized {
		return fmt.Errorf("%w: progress reported for uninitialized entity", ErrInvalidState)
	}

	if r.state == StateInitialized {
		r.state = StateInstalling
	}
	r.percentage = percentage
	r.message = message
	r.severity = severity
	r.Update()
	return nil
}

// Snapshot returns a copy of the record for read paths, so callers cannot
// mutate the aggregate's state out from under it.
func (r *StateRecord) Snapshot() StateRecord { return *r }

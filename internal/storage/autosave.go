package storage

import "sync"

// AutosavePolicy decides when a design has accumulated enough history
// commits to be saved without the user asking.
type AutosavePolicy struct {
	mu           sync.Mutex
	threshold    int            // Save every N commits; 0 disables autosave
	commitsSince map[string]int // Commits per design since the last save
}

// NewAutosavePolicy creates a policy that triggers every threshold commits.
// A threshold of 0 or less never triggers.
func NewAutosavePolicy(threshold int) *AutosavePolicy {
	if threshold < 0 {
		threshold = 0
	}

	return &AutosavePolicy{
		threshold:    threshold,
		commitsSince: make(map[string]int),
	}
}

// RecordCommit records one history commit for a design.
// Returns true if the design should be saved now.
func (p *AutosavePolicy) RecordCommit(designID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.threshold == 0 {
		return false
	}

	p.commitsSince[designID]++

	return p.commitsSince[designID] >= p.threshold
}

// Reset clears the counter after a save.
func (p *AutosavePolicy) Reset(designID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.commitsSince, designID)
}

// CommitsSinceSave returns the number of commits since the last save.
func (p *AutosavePolicy) CommitsSinceSave(designID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.commitsSince[designID]
}

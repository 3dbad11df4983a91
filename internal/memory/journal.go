package memory

import "github.com/talgya/castaway/internal/agents"

// PromiseState is the tri-state outcome of a promise.
type PromiseState string

const (
	PromisePending PromiseState = "pending"
	PromiseKept    PromiseState = "kept"
	PromiseBroken  PromiseState = "broken"
)

// Promise is a commitment one agent made to another.
type Promise struct {
	ID    int            `json:"id"`
	To    agents.AgentID `json:"to"`
	Text  string         `json:"text"`
	Day   int            `json:"day"`
	State PromiseState   `json:"state"`
}

// Secret is something an agent knows and has not shared.
type Secret struct {
	Text  string           `json:"text"`
	Day   int              `json:"day"`
	About []agents.AgentID `json:"about,omitempty"`
}

// Provenance records where a voting plan came from.
type Provenance struct {
	Source string `json:"source"`
	Day    int    `json:"day"`
}

// VotingPlan is the single target an agent privately intends to vote for.
// An empty Target means no plan.
type VotingPlan struct {
	Target     agents.AgentID `json:"target,omitempty"`
	Provenance Provenance     `json:"provenance"`
}

// Journal is one agent's private strategic memory.
type Journal struct {
	Agent    agents.AgentID              `json:"agent"`
	Strategy string                      `json:"strategy"`
	Goals    []string                    `json:"goals"`
	Plan     VotingPlan                  `json:"plan"`
	Notes    map[agents.AgentID][]string `json:"notes"`
	Threat   map[agents.AgentID]float64  `json:"threat"`
	Bond     map[agents.AgentID]float64  `json:"bond"`
	Promises []Promise                   `json:"promises"`
	Secrets  []Secret                    `json:"secrets"`
	Events   []Event                     `json:"events"`
}

func newJournal(id agents.AgentID) *Journal {
	return &Journal{
		Agent:  id,
		Notes:  make(map[agents.AgentID][]string),
		Threat: make(map[agents.AgentID]float64),
		Bond:   make(map[agents.AgentID]float64),
	}
}

func (j *Journal) clone() Journal {
	c := *j
	c.Goals = append([]string(nil), j.Goals...)
	c.Promises = append([]Promise(nil), j.Promises...)
	c.Secrets = append([]Secret(nil), j.Secrets...)
	c.Events = append([]Event(nil), j.Events...)
	c.Notes = make(map[agents.AgentID][]string, len(j.Notes))
	for k, v := range j.Notes {
		c.Notes[k] = append([]string(nil), v...)
	}
	c.Threat = make(map[agents.AgentID]float64, len(j.Threat))
	for k, v := range j.Threat {
		c.Threat[k] = v
	}
	c.Bond = make(map[agents.AgentID]float64, len(j.Bond))
	for k, v := range j.Bond {
		c.Bond[k] = v
	}
	return c
}

// PendingPromises returns promises not yet resolved.
func (j Journal) PendingPromises() []Promise {
	var out []Promise
	for _, p := range j.Promises {
		if p.State == PromisePending {
			out = append(out, p)
		}
	}
	return out
}

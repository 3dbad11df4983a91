package autopilot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/talgya/castaway/internal/agents"
)

const (
	maxRecords    = 10
	promptRecords = 5
)

// CycleRecord captures one autopilot cycle.
type CycleRecord struct {
	Day       int            `json:"day"`
	Action    string         `json:"action"`
	Choice    string         `json:"choice,omitempty"`
	Target    agents.AgentID `json:"target,omitempty"`
	Danger    string         `json:"danger"`
	Rating    float64        `json:"rating"`
	Rationale string         `json:"rationale,omitempty"`
}

// CycleMemory is a ring of recent cycle records, optionally persisted to a
// JSON file.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`

	path string
}

// LoadMemory reads path. A missing or corrupt file yields empty memory; an
// empty path keeps memory in-process only.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("autopilot memory corrupted, starting fresh", "path", path, "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to its file.
func (m *CycleMemory) Save() error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal autopilot memory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write autopilot memory: %w", err)
	}
	return nil
}

// Record adds a cycle record, trimming to the newest maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// MendedOn reports whether target was already approached on day.
func (m *CycleMemory) MendedOn(day int, target agents.AgentID) bool {
	for _, r := range m.Records {
		if r.Day == day && r.Action == ActionMend && r.Target == target {
			return true
		}
	}
	return false
}

// FormatForPrompt summarizes the last few cycles.
func (m *CycleMemory) FormatForPrompt() string {
	if len(m.Records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent moves\n")
	start := max(0, len(m.Records)-promptRecords)
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "- Day %d: %s", r.Day, r.Action)
		if r.Choice != "" {
			fmt.Fprintf(&b, " (%s)", r.Choice)
		}
		if r.Target != "" {
			fmt.Fprintf(&b, " -> %s", r.Target)
		}
		fmt.Fprintf(&b, ", danger=%s, rating=%.2f\n", r.Danger, r.Rating)
	}
	return b.String()
}

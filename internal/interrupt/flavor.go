package interrupt

import (
	"fmt"
	"strings"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
)

var titles = map[Category][]string{
	Drama:          {"Blowup in the Kitchen", "Shouting Match at the Fire Pit", "Tempers Flare"},
	AllianceCrisis: {"Cracks in the Alliance", "Whispers of a Flip", "Alliance on the Brink"},
	CheckIn:        {"A Quiet Word", "Late Night Check-In", "Someone Wants to Talk"},
	Panic:          {"Scramble Before the Vote", "Pre-Vote Panic", "Nerves Before Elimination"},
	Production:     {"Producers Stir the Pot", "A Twist From Production", "The Cameras Want More"},
}

func describe(cat Category, involved []agents.AgentID, s State, flavor entropy.Source) (title, description, impact string) {
	title = entropy.Pick(flavor, titles[cat])
	names := make([]string, len(involved))
	for i, id := range involved {
		names[i] = nameOf(s, id)
	}
	who := joinNames(names)

	switch cat {
	case Drama:
		description = fmt.Sprintf("%s are at each other's throats and everyone is watching what you do.", who)
		impact = fmt.Sprintf("Engaging sides with %s; calming things down wins a little goodwill from both.", names[0])
	case AllianceCrisis:
		description = fmt.Sprintf("Trust is fraying between %s and the alliance could split.", who)
		impact = fmt.Sprintf("Engaging backs %s over the rest; calming it keeps everyone on side.", names[0])
	case CheckIn:
		description = fmt.Sprintf("%s pulls you aside and wants to know where your head is at.", who)
		impact = "Either answer helps; opening up helps more."
	case Panic:
		description = fmt.Sprintf("With the vote coming, %s %s scrambling for numbers.", who, verb(len(names)))
		impact = fmt.Sprintf("Engaging reassures %s at the others' expense; calming it settles everyone.", names[0])
	case Production:
		description = fmt.Sprintf("Production hands %s a loaded question about you on camera.", who)
		impact = "Whatever you do, a little suspicion sticks."
	}
	return title, description, impact
}

func nameOf(s State, id agents.AgentID) string {
	for _, a := range s.Agents {
		if a.ID == id {
			return a.Name
		}
	}
	return string(id)
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "Nobody"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func verb(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

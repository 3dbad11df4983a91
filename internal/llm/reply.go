package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/castaway/internal/entropy"
)

// Prompt bounds.
const (
	maxRecent      = 5
	maxRecentChars = 200
	maxMessageLen  = 600
	replyMaxTokens = 160
)

// Persona is who is speaking and how they currently feel about the player.
type Persona struct {
	Name      string
	Archetype string
	Traits    []string
	Strategy  string
	Trust     float64
	Suspicion float64
	Closeness float64
}

// ReplyRequest asks a contestant to answer the player.
type ReplyRequest struct {
	Persona  Persona
	Recent   []string // newest first
	Message  string
	Tone     string
	Category string
}

const replySystem = `You are a contestant on a reality elimination show, speaking to another contestant in the house. Stay in character. Answer in one to three short first-person sentences. Never mention being an AI, a simulation, or numbers.`

// BuildPrompt turns a reply request into a bounded completion request. At
// most five recent interactions of 200 characters each are included.
func BuildPrompt(r ReplyRequest) Request {
	var b strings.Builder
	p := r.Persona

	fmt.Fprintf(&b, "You are %s", p.Name)
	if p.Archetype != "" {
		fmt.Fprintf(&b, ", cast as the %s", p.Archetype)
	}
	b.WriteString(".\n")
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "Temperament: %s.\n", strings.Join(p.Traits, ", "))
	}
	if p.Strategy != "" {
		fmt.Fprintf(&b, "Your game plan: %s\n", p.Strategy)
	}
	fmt.Fprintf(&b, "Toward the player you feel %s.\n", stance(p))

	if len(r.Recent) > 0 {
		b.WriteString("\nWhat has happened between you lately:\n")
		for i, s := range r.Recent {
			if i >= maxRecent {
				break
			}
			fmt.Fprintf(&b, "- %s\n", clip(s, maxRecentChars))
		}
	}

	fmt.Fprintf(&b, "\nThe player (%s", orDefault(r.Category, "conversation"))
	if r.Tone != "" {
		fmt.Fprintf(&b, ", %s tone", r.Tone)
	}
	fmt.Fprintf(&b, ") says: %q\n\nReply as %s.", clip(r.Message, maxMessageLen), p.Name)

	return Request{System: replySystem, Prompt: b.String(), MaxTokens: replyMaxTokens}
}

// stance describes a persona's feelings toward the player in words.
func stance(p Persona) string {
	var parts []string
	switch {
	case p.Trust >= 40:
		parts = append(parts, "real trust")
	case p.Trust <= -40:
		parts = append(parts, "deep distrust")
	case p.Trust < 0:
		parts = append(parts, "some wariness")
	default:
		parts = append(parts, "cautious goodwill")
	}
	if p.Suspicion >= 60 {
		parts = append(parts, "strong suspicion of their motives")
	}
	if p.Closeness >= 40 {
		parts = append(parts, "genuine warmth")
	} else if p.Closeness <= -40 {
		parts = append(parts, "open coldness")
	}
	return strings.Join(parts, " and ")
}

// Reply asks gen for an in-character line. A nil generator, an error, or an
// empty answer falls back to a templated line; generated reports which.
func Reply(ctx context.Context, gen Generator, r ReplyRequest, flavor entropy.Source) (text string, generated bool) {
	if gen != nil {
		out, err := gen.Generate(ctx, BuildPrompt(r))
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out), true
		}
		if err != nil {
			slog.Warn("reply generation failed, using fallback", "speaker", r.Persona.Name, "error", err)
		}
	}
	return FallbackLine(r, flavor), false
}

var fallbackLines = map[string][]string{
	"warm": {
		"You know I've got you. Let's keep talking later.",
		"I like where your head's at. Stick with me.",
		"Honestly, you're one of the few people I trust in here.",
	},
	"cold": {
		"I hear you. I'm just not sure I believe you.",
		"Mm-hm. We'll see how that plays out.",
		"Funny, that's not what I heard.",
	},
	"hostile": {
		"Don't come at me like that. Everyone's watching.",
		"Wow. Okay. Noted.",
		"You really want to do this right now?",
	},
	"neutral": {
		"Yeah, I've been thinking the same thing.",
		"It's a long game. Let's see where the week goes.",
		"Hard to say. This house changes every hour.",
	},
}

// FallbackLine picks a templated reply that fits the speaker's stance and
// the player's tone. The variant comes from flavor; a nil flavor takes the
// first line.
func FallbackLine(r ReplyRequest, flavor entropy.Source) string {
	mood := "neutral"
	switch {
	case r.Tone == "aggressive":
		mood = "hostile"
	case r.Persona.Trust <= -20 || r.Persona.Suspicion >= 60:
		mood = "cold"
	case r.Persona.Trust >= 20:
		mood = "warm"
	}
	lines := fallbackLines[mood]
	if flavor == nil {
		return lines[0]
	}
	return entropy.Pick(flavor, lines)
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

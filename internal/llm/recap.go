// Episode recaps: a week of house events turned into narrator prose.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const recapMaxTokens = 900

// RecapData holds the raw material for one week's recap.
type RecapData struct {
	Week        int
	FromDay     int
	ToDay       int
	Remaining   int
	Highlights  []string
	Eliminated  []string
	Alliances   []string
	Leaders     []string // by social standing, strongest first
	RatingStart float64
	RatingEnd   float64
}

// Recap is a generated episode recap.
type Recap struct {
	GeneratedAt time.Time `json:"generated_at"`
	Week        int       `json:"week"`
	Content     string    `json:"content"`
	Generated   bool      `json:"generated"`
}

const recapSystem = `You are the narrator of a reality elimination show. Write a punchy "previously on" recap of the week for viewers: who schemed, who broke, who went home, and what to watch next week. Keep it under 350 words, present tense, no bullet points. Do not invent contestants or events that are not in the notes.`

// GenerateRecap writes the week's recap. Without a generator, or when the
// call fails, it returns a plain templated recap instead.
func GenerateRecap(ctx context.Context, gen Generator, data RecapData) *Recap {
	r := &Recap{GeneratedAt: time.Now(), Week: data.Week}
	if gen != nil {
		content, err := gen.Generate(ctx, Request{System: recapSystem, Prompt: buildRecapPrompt(data), MaxTokens: recapMaxTokens})
		if err == nil && strings.TrimSpace(content) != "" {
			r.Content = strings.TrimSpace(content)
			r.Generated = true
			return r
		}
		slog.Warn("recap generation failed, using fallback", "week", data.Week, "error", err)
	}
	r.Content = fallbackRecap(data)
	return r
}

func buildRecapPrompt(data RecapData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recap week %d (days %d-%d).\n", data.Week, data.FromDay, data.ToDay)
	fmt.Fprintf(&b, "Contestants still in the game: %d.\n", data.Remaining)
	fmt.Fprintf(&b, "Audience rating moved from %.1f to %.1f.\n\n", data.RatingStart, data.RatingEnd)

	if len(data.Eliminated) > 0 {
		fmt.Fprintf(&b, "VOTED OUT: %s\n\n", strings.Join(data.Eliminated, ", "))
	}

	if len(data.Highlights) > 0 {
		b.WriteString("KEY MOMENTS:\n")
		for i, h := range data.Highlights {
			if i >= 8 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", clip(h, maxRecentChars))
		}
		b.WriteString("\n")
	}

	if len(data.Alliances) > 0 {
		fmt.Fprintf(&b, "KNOWN ALLIANCES: %s\n\n", strings.Join(data.Alliances, ", "))
	}

	if len(data.Leaders) > 0 {
		b.WriteString("POWER RANKING:\n")
		for i, name := range data.Leaders {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
	}

	return b.String()
}

func fallbackRecap(data RecapData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PREVIOUSLY, ON CASTAWAY\n")
	fmt.Fprintf(&b, "The %s week in the house, days %d to %d.\n\n", humanize.Ordinal(data.Week), data.FromDay, data.ToDay)

	switch len(data.Eliminated) {
	case 0:
		b.WriteString("Nobody went home this week.\n")
	default:
		fmt.Fprintf(&b, "Voted out: %s.\n", strings.Join(data.Eliminated, ", "))
	}
	fmt.Fprintf(&b, "%s contestants remain.\n\n", humanize.Comma(int64(data.Remaining)))

	if len(data.Highlights) > 0 {
		b.WriteString("THE MOMENTS THAT MATTERED\n")
		for i, h := range data.Highlights {
			if i >= 5 {
				fmt.Fprintf(&b, "...and %d more.\n", len(data.Highlights)-5)
				break
			}
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	if len(data.Alliances) > 0 {
		fmt.Fprintf(&b, "Alliances on record: %s.\n", strings.Join(data.Alliances, ", "))
	}
	if len(data.Leaders) > 0 {
		fmt.Fprintf(&b, "Holding the most power: %s.\n", data.Leaders[0])
	}

	delta := data.RatingEnd - data.RatingStart
	direction := "held steady"
	switch {
	case delta > 0.05:
		direction = "climbed"
	case delta < -0.05:
		direction = "slipped"
	}
	fmt.Fprintf(&b, "Ratings %s to %s.\n", direction, humanize.FormatFloat("#.##", data.RatingEnd))

	return b.String()
}

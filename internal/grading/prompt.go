package grading

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
)

const systemPrompt = `You are a friendly teacher grading a school student's answer to a problem about AI and the UN Sustainable Development Goals.
Grade for understanding, not spelling or grammar. Be encouraging and specific.
Reply with a single JSON object and nothing else:
{"score": <integer 0-100>, "feedback": "<two or three sentences>", "strengths": ["..."], "improvements": ["..."]}`

func userPrompt(p curriculum.Problem, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grade: %d\n", p.Grade)
	if p.SDGGoal > 0 {
		fmt.Fprintf(&b, "SDG %d: %s\n", p.SDGGoal, p.SDGTitle)
	}
	fmt.Fprintf(&b, "Problem: %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	if p.Content != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Content)
	}
	fmt.Fprintf(&b, "\nStudent answer:\n%s\n", answer)
	return b.String()
}

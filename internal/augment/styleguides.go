package augment

// Per-game style guides consumed by the rewrite prompts.
var styleGuides = map[string]string{
	"roast_consensus": "Format: 'Who would [SPECIFIC VISUAL SCENARIO]?' Roast behavior, not people. Use vivid details. Avoid generic or appearance attacks.",
	"poison_pitch":    "Format: 'Would you rather [BAD OPTION A] or [BAD OPTION B]?' Both options equally terrible, specific and visceral.",
	"fill_in":         "Finish-the-sentence with a _____ blank at the punchline position. Setup creates expectation, blank allows surprise.",
	"red_flag":        "Format: 'They're [GREEN FLAG], but [RED FLAG].' Green flag genuinely tempting, red flag dealbreaker-absurd. Use 'but' as separator.",
	"hotseat":         "Personal question that trips up fakers but is obvious to real friends. Must end with '?'. Avoid yes/no questions.",
	"text_trap":       "Format: '[Sender] texts: \"[anxiety-inducing message]\"'. Create tension through the text itself.",
	"taboo":           "One common target word with 3 forbidden words that block the most obvious clues.",
	"title_fight":     "Format: 'Who would win: [ABSURD THING A] vs [ABSURD THING B]?' Both sides must be debatable.",
	"alibi":           "Three completely unrelated specific words to sneak into a story. Concrete nouns from different categories.",
	"scatter":         "Creative, absurd category. Format: 'Things that would [X]' or 'Reasons [Y]'. The category itself should be amusing.",
	"over_under":      "Format: 'Number of [REVEALING QUANTITY]'. Must be verifiable. The number should reveal personality.",
	"confess_cap":     "Format: 'I once [SPECIFIC BORDERLINE-BELIEVABLE CONFESSION]'. First person, believable but surprising.",
}

const defaultStyleGuide = "Punchy, social party-game tone. Keep one sentence, clear task, no extra fluff."

// StyleGuideFor returns the style guide for a game id, or the default when
// the game has none.
func StyleGuideFor(game string) string {
	if g, ok := styleGuides[game]; ok {
		return g
	}
	return defaultStyleGuide
}

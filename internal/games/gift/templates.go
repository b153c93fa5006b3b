package gift

import (
	"fmt"
	"math/rand"
)

// Line templates for the two conversation branches. Each picker takes the
// shared *rand.Rand so tests can pin the choice with a seeded source.

var revealTemplates = []string{
	"I got you something special... it's %s! I hope you like it!",
	"Surprise! I picked out %s just for you!",
	"Close your eyes... okay, open them! It's %s!",
}

// justificationTemplates reference the gift and the first keyword from the
// player's reaction; the keywordless variants cover a reaction with no usable
// content words.
var justificationTemplates = []string{
	"I'm so glad you said %[2]s! I chose %[1]s because it reminded me of you.",
	"You mentioned %[2]s, and that's exactly why %[1]s felt right for you.",
	"When you say %[2]s, I know %[1]s was the perfect pick!",
}

var justificationNoKeyword = []string{
	"I just had a feeling %s would make you smile.",
	"Honestly, %s picked itself. It was made for you.",
}

var askLines = []string{
	"Your turn! What gift would you like to give me?",
	"Now I'm curious. If you could give me any gift, what would it be?",
}

var surpriseTemplates = []string{
	"No way, %s? For me? You shouldn't have!",
	"Wow, %s! I did not see that coming!",
	"Oh my goodness, %s! That's so thoughtful!",
}

var surpriseNoKeyword = []string{
	"A mystery gift? How exciting!",
	"Ooh, you're keeping me guessing!",
}

var askWhyLines = []string{
	"Tell me, why did you pick that for me?",
	"I have to know. What made you choose it?",
}

var reflectionTemplates = []string{
	"That's so sweet. I love that you thought about %s!",
	"You thought of %s for me? That really means a lot.",
	"Knowing it's about %s makes it even more special. Thank you!",
}

var reflectionNoKeyword = []string{
	"That's such a kind reason. Thank you!",
	"You didn't need a reason, but I'm touched anyway!",
}

func revealLine(r *rand.Rand, g Gift) string {
	return fmt.Sprintf(pick(r, revealTemplates), g.Name)
}

func justificationLine(r *rand.Rand, g Gift, keyword string) string {
	if keyword == "" {
		return fmt.Sprintf(pick(r, justificationNoKeyword), g.Name)
	}
	return fmt.Sprintf(pick(r, justificationTemplates), g.Name, keyword)
}

func askLine(r *rand.Rand) string {
	return pick(r, askLines)
}

func surpriseLine(r *rand.Rand, keyword string) string {
	if keyword == "" {
		return pick(r, surpriseNoKeyword)
	}
	return fmt.Sprintf(pick(r, surpriseTemplates), keyword)
}

func askWhyLine(r *rand.Rand) string {
	return pick(r, askWhyLines)
}

func reflectionLine(r *rand.Rand, keyword string) string {
	if keyword == "" {
		return pick(r, reflectionNoKeyword)
	}
	return fmt.Sprintf(pick(r, reflectionTemplates), keyword)
}

func pick(r *rand.Rand, lines []string) string {
	return lines[r.Intn(len(lines))]
}

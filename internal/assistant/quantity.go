package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

const numberWords = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty`

var (
	halfDozenRe = regexp.MustCompile(`\bhalf\s+dozen\b`)
	dozenRe     = regexp.MustCompile(`\b(\d+|` + numberWords + `)?\s*dozen\b`)
	digitRe     = regexp.MustCompile(`\b(\d+)\b`)
	wordRe      = regexp.MustCompile(`\b(` + numberWords + `)\b`)
)

// ExtractQuantity scans natural-language input for a purchase quantity:
// "half dozen" (6), "<n> dozen" (n*12), bare "dozen" (12), digit sequences,
// then spelled-out numbers one through twenty. First match wins. ok is
// false when nothing matched; callers default to 1.
func ExtractQuantity(text string) (qty int, ok bool) {
	if text == "" {
		return 0, false
	}
	text = strings.ToLower(text)

	if halfDozenRe.MatchString(text) {
		return 6, true
	}

	if m := dozenRe.FindStringSubmatch(text); m != nil {
		multiplier := 1
		if m[1] != "" {
			if v, ok := wordNumbers[m[1]]; ok {
				multiplier = v
			} else {
				multiplier, _ = strconv.Atoi(m[1])
			}
		}
		return multiplier * 12, true
	}

	if m := digitRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return v, true
	}

	if m := wordRe.FindStringSubmatch(text); m != nil {
		return wordNumbers[m[1]], true
	}

	return 0, false
}

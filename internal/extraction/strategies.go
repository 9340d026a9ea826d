package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"idverify/internal/identity/models"
	"idverify/pkg/similarity"
)

// strategy proposes a value for one field from the line sequence, or "" when
// it has no confident candidate. found holds the fields resolved by earlier
// passes.
type strategy func(lines []string, found models.Record) string

var (
	singleUpperWord = regexp.MustCompile(`^[A-Z]+$`)
	upperWords      = regexp.MustCompile(`^[A-Z]+(?:\s[A-Z]+)*$`)

	maleWord   = regexp.MustCompile(`\bmale\b`)
	femaleWord = regexp.MustCompile(`\bfemale\b`)
	mLetter    = regexp.MustCompile(`\bm\b`)
	fLetter    = regexp.MustCompile(`\bf\b`)
)

// surnameLine takes the first line made of a single uppercase word.
func surnameLine(lines []string, _ models.Record) string {
	for _, line := range lines {
		if len(line) > 1 && singleUpperWord.MatchString(line) {
			return line
		}
	}
	return ""
}

// uppercaseNameLine takes the first word of the first all-caps line that is
// not the surname. Later words are middle names.
func uppercaseNameLine(lines []string, found models.Record) string {
	for _, line := range lines {
		if len(line) > 1 && upperWords.MatchString(line) && line != found.LastName {
			return firstWord(line)
		}
	}
	return ""
}

// labelledName looks up to two lines past a first-name label.
func (p Profile) labelledName(lines []string, _ models.Record) string {
	for i, line := range lines {
		if !p.hasLabel(models.FieldFirstName, line) {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+2; j++ {
			if len(lines[j]) > 1 && upperWords.MatchString(lines[j]) {
				return firstWord(lines[j])
			}
		}
	}
	return ""
}

// idNumber scans line by line; within a line the profile patterns are tried
// in priority order. The first line with any match wins.
func (p Profile) idNumber(lines []string, _ models.Record) string {
	for _, line := range lines {
		for _, pattern := range p.IDPatterns {
			if m := pattern.FindString(line); m != "" {
				return similarity.StripSeparators(m)
			}
		}
	}
	return ""
}

// labelledNationality checks a nationality label line, then the line after
// it, and finally the first capitalized word of that next line.
func (p Profile) labelledNationality(lines []string, _ models.Record) string {
	for i, line := range lines {
		if !p.hasLabel(models.FieldNationality, line) {
			continue
		}
		if v, ok := p.nationalityIn(line); ok {
			return v
		}
		if i+1 >= len(lines) {
			continue
		}
		if v, ok := p.nationalityIn(lines[i+1]); ok {
			return v
		}
		if v := p.capitalizedWord(lines[i+1]); v != "" {
			return v
		}
	}
	return ""
}

func (p Profile) capitalizedWord(line string) string {
	for _, word := range strings.Fields(line) {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(r) || utf8.RuneCountInString(word) <= 2 || p.isStopword(word) {
			continue
		}
		return word
	}
	return ""
}

// anyNationality is the blind scan over every line.
func (p Profile) anyNationality(lines []string, _ models.Record) string {
	for _, line := range lines {
		if v, ok := p.nationalityIn(line); ok {
			return v
		}
	}
	return ""
}

// labelledSex reads the marker from a sex label line or the line after it.
func (p Profile) labelledSex(lines []string, _ models.Record) string {
	for i, line := range lines {
		if !p.hasLabel(models.FieldSex, line) {
			continue
		}
		if sex, ok := sexOnLine(line); ok {
			return string(sex)
		}
		if i+1 < len(lines) {
			if sex, ok := sexOnLine(lines[i+1]); ok {
				return string(sex)
			}
		}
	}
	return ""
}

// sexOnLine checks "female" before "male" since one contains the other, then
// isolated m/f tokens.
func sexOnLine(line string) (models.Sex, bool) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "female"):
		return models.SexFemale, true
	case strings.Contains(lower, "male"):
		return models.SexMale, true
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '/'
	})
	hasToken := func(want string) bool {
		for _, t := range tokens {
			if t == want {
				return true
			}
		}
		return false
	}
	switch {
	case hasToken("m"):
		return models.SexMale, true
	case hasToken("f"):
		return models.SexFemale, true
	}
	return "", false
}

// anySexWord is the blind scan for standalone sex words on any line.
func anySexWord(lines []string, _ models.Record) string {
	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case femaleWord.MatchString(lower):
			return string(models.SexFemale)
		case maleWord.MatchString(lower):
			return string(models.SexMale)
		case mLetter.MatchString(lower) && !fLetter.MatchString(lower):
			return string(models.SexMale)
		case fLetter.MatchString(lower):
			return string(models.SexFemale)
		}
	}
	return ""
}

func firstWord(line string) string {
	if fields := strings.Fields(line); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

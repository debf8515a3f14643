package notify

import (
	"regexp"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is plain text plus the Telegram entities that style it.
type Message struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units, which is what
// Telegram entity offsets are measured in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

var (
	headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)$`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	codeRe   = regexp.MustCompile("`([^`]+?)`")
)

// ParseMarkdown strips **bold**, `code` and # header markers from text and
// returns the matching entities. Headers render as bold.
func ParseMarkdown(text string) Message {
	text = headerRe.ReplaceAllString(text, "**$1**")

	var entities []tgbotapi.MessageEntity
	text = extract(text, boldRe, "bold", &entities)
	text = extract(text, codeRe, "code", &entities)

	slices.SortStableFunc(entities, func(a, b tgbotapi.MessageEntity) int {
		return a.Offset - b.Offset
	})
	return Message{
		Text:     strings.TrimRight(text, " \n"),
		Entities: entities,
	}
}

func extract(text string, re *regexp.Regexp, kind string, entities *[]tgbotapi.MessageEntity) string {
	for {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			return text
		}
		inner := text[loc[2]:loc[3]]
		start := UTF16Len(text[:loc[0]])
		end := UTF16Len(text[:loc[1]])
		opening := UTF16Len(text[loc[0]:loc[2]])
		closing := UTF16Len(text[loc[3]:loc[1]])
		// Entities found earlier move left by the markers removed before them.
		for i := range *entities {
			e := &(*entities)[i]
			switch {
			case e.Offset >= end:
				e.Offset -= opening + closing
			case e.Offset > start:
				e.Offset -= opening
			}
		}
		*entities = append(*entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: start,
			Length: UTF16Len(inner),
		})
		text = text[:loc[0]] + inner + text[loc[1]:]
	}
}

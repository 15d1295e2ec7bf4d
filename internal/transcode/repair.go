package transcode

import (
	"errors"
	"regexp"
	"strings"
)

// repairPass is one named text rewrite in the repair chain.
type repairPass struct {
	name  string
	apply func(string) string
}

// Double-encoded forms of the predefined entities, collapsed one level.
var doubleEncodedEntities = strings.NewReplacer(
	"&amp;amp;", "&amp;",
	"&amp;lt;", "&lt;",
	"&amp;gt;", "&gt;",
	"&amp;quot;", "&quot;",
	"&amp;apos;", "&apos;",
)

var (
	nestedEntity = regexp.MustCompile(`&amp;(amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)
	entityRef    = regexp.MustCompile(`^(?:amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// collapsePasses run first and repeat until the text stops changing. Each
// rewrite shortens the text, so the loop ends within len(text) rounds.
var collapsePasses = []repairPass{
	{name: "double-encoded entities", apply: doubleEncodedEntities.Replace},
	{name: "nested entity encoding", apply: func(s string) string {
		return nestedEntity.ReplaceAllString(s, "&$1;")
	}},
}

// fallbackPasses run only when the collapsed text still does not parse.
var fallbackPasses = []repairPass{
	{name: "disallowed characters", apply: stripOutsideMarkupRange},
	{name: "stray ampersands", apply: escapeStrayAmpersands},
}

// fallbackAttempts bounds how many times the fallback passes are tried.
const fallbackAttempts = 1

// RepairReport describes a successful repair.
type RepairReport struct {
	Text string
	// Applied names the passes that changed the text, in order.
	Applied []string
}

// Repair cleans up corrupted markup text, typically text that was entity
// escaped more than once upstream, and returns text that parses.
// Repairing the output again returns it unchanged.
func Repair(text string) (string, error) {
	rep, err := RepairWithReport(text)
	if err != nil {
		return "", err
	}
	return rep.Text, nil
}

// RepairWithReport is Repair that also reports which passes fired.
func RepairWithReport(text string) (*RepairReport, error) {
	rep := &RepairReport{}
	cur := collapse(text, rep)

	_, err := ParseMarkup(cur)
	for attempt := 0; err != nil && attempt < fallbackAttempts; attempt++ {
		for _, p := range fallbackPasses {
			cur = runPass(p, cur, rep)
		}
		cur = collapse(cur, rep)
		_, err = ParseMarkup(cur)
	}
	if err != nil {
		var se *MarkupSyntaxError
		if !errors.As(err, &se) {
			se = &MarkupSyntaxError{Msg: err.Error(), Err: err}
		}
		return nil, &UnrepairableMarkupError{Last: se}
	}
	rep.Text = cur
	return rep, nil
}

func collapse(s string, rep *RepairReport) string {
	for {
		before := s
		for _, p := range collapsePasses {
			s = runPass(p, s, rep)
		}
		if s == before {
			return s
		}
	}
}

func runPass(p repairPass, s string, rep *RepairReport) string {
	out := p.apply(s)
	if out != s {
		if n := len(rep.Applied); n == 0 || rep.Applied[n-1] != p.name {
			rep.Applied = append(rep.Applied, p.name)
		}
	}
	return out
}

// stripOutsideMarkupRange keeps tab, newline, carriage return, printable
// ASCII and the Latin-1 supplement.
func stripOutsideMarkupRange(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0x7E:
			return r
		case r >= 0xA0 && r <= 0xFF:
			return r
		}
		return -1
	}, s)
}

// escapeStrayAmpersands escapes every '&' that does not start a predefined
// or numeric entity reference.
func escapeStrayAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !entityRef.MatchString(s[i+1:]) {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// MaxBodyLength is the maximum accepted comment/discussion body size.
const MaxBodyLength = 5000

var (
	ErrEmptyBody   = errors.New("body must not be empty")
	ErrBodyTooLong = fmt.Errorf("body exceeds %d characters", MaxBodyLength)
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Strikethrough,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
		// raw HTML passes through goldmark; bluemonday is the sanitizer
		htmlrenderer.WithUnsafe(),
	),
)

var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}()

// Validate rejects empty or over-length bodies before any store write.
func Validate(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return ErrEmptyBody
	}
	if len(body) > MaxBodyLength {
		return ErrBodyTooLong
	}
	return nil
}

// Render converts markdown to sanitized HTML. Script/iframe tags and
// inline event handlers never survive the policy.
func Render(source string) string {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(source), &buf); err != nil {
		return policy.Sanitize(source)
	}
	return string(policy.SanitizeBytes(buf.Bytes()))
}

// FormatMentions rewrites @Name tokens of known users into profile links
// so the rendered body carries stable anchors.
func FormatMentions(text string, users []MentionTarget) string {
	out := text
	for _, u := range users {
		if strings.TrimSpace(u.Name) == "" {
			continue
		}
		re := regexp.MustCompile(`@` + regexp.QuoteMeta(u.Name) + `\b`)
		out = re.ReplaceAllString(out, fmt.Sprintf("[@%s](#user-%s)", u.Name, u.ID))
	}
	return out
}

// MentionTarget is the minimal user shape FormatMentions needs.
type MentionTarget struct {
	ID   string
	Name string
}

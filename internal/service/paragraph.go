package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// Expander rewrites structured or short text into a paragraph suited for
// embedding. Activities and questions share it and differ only by template.
type Expander struct {
	gen     port.TextGenerator
	prompts port.PromptCatalog
}

// NewExpander creates an expander.
func NewExpander(gen port.TextGenerator, prompts port.PromptCatalog) *Expander {
	return &Expander{gen: gen, prompts: prompts}
}

// Expand completes input with the instructions of templateID. It never
// returns an empty paragraph without an error.
func (e *Expander) Expand(ctx context.Context, templateID, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", port.Invalid("input", "is empty")
	}
	instructions, err := e.prompts.Render(templateID, nil)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", templateID, err)
	}
	out, err := e.gen.Complete(ctx, instructions, input)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", templateID, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("expand %s: %w", templateID, port.ErrEmptyParagraph)
	}
	return out, nil
}

// Paragraph materializes one event of an activity as an embedding paragraph.
func (e *Expander) Paragraph(ctx context.Context, a domain.Activity, ev domain.Event) (string, error) {
	return e.Expand(ctx, port.TemplateActivityParagraph, Materialize(a, ev))
}

// Header is the line-oriented summary of an event kept in front of the stored
// paragraph. The fit analysis reads it back.
func Header(a domain.Activity, ev domain.Event) string {
	var b strings.Builder
	line(&b, "Name", a.Name)
	line(&b, "Description", a.Description)
	line(&b, "Position", a.Position)
	line(&b, "Event Role", ev.Name)
	line(&b, "Event Category", categories(a))
	return strings.TrimRight(b.String(), "\n")
}

// Materialize serializes the activity's descriptive fields and one event's
// STAR fields. The output depends only on its arguments.
func Materialize(a domain.Activity, ev domain.Event) string {
	var b strings.Builder
	b.WriteString(Header(a, ev))
	b.WriteString("\n")
	line(&b, "Period", period(ev.StartDate, ev.EndDate))
	b.WriteString("Event Data:\n")
	line(&b, "  Background", ev.Situation)
	line(&b, "  Task", ev.Task)
	line(&b, "  My Action", ev.Action)
	line(&b, "  Result", ev.Result)
	line(&b, "  Contribution", fmt.Sprintf("%d%%", ev.Contribution))
	return strings.TrimRight(b.String(), "\n")
}

// StoredContent is what gets saved next to an event's vector.
func StoredContent(a domain.Activity, ev domain.Event, paragraph string) string {
	return Header(a, ev) + "\n\n" + paragraph
}

func line(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	// Values are single-line so the header stays parseable.
	b.WriteString(strings.Join(strings.Fields(value), " "))
	b.WriteString("\n")
}

func categories(a domain.Activity) string {
	if len(a.Keywords) > 0 {
		return strings.Join(a.Keywords, ", ")
	}
	return a.Category
}

func period(start, end *domain.Date) string {
	switch {
	case start == nil && end == nil:
		return ""
	case end == nil:
		return start.String() + " ~"
	case start == nil:
		return "~ " + end.String()
	default:
		return start.String() + " ~ " + end.String()
	}
}

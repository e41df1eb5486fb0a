package cmds

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/grokker/pkg/events"
)

// markdownRenderer waits for the end of the exchange and renders the agent
// turn with glamour.
type markdownRenderer struct {
	w           io.Writer
	style       string
	attachments []string
	followUps   []string
}

var _ events.ChatEventHandler = (*markdownRenderer)(nil)

func newMarkdownRenderer(w io.Writer, style string) *markdownRenderer {
	return &markdownRenderer{w: w, style: style}
}

func (r *markdownRenderer) HandlePartialCompletion(ctx context.Context, e *events.EventPartialCompletion) error {
	return nil
}

func (r *markdownRenderer) HandleImageAttachment(ctx context.Context, e *events.EventImageAttachment) error {
	name := e.Attachment.FileName
	if name == "" {
		name = "image"
	}
	r.attachments = append(r.attachments, fmt.Sprintf("![%s](%s)", name, e.Attachment.URL))
	return nil
}

func (r *markdownRenderer) HandleFollowUps(ctx context.Context, e *events.EventFollowUps) error {
	r.followUps = e.Suggestions
	return nil
}

func (r *markdownRenderer) HandleFinal(ctx context.Context, e *events.EventFinal) error {
	md := e.Text + "\n"
	for _, a := range r.attachments {
		md += "\n" + a + "\n"
	}
	if len(r.followUps) > 0 {
		md += "\n---\n\n"
		for _, f := range r.followUps {
			md += "- " + f + "\n"
		}
	}

	out, err := glamour.Render(md, r.style)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(r.w, out)
	return err
}

func (r *markdownRenderer) HandleError(ctx context.Context, e *events.EventError) error {
	_, err := fmt.Fprintf(r.w, "error: %s\n", e.ErrorString)
	return err
}

func (r *markdownRenderer) HandleInterrupt(ctx context.Context, e *events.EventInterrupt) error {
	_, err := fmt.Fprintf(r.w, "%s\n[interrupted]\n", e.Text)
	return err
}

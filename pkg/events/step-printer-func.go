package events

import (
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"gopkg.in/yaml.v3"
)

// StepPrinterFunc returns a handler that prints the stream as it arrives:
// deltas inline, attachments and follow-ups as YAML once the text is done.
func StepPrinterFunc(name string, w io.Writer) func(msg *message.Message) error {
	isFirst := true
	lastText := ""

	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			return err
		}

		switch p_ := e.(type) {
		case *EventError:
			_, err = fmt.Fprintf(w, "\nerror: %s\n", p_.ErrorString)
			return err

		case *EventPartialCompletion:
			if isFirst && name != "" {
				isFirst = false
				_, err = fmt.Fprintf(w, "\n%s: \n", name)
				if err != nil {
					return err
				}
			}
			lastText = p_.Completion
			_, err = fmt.Fprintf(w, "%s", p_.Delta)
			if err != nil {
				return err
			}

		case *EventImageAttachment:
			v_, err := yaml.Marshal(map[string]interface{}{"attachment": p_.Attachment})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "\n%s", v_)
			if err != nil {
				return err
			}

		case *EventFollowUps:
			if len(p_.Suggestions) == 0 {
				break
			}
			v_, err := yaml.Marshal(map[string]interface{}{"follow_ups": p_.Suggestions})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "\n%s", v_)
			if err != nil {
				return err
			}

		case *EventFinal:
			if p_.Text != p_.StreamedText {
				_, err = fmt.Fprintf(w, "\n%s", p_.Text)
				if err != nil {
					return err
				}
				lastText = p_.Text
			}
			if !strings.HasSuffix(lastText, "\n") {
				_, err = fmt.Fprintf(w, "\n")
				if err != nil {
					return err
				}
			}

		case *EventInterrupt:
			_, err = fmt.Fprintf(w, "\n[interrupted]\n")
			if err != nil {
				return err
			}

		case *EventPartialCompletionStart, *EventUnrecognized:
		}

		return nil
	}
}

package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Sender is the author of a turn. The numeric values are the ones the
// add_response endpoint expects in the `sender` field; everywhere else a
// sender is written as its tag, in JSON and YAML alike.
type Sender int

const (
	SenderUser  Sender = 1
	SenderAgent Sender = 2
)

const (
	SenderTagUser  = "User"
	SenderTagAgent = "Agent"
)

func (s Sender) String() string {
	switch s {
	case SenderUser:
		return SenderTagUser
	case SenderAgent:
		return SenderTagAgent
	default:
		return fmt.Sprintf("Sender(%d)", int(s))
	}
}

// ParseSender maps a history sender tag. Only the exact tags are accepted.
func ParseSender(tag string) (Sender, error) {
	switch tag {
	case SenderTagUser:
		return SenderUser, nil
	case SenderTagAgent:
		return SenderAgent, nil
	default:
		return 0, &InvalidSenderTypeError{Index: -1, Tag: tag}
	}
}

func (s Sender) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}


func (s Sender) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either a tag or the numeric wire value.
func (s *Sender) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err == nil {
		parsed, err := ParseSender(tag)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "could not decode sender")
	}
	switch Sender(n) {
	case SenderUser, SenderAgent:
		*s = Sender(n)
		return nil
	default:
		return &InvalidSenderTypeError{Index: -1, Tag: string(b)}
	}
}

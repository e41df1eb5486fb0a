package conversation

import (
	"bytes"
	"encoding/json"
)

// Attachment references an uploaded or generated file without owning its bytes.
//
// The known fields are filled from whatever shape the API used. Raw keeps the
// original JSON so that descriptors we do not model survive a round trip to
// the server untouched.
type Attachment struct {
	FileName string
	MimeType string
	MediaID  string
	URL      string

	Raw json.RawMessage
}

type attachmentWire struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	MediaID  string `json:"mediaId"`
	URL      string `json:"url"`
}

type attachmentAliases struct {
	attachmentWire
	MediaIDStr string `json:"mediaIdStr"`
	ImageURL   string `json:"imageUrl"`
}

// IsUnknown reports an attachment that only carries an opaque raw payload.
func (a Attachment) IsUnknown() bool {
	return len(a.Raw) > 0 && a.FileName == "" && a.MimeType == "" && a.MediaID == "" && a.URL == ""
}

func (a Attachment) HasURL() bool {
	return a.URL != ""
}

func (a Attachment) Clone() Attachment {
	ret := a
	if a.Raw != nil {
		ret.Raw = append(json.RawMessage(nil), a.Raw...)
	}
	return ret
}

func (a Attachment) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return json.Marshal(attachmentWire{
		FileName: a.FileName,
		MimeType: a.MimeType,
		MediaID:  a.MediaID,
		URL:      a.URL,
	})
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	raw := append(json.RawMessage(nil), bytes.TrimSpace(data)...)

	var fields attachmentAliases
	if err := json.Unmarshal(raw, &fields); err != nil {
		// not an object, keep it opaque
		*a = Attachment{Raw: raw}
		return nil
	}

	*a = Attachment{
		FileName: fields.FileName,
		MimeType: fields.MimeType,
		MediaID:  firstNonEmpty(fields.MediaID, fields.MediaIDStr),
		URL:      firstNonEmpty(fields.URL, fields.ImageURL),
		Raw:      raw,
	}
	return nil
}

func (a Attachment) MarshalYAML() (interface{}, error) {
	if a.IsUnknown() {
		var v interface{}
		if err := json.Unmarshal(a.Raw, &v); err != nil {
			return string(a.Raw), nil
		}
		return v, nil
	}
	return map[string]string{
		"file_name": a.FileName,
		"mime_type": a.MimeType,
		"media_id":  a.MediaID,
		"url":       a.URL,
	}, nil
}

func cloneAttachments(in []Attachment) []Attachment {
	out := make([]Attachment, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

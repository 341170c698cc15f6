package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
)

// stringList accepts a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
		} else {
			*l = stringList{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("want string or list of strings: %w", err)
	}
	*l = list
	return nil
}

// flexBool accepts true/false or their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return fmt.Errorf("want boolean: %w", err)
	}
	*b = flexBool(v)
	return nil
}

type trafficRequest struct {
	EmailContent    string     `json:"emailContent"`
	SubjectLine     string     `json:"subjectLine"`
	SenderEmail     string     `json:"senderEmail"`
	SenderName      string     `json:"senderName"`
	AllRecipients   stringList `json:"allRecipients"`
	HasAttachments  flexBool   `json:"hasAttachments"`
	AttachmentNames stringList `json:"attachmentNames"`
	Source          string     `json:"source"`
}

func (r trafficRequest) message() routing.Message {
	return routing.Message{
		Content:         r.EmailContent,
		Subject:         r.SubjectLine,
		SenderAddress:   r.SenderEmail,
		SenderName:      r.SenderName,
		Recipients:      r.AllRecipients,
		HasAttachments:  bool(r.HasAttachments),
		AttachmentNames: r.AttachmentNames,
		SourceChannel:   r.Source,
	}
}

type triageRequest struct {
	EmailContent string `json:"emailContent"`
}

type updateRequest struct {
	JobNumber    string `json:"jobNumber"`
	EmailContent string `json:"emailContent"`
}

type workToClientRequest struct {
	JobNumber         string     `json:"jobNumber"`
	EmailContent      string     `json:"emailContent"`
	AttachmentNames   stringList `json:"attachmentNames"`
	ExternalRecipient string     `json:"externalRecipient"`
}

func (r workToClientRequest) dispatch() lifecycle.DispatchRequest {
	return lifecycle.DispatchRequest{
		JobNumber:         r.JobNumber,
		Content:           r.EmailContent,
		AttachmentNames:   r.AttachmentNames,
		ExternalRecipient: r.ExternalRecipient,
	}
}

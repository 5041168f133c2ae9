package dto

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/tidwall/gjson"
)

var ErrInvalidEvent = errors.New("invalid interview event")

// InterviewEventDTO is the JSON value published on resume-upload and
// feedback-request.
type InterviewEventDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func FromEnvelope(env model.Envelope) InterviewEventDTO {
	return InterviewEventDTO{
		ID:    env.InterviewID,
		Name:  env.Name,
		Email: env.Email,
		Role:  env.Role,
	}
}

// DecodeInterviewEvent parses a raw message value into an Envelope. Scalar
// values of any JSON type are accepted and stringified; all four fields
// must be present and non-empty.
func DecodeInterviewEvent(raw []byte) (model.Envelope, error) {
	if !utf8.Valid(raw) {
		return model.Envelope{}, fmt.Errorf("%w: value is not valid UTF-8", ErrInvalidEvent)
	}
	if !gjson.ValidBytes(raw) {
		return model.Envelope{}, fmt.Errorf("%w: value is not valid JSON", ErrInvalidEvent)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return model.Envelope{}, fmt.Errorf("%w: value is not a JSON object", ErrInvalidEvent)
	}

	keys := []string{"id", "name", "email", "role"}
	values := gjson.GetManyBytes(raw, keys...)

	fields := make([]string, len(keys))
	var missing []string
	for i, v := range values {
		if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
			missing = append(missing, keys[i])
			continue
		}
		s := v.String()
		if strings.TrimSpace(s) == "" {
			missing = append(missing, keys[i])
			continue
		}
		fields[i] = s
	}
	if len(missing) > 0 {
		return model.Envelope{}, fmt.Errorf("%w: missing %s", ErrInvalidEvent, strings.Join(missing, ", "))
	}

	return model.Envelope{
		InterviewID: fields[0],
		Name:        fields[1],
		Email:       fields[2],
		Role:        fields[3],
	}, nil
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const maxBodyBytes = 1 << 20

// field binds one JSON member to a typed destination. msg is reported when
// the member is present but cannot be decoded into dst.
type field struct {
	dst any
	msg string
}

// decodeFields reads a JSON object and decodes each known member into its
// destination. It returns a field→message map describing malformed input;
// an empty map means every present member decoded. Unknown members are
// ignored and absent members leave their destination untouched.
func decodeFields(r *http.Request, fields map[string]field) map[string]string {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return map[string]string{"body": "could not be read"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return map[string]string{"body": "must be a JSON object"}
	}

	problems := map[string]string{}
	for name, f := range fields {
		value, ok := raw[name]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil {
			problems[name] = f.msg
		}
	}
	return problems
}

// withValidation adds the field errors reported by validate to problems.
// A field that failed to decode keeps its decode message. A problem on the
// body itself is returned alone since no member could be read.
func withValidation(problems map[string]string, validate func() error) map[string]string {
	if _, unreadable := problems["body"]; unreadable {
		return problems
	}
	var invalid *domain.ValidationError
	if err := validate(); errors.As(err, &invalid) {
		for name, msg := range invalid.Fields {
			if _, seen := problems[name]; !seen {
				problems[name] = msg
			}
		}
	}
	return problems
}

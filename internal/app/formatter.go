package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/cwship/internal/domain"
)

// Format selects how a raw message becomes a record body.
type Format string

const (
	// FormatString stores the message as text with optional prefixes.
	FormatString Format = "string"

	// FormatJSON stores a pretty-printed JSON envelope around the message.
	FormatJSON Format = "json"
)

// ParseFormat returns the format named s, or FormatString when s is not a
// known format.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	default:
		return FormatString
	}
}

// Layouts for the timestamp annotation.
const (
	textTimestampLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"
	jsonTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// FormatterConfig configures a Formatter.
type FormatterConfig struct {
	Format        Format
	AddTimestamp  bool
	AddInstanceID bool
}

// Formatter converts raw messages into records.
type Formatter struct {
	cfg      FormatterConfig
	identity *Identity
	now      func() time.Time
}

// NewFormatter creates a formatter that reads the instance identity from id.
func NewFormatter(cfg FormatterConfig, id *Identity) *Formatter {
	if id == nil {
		id = NewIdentity()
	}
	return &Formatter{cfg: cfg, identity: id, now: time.Now}
}

// envelope is the JSON-mode record body. Field order is the output order.
type envelope struct {
	Timestamp  string `json:"timestamp,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
	Message    any    `json:"message"`
}

// Format builds the record for raw. It never fails: values that cannot be
// serialized fall back to their fmt representation.
func (f *Formatter) Format(raw any) domain.Record {
	now := f.now()

	var body string
	if f.cfg.Format == FormatJSON {
		body = f.formatJSON(now, raw)
	} else {
		body = f.formatString(now, raw)
	}
	return domain.NewRecord(now, body)
}

func (f *Formatter) formatString(now time.Time, raw any) string {
	var sb strings.Builder
	if f.cfg.AddTimestamp {
		sb.WriteString(now.Format(textTimestampLayout))
		sb.WriteByte(' ')
	}
	if f.cfg.AddInstanceID {
		sb.WriteString(f.identity.Get())
		sb.WriteByte(' ')
	}
	sb.WriteString(stringify(raw))
	return sb.String()
}

func (f *Formatter) formatJSON(now time.Time, raw any) string {
	env := envelope{Message: jsonValue(raw)}
	if f.cfg.AddTimestamp {
		env.Timestamp = now.UTC().Format(jsonTimestampLayout)
	}
	if f.cfg.AddInstanceID {
		env.InstanceID = f.identity.Get()
	}

	b, err := marshal(env, "  ")
	if err != nil {
		env.Message = fmt.Sprintf("%v", raw)
		if b, err = marshal(env, "  "); err != nil {
			return fmt.Sprintf("%v", raw)
		}
	}
	return string(b)
}

// stringify renders raw as message text. Structured values are JSON encoded.
func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	}
	b, err := marshal(raw, "")
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}

// jsonValue keeps structured values nested in the envelope and turns the
// types encoding/json would mangle into text.
func jsonValue(raw any) any {
	switch v := raw.(type) {
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case json.Marshaler:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return raw
}

// marshal encodes v without HTML escaping and without a trailing newline.
func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

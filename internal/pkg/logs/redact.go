package logs

import "github.com/sirupsen/logrus"

// Placeholder substituted for sensitive values before a record is emitted.
const Redacted = "[REDACTED]"

// sensitiveKeys are matched exactly, at any nesting depth.
var sensitiveKeys = map[string]struct{}{
	"botToken":      {},
	"appToken":      {},
	"token":         {},
	"password":      {},
	"secret":        {},
	"apiKey":        {},
	"api_key":       {},
	"authorization": {},
	"Authorization": {},
}

// IsSensitiveKey reports whether values under this key must never be logged.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[key]
	return ok
}

// Redact returns a deep copy of v with every value under a sensitive key
// replaced by the Redacted placeholder. Maps and slices are walked
// recursively; all other values pass through unchanged.
func Redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			if IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = val
		}
		return out
	case logrus.Fields:
		return Redact(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	default:
		return v
	}
}

// redactHook scrubs structured fields on every entry before formatting, so
// neither the text nor the JSON formatter can leak credentials.
type redactHook struct{}

func (redactHook) Levels() []logrus.Level { return logrus.AllLevels }

func (redactHook) Fire(entry *logrus.Entry) error {
	if len(entry.Data) == 0 {
		return nil
	}
	for k, v := range entry.Data {
		if IsSensitiveKey(k) {
			entry.Data[k] = Redacted
			continue
		}
		entry.Data[k] = Redact(v)
	}
	return nil
}

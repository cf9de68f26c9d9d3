package logs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRedactNestedMaps(t *testing.T) {
	in := map[string]any{
		"adapters": map[string]any{
			"telegram": map[string]any{
				"botToken": "123:abc",
				"enabled":  true,
			},
			"slack": map[string]any{
				"appToken": "xapp-1",
				"botToken": "xoxb-1",
			},
		},
		"headers": []any{
			map[string]any{"Authorization": "Bearer zzz"},
			map[string]any{"authorization": "bearer zzz"},
		},
		"agent": map[string]any{"model": "m1"},
	}

	got, ok := Redact(in).(map[string]any)
	if !ok {
		t.Fatalf("Redact returned %T, want map[string]any", Redact(in))
	}

	tg := got["adapters"].(map[string]any)["telegram"].(map[string]any)
	if tg["botToken"] != Redacted {
		t.Errorf("botToken = %v, want %s", tg["botToken"], Redacted)
	}
	if tg["enabled"] != true {
		t.Errorf("enabled was altered: %v", tg["enabled"])
	}

	sl := got["adapters"].(map[string]any)["slack"].(map[string]any)
	if sl["appToken"] != Redacted || sl["botToken"] != Redacted {
		t.Errorf("slack tokens not redacted: %v", sl)
	}

	for i, h := range got["headers"].([]any) {
		for k, v := range h.(map[string]any) {
			if v != Redacted {
				t.Errorf("headers[%d][%s] = %v, want %s", i, k, v, Redacted)
			}
		}
	}

	if got["agent"].(map[string]any)["model"] != "m1" {
		t.Errorf("non-sensitive value was altered")
	}

	// Original must be untouched.
	if in["adapters"].(map[string]any)["telegram"].(map[string]any)["botToken"] != "123:abc" {
		t.Errorf("Redact mutated its input")
	}
}

func TestRedactStringMap(t *testing.T) {
	in := map[string]string{"token": "t", "user": "u"}
	got := Redact(in).(map[string]string)
	if got["token"] != Redacted {
		t.Errorf("token = %q, want %s", got["token"], Redacted)
	}
	if got["user"] != "u" {
		t.Errorf("user = %q, want u", got["user"])
	}
}

func TestRedactHookScrubsEntries(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.AddHook(redactHook{})

	log.WithFields(logrus.Fields{
		"password": "hunter2",
		"config":   map[string]any{"apiKey": "k-123", "depth": map[string]any{"secret": "s"}},
		"plain":    "keep",
	}).Info("configured")

	out := buf.String()
	for _, leak := range []string{"hunter2", "k-123", `"s"`} {
		if strings.Contains(out, leak) {
			t.Errorf("log output leaked %q: %s", leak, out)
		}
	}
	if !strings.Contains(out, "keep") {
		t.Errorf("non-sensitive field dropped: %s", out)
	}
	if !strings.Contains(out, Redacted) {
		t.Errorf("placeholder missing from output: %s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	in := []byte("\x1b[32mINFO\x1b[0m hello")
	if got := string(stripANSI(in)); got != "INFO hello" {
		t.Errorf("stripANSI = %q", got)
	}
}

package respond

import (
	"regexp"
)

// Patterns are applied in order, most specific first.
var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`), "AIza****"},
	{regexp.MustCompile(`([?&]key=)[^&\s"]+`), "${1}****"},
	{regexp.MustCompile(`(hooks\.slack\.com/services/)[^\s"]+`), "${1}****"},
	{regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks/)[^\s"]+`), "${1}****"},
	{regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`), "://$1:****@"},
}

// SanitizeError returns err's message with API keys, webhook tokens and
// URL credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, p := range secretPatterns {
		msg = p.re.ReplaceAllString(msg, p.repl)
	}
	return msg
}

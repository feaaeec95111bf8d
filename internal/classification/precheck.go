package classification

import "strings"

// smallTalk lists user messages that never carry a widget intent.
var smallTalk = map[string]bool{
	"ok": true, "okay": true, "oke": true, "ừ": true, "ừm": true, "vâng": true, "dạ": true,
	"cảm ơn": true, "cám ơn": true, "cảm ơn bạn": true, "cảm ơn nhiều": true,
	"thanks": true, "thank you": true, "thx": true,
	"hi": true, "hello": true, "hey": true, "chào": true, "xin chào": true, "chào bạn": true,
	"bye": true, "tạm biệt": true,
}

// PreCheck is the cheap gate run before classification. It rejects empty turns
// and user messages that are only greetings or acknowledgements.
func PreCheck(userMessage, assistantReply string) bool {
	user := strings.TrimSpace(userMessage)
	if user == "" && strings.TrimSpace(assistantReply) == "" {
		return false
	}
	normalized := strings.ToLower(strings.Trim(user, " \t\r\n.!?~,"))
	return !smallTalk[normalized]
}

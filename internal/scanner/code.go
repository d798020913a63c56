package scanner

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

// ErrInvalidCode 内容中没有可用的款号
var ErrInvalidCode = errors.New("invalid scan code")

// ParseCode 从二维码内容或手动输入中解析款号。支持：
//   - 带 estilo 参数的链接，如 https://tienda/modelo?estilo=3390
//   - "MOD. 3390"
//   - 带分类前缀的 "CASUAL-3390"
//   - 纯款号 "3390"
func ParseCode(payload string) (string, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return "", ErrInvalidCode
	}

	if strings.Contains(s, "://") || strings.Contains(s, "?") {
		if style, ok := styleFromURL(s); ok {
			return style, nil
		}
		return "", ErrInvalidCode
	}

	upper := strings.ToUpper(s)
	for _, prefix := range []string{"MOD.", "MOD "} {
		if strings.HasPrefix(upper, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	if i := strings.LastIndex(s, "-"); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return "", ErrInvalidCode
	}
	return strings.ToUpper(s), nil
}

func styleFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	style := strings.TrimSpace(u.Query().Get("estilo"))
	if style == "" {
		return "", false
	}
	return strings.ToUpper(style), true
}

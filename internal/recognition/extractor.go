package recognition

import (
	"regexp"
	"strings"
)

// UnknownName is returned by ExtractName for empty input.
const UnknownName = "未知云"

// cloudTokenRe captures runs of cloud-family ideographs, preferring a
// run that already carries the 云 suffix.
var cloudTokenRe = regexp.MustCompile(`([积层卷雨高荚状悬球滚轴马蹄涡贝母夜光虹彩航迹雾幡洞开尔文亥姆霍兹波]+云|[积层卷雨高荚状悬球滚轴]+)`)

// ExtractName picks the most specific cloud name mentioned in one
// free-text field. knownNames must be sorted by descending length so
// that a compound name wins over any of its substrings.
func ExtractName(text string, knownNames []string) string {
	if text == "" {
		return UnknownName
	}

	for _, name := range knownNames {
		if strings.Contains(text, name) {
			return name
		}
	}

	if m := cloudTokenRe.FindString(text); m != "" {
		if !strings.HasSuffix(m, "云") {
			m += "云"
		}
		return m
	}

	// Last resort: whatever precedes the first parenthesis, capped at
	// six characters.
	head := text
	if i := strings.IndexAny(text, "（("); i >= 0 {
		head = text[:i]
	}
	r := []rune(strings.TrimSpace(head))
	if len(r) > 6 {
		r = r[:6]
	}
	if out := string(r); out != "" {
		return out
	}
	return "云"
}

package share

import (
	"strconv"
	"strings"

	"github.com/hitoshi/mpfit/internal/model"
)

const (
	// partLen は所有者名・Day名から取る文字数。
	partLen = 3
	// padChar は文字数が足りない場合の埋め文字。
	padChar = 'X'
	// fallbackOwner は所有者名もメールアドレスもない場合に使う。
	fallbackOwner = "USR"
)

// GenerateCode は共有コードを生成する。
//
// 形式は OWN<dayID>-DAY<digit> で、OWNは所有者の表示名、DAYはDay名
// （空ならDayのID）のそれぞれ先頭3文字の英数字を大文字にしたもの。
// 3文字に満たない場合はXで埋める。digitは1から9の数字。
// 例: 所有者"John"、ID 12のDay"Segunda"、digit 7 → "JOH12-SEG7"
func GenerateCode(day *model.Day, ownerDisplayName string, digit int) string {
	owner := fallbackOwner
	if strings.TrimSpace(ownerDisplayName) != "" {
		owner = ownerDisplayName
	}
	dayID := strconv.FormatInt(day.ID, 10)
	dayLabel := day.Name
	if strings.TrimSpace(dayLabel) == "" {
		dayLabel = dayID
	}

	var b strings.Builder
	b.WriteString(cleanPart(owner))
	b.WriteString(dayID)
	b.WriteByte('-')
	b.WriteString(cleanPart(dayLabel))
	b.WriteString(strconv.Itoa(clampDigit(digit)))
	return b.String()
}

// cleanPart は大文字化した英数字の先頭partLen文字を返す。
func cleanPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if b.Len() == partLen {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	for b.Len() < partLen {
		b.WriteByte(padChar)
	}
	return b.String()
}

func clampDigit(d int) int {
	if d < 1 {
		return 1
	}
	if d > 9 {
		return 9
	}
	return d
}

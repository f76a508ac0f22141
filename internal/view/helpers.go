package view

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// StoryStatusOptions はステータス選択フォームのoption要素。
// 編集フォームではSelectヘルパーで現在値にselected属性を付与する。
const StoryStatusOptions template.HTML = `<option value="public">Public</option><option value="private">Private</option>`

// tagPattern は山括弧で囲まれたマークアップを非貪欲にマッチする。
// (?s)により改行をまたぐタグにもマッチする。
var tagPattern = regexp.MustCompile(`(?s)<.*?>`)

// FormatDate はタイムスタンプをGoの参照時刻レイアウトで整形する。
func FormatDate(t time.Time, layout string) string {
	return t.Format(layout)
}

// Truncate は文字列を最大バイト長以内に切り詰める。
// 最大長以内の場合はそのまま返す。超える場合は最大長以前の最後の
// 空白位置で切り、省略記号を付与する。空白が存在しない場合は
// 最大長で強制的に切る。マルチバイト文字の途中では切らない。
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	// 切断位置がルーン境界になるまで戻す
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}

	cut := s[:max]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// StripTags は入力からHTMLタグを全て除去する。
// 冪等: 2回適用しても1回適用と同じ結果になる。
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// EditIcon はストーリー所有者と閲覧者が一致する場合のみ編集リンクの
// マークアップを返す。一致しない場合は空文字列を返す。
// IDは正規化済み文字列同士で比較する。
// floatingは公開一覧のカード用フローティングボタン、falseはインライン表示。
func EditIcon(ownerID, viewerID, storyID string, floating bool) template.HTML {
	if ownerID == "" || ownerID != viewerID {
		return ""
	}

	if floating {
		return template.HTML(fmt.Sprintf(
			`<a href="/stories/edit/%s" class="btn-floating halfway-fab blue"><i class="fas fa-edit fa-small"></i></a>`,
			storyID,
		))
	}
	return template.HTML(fmt.Sprintf(
		`<a href="/stories/edit/%s"><i class="fas fa-edit"></i></a>`,
		storyID,
	))
}

// Select はoption要素のマークアップに対し、値がselectedと一致する
// optionにselected属性を付与して返す。
func Select(selected string, options template.HTML) template.HTML {
	s := string(options)

	valuePattern := regexp.MustCompile(` value="` + regexp.QuoteMeta(selected) + `"`)
	s = valuePattern.ReplaceAllString(s, `$0 selected="selected"`)

	textPattern := regexp.MustCompile(`>` + regexp.QuoteMeta(selected) + `</option>`)
	s = textPattern.ReplaceAllString(s, ` selected="selected"$0`)

	return template.HTML(s)
}

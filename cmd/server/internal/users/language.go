package users

import "golang.org/x/text/language"

// supportedLanguages 系统界面语言，首项为默认
var supportedLanguages = []language.Tag{
	language.English,
	language.Thai,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// MatchLanguage 从 Accept-Language 头协商新账号的初始语言偏好
func MatchLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return "en"
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return "en"
	}
	_, idx, _ := languageMatcher.Match(tags...)
	if idx == 1 {
		return "th"
	}
	return "en"
}

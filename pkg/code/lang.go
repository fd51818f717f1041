package code

import (
	"errors"
	"sync/atomic"
)

const (
	LangEN   = "en"
	LangZhCN = "zh_cn"

	FALLBACK_LNG = LangEN
)

// lang 存储一条消息的英文与中文文本
type lang struct {
	en    string
	zh_cn string
}

// current language, read on every response; package level codes call GetMessage
// while being initialised, so the value is set at declaration
var lng = func() (v atomic.Value) {
	v.Store(FALLBACK_LNG)
	return
}()

// GetMessage returns the text for the current language, English when it is missing.
// GetMessage 根据当前语言返回消息，缺失时回退到英文
func (l lang) GetMessage() string {
	if GetGlobalDefaultLang() == LangZhCN && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// GetSupportedLanguages 支持的语言
func GetSupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// SetGlobalDefaultLang switches the message language; unknown values select English.
// 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	switch language {
	case LangEN, LangZhCN:
		lng.Store(language)
		return nil
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global default language
func GetGlobalDefaultLang() string {
	if l, ok := lng.Load().(string); ok {
		return l
	}
	return FALLBACK_LNG
}

package middleware

import (
	"strings"

	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// LangWithDefault 根据 ?lang= 或 lang 请求头切换提示语言，未指定时使用 def
func LangWithDefault(def string) gin.HandlerFunc {
	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		}

		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))
		switch lang {
		case "":
			lang = def
		case "zh":
			lang = "zh_cn"
		}

		_ = code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}

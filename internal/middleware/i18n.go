// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
)

func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = "en"
	}

	supported := make(map[string]bool)
	for _, lang := range i18n.GetSupportedLanguages() {
		supported[lang] = true
	}

	return func(c *gin.Context) {
		lang := defaultLang

		// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"; only the first tag counts
		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			switch first {
			case "zh-TW", "zh-Hant", "zh_TW", "zh-HK", "zh":
				lang = "zh_TW"
			case "en", "en-US", "en-GB":
				lang = "en"
			default:
				if supported[first] {
					lang = first
				}
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}

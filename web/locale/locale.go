package locale

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/quillpress/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const (
	// ContextKey holds the request language in the gin context.
	ContextKey = "lang"
	CookieName = "lang"
)

var DefaultLanguage = language.MustParse("en-US")

var (
	i18nBundle *i18n.Bundle
	localizers sync.Map // lang -> *i18n.Localizer
)

// InitLocalizer parses every translation file under the "translation"
// directory of i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}

	i18nBundle = bundle
	localizers.Clear()
	return nil
}

// Languages lists the loaded translations.
func Languages() []string {
	if i18nBundle == nil {
		return nil
	}
	tags := i18nBundle.LanguageTags()
	langs := make([]string, len(tags))
	for i, tag := range tags {
		langs[i] = tag.String()
	}
	return langs
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	var sep string = "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}

	return templateData
}

func localizer(lang string) *i18n.Localizer {
	if l, ok := localizers.Load(lang); ok {
		return l.(*i18n.Localizer)
	}
	l := i18n.NewLocalizer(i18nBundle, lang)
	localizers.Store(lang, l)
	return l
}

// I18n translates key for lang, which may be a tag or an Accept-Language
// value. Params have the form "name==value".
func I18n(lang string, key string, params ...string) string {
	if i18nBundle == nil {
		return key
	}

	msg, err := localizer(lang).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Errorf("Failed to localize message: %v", err)
		return key
	}
	return msg
}

// LocalizerMiddleware picks the request language from the lang cookie or the
// Accept-Language header.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie(CookieName); err == nil && cookie.Value != "" {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}
		if lang == "" {
			lang = DefaultLanguage.String()
		}

		c.Set(ContextKey, lang)
		c.Next()
	}
}

// FromContext translates key using the language chosen by LocalizerMiddleware.
func FromContext(c *gin.Context, key string, params ...string) string {
	return I18n(c.GetString(ContextKey), key, params...)
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}

			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}

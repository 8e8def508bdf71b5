package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLocales(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, []string{"en", "es"}, GetSupportedLanguages())
	assert.Equal(t, "Book uploaded successfully", T("en", KeyBookCreated))
	assert.Equal(t, "Libro subido correctamente", T("es", KeyBookCreated))
	assert.Equal(t, "A book can have at most 3 images", T("en", KeyImageLimit, 3))
	assert.True(t, IsSupported("es"))
	assert.False(t, IsSupported("fr"))
}

func TestT_Fallbacks(t *testing.T) {
	i := &I18n{translations: map[string]map[string]string{}, defaultLang: "en"}
	fsys := fstest.MapFS{
		"loc/en.json": {Data: []byte(`{"greeting": "Hello", "only_en": "English only"}`)},
		"loc/es.json": {Data: []byte(`{"greeting": "Hola"}`)},
		"loc/README":  {Data: []byte("ignored")},
	}
	require.NoError(t, i.LoadTranslations(fsys, "loc"))

	assert.Equal(t, "Hola", i.T("es", "greeting"))
	assert.Equal(t, "English only", i.T("es", "only_en"))
	assert.Equal(t, "Hello", i.T("fr", "greeting"))
	assert.Equal(t, "missing.key", i.T("en", "missing.key"))
}

func TestLoadTranslations_InvalidJSON(t *testing.T) {
	i := &I18n{translations: map[string]map[string]string{}, defaultLang: "en"}
	fsys := fstest.MapFS{"loc/en.json": {Data: []byte(`{`)}}
	assert.Error(t, i.LoadTranslations(fsys, "loc"))
}

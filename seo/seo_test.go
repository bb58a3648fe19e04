package seo

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/diaryengine/cms"
)

func TestFromDiaryDefaults(t *testing.T) {
	m := FromDiary(cms.DiaryContent{ID: 5, CreatedDT: "2024-05-01T10:00:00Z"}, "https://diary.example/diary/5/", Site{})

	assert.Equal(t, "Wisata Diary", m.Title)
	assert.Equal(t, "id-id", m.Language)
	assert.Equal(t, TypeArticle, m.Type)
	assert.Equal(t, "Wisata Diary", m.Author)
	assert.Empty(t, m.Image)
	assert.Equal(t, "2024-05-01T10:00:00Z", m.PublishedTime)
	assert.Equal(t, "https://diary.example/diary/5/", m.URL)
}

func TestFromDiaryUsesMeta(t *testing.T) {
	author := "Rina"
	d := cms.DiaryContent{
		CreatedBy: &author,
		Meta: cms.DiaryMeta{
			Type:        "website",
			Title:       "Lombok",
			Language:    "en-us",
			Description: "Beaches",
			Image:       "https://cdn.wisata.app/diary/lombok.jpg",
		},
	}
	m := FromDiary(d, "", Site{})

	assert.Equal(t, "Lombok", m.Title)
	assert.Equal(t, "Beaches", m.Description)
	assert.Equal(t, "Rina", m.Author)
	assert.Equal(t, "website", m.Type)
	assert.Equal(t, "https://cdn.wisata.app/diary/lombok_lg.jpg", m.Image)
}

func TestLangAndLocale(t *testing.T) {
	tests := []struct {
		lang, html, locale string
	}{
		{"id-id", "id-ID", "id_ID"},
		{"en-us", "en-US", "en_US"},
		{"", "id-ID", "id_ID"},
		{"not a language", "not a language", "not a language"},
	}
	for _, tt := range tests {
		m := PageMeta{Language: tt.lang}
		assert.Equal(t, tt.html, Lang(m), "lang %q", tt.lang)
		assert.Equal(t, tt.locale, Locale(m), "locale %q", tt.lang)
	}
}

func TestStructuredDataArticle(t *testing.T) {
	m := PageMeta{Title: "Bali", Type: TypeArticle, URL: "https://x/diary/1/", PublishedTime: "2024-01-01"}
	data := StructuredData(m)

	assert.Equal(t, "Article", data["@type"])
	assert.Equal(t, "Bali", data["headline"])
	assert.Equal(t, "2024-01-01", data["datePublished"])
	assert.NotContains(t, data, "image")
	assert.NotContains(t, data, "description")

	publisher := data["publisher"].(map[string]any)
	assert.Equal(t, "Wisata Diary", publisher["name"])
	assert.Equal(t, DefaultLogo, publisher["logo"].(map[string]string)["url"])
	assert.Equal(t, "Wisata Diary", data["author"].(map[string]string)["name"])
}

func TestStructuredDataWebPage(t *testing.T) {
	data := StructuredData(PageMeta{Type: TypeWebsite})
	assert.Equal(t, "WebPage", data["@type"])
}

func TestJSONLDIsValidJSON(t *testing.T) {
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(JSONLD(PageMeta{Title: `</script><b>`})), &out))
	assert.Equal(t, "</script><b>", out["headline"])
	assert.NotContains(t, JSONLD(PageMeta{Title: `</script>`}), "</script>")
}

func TestHead(t *testing.T) {
	m := FromDiary(cms.DiaryContent{
		CreatedDT: "2024-05-01T10:00:00Z",
		Meta: cms.DiaryMeta{
			Title:       `Bali "trip"`,
			Description: "Sunsets",
			Image:       "https://pbs.twimg.com/media/abc?format=jpg",
		},
	}, "https://diary.example/diary/9/", Site{})

	var buf bytes.Buffer
	require.NoError(t, Head(m).Render(context.Background(), &buf))
	out := buf.String()

	for _, want := range []string{
		`<title>Bali &#34;trip&#34;</title>`,
		`<meta name="description" content="Sunsets">`,
		`<meta property="og:type" content="article">`,
		`<meta property="og:locale" content="id_ID">`,
		`<meta property="article:published_time" content="2024-05-01T10:00:00Z">`,
		`<meta name="twitter:card" content="summary_large_image">`,
		`<meta name="twitter:site" content="@wisata_app">`,
		`<meta name="twitter:creator" content="@wisata_app">`,
		`<link rel="canonical" href="https://diary.example/diary/9/">`,
		`name=medium`,
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "application/ld+json"))
	assert.NotContains(t, out, "robots")
}

func TestHeadWebsiteOmitsArticleTime(t *testing.T) {
	m := ForSite(Site{Name: "Diary", Description: "Stories"}, "https://diary.example/")
	m.PublishedTime = "2024-01-01"

	var buf bytes.Buffer
	require.NoError(t, Head(m).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "article:published_time")
	assert.Contains(t, buf.String(), `<meta name="twitter:card" content="summary">`)
}

func TestPublishedAt(t *testing.T) {
	for _, raw := range []string{"2024-05-01T10:00:00Z", "2024-05-01T10:00:00", "2024-05-01 10:00:00", "2024-05-01"} {
		ts, ok := PublishedAt(raw)
		require.True(t, ok, raw)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, 1, ts.Day())
	}
	_, ok := PublishedAt("yesterday")
	assert.False(t, ok)
}

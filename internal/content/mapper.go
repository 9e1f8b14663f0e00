package content

import (
	"encoding/json"

	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/models"
)

// Upstream column names of the Keywords table. The store schema mixes
// English and Japanese labels; this block is the only place that knows.
const (
	fieldStatus          = "status"
	fieldSlug            = "slug"
	fieldKeyword         = "keyword"
	fieldTags            = "tag"
	fieldReading         = "ひらがな"
	fieldSymbolism       = "象徴"
	fieldCategory        = "カテゴリ"
	fieldKanaIndex       = "kana_index"
	fieldDescription     = "description"
	fieldArticle         = "article"
	fieldMetaTitle       = "metaTitle"
	fieldMetaDescription = "metaDescription"
	fieldSituationsJSON  = "situationsJson"
	fieldRelatedKeywords = "relatedKeywords"
)

// fromRecord maps one raw store record to a Content. Category holds raw
// record IDs until the category resolver rewrites them. The title falls
// back to a legacy "title" column for rows predating the keyword-first
// schema.
func fromRecord(r airtable.Record) *models.Content {
	reading := r.Str(fieldReading)
	title := r.Str(fieldKeyword)
	if title == "" {
		title = r.Str("title")
	}
	return &models.Content{
		ID:              r.ID,
		Slug:            r.Str(fieldSlug),
		Title:           title,
		Keywords:        r.Str(fieldKeyword),
		Tags:            r.StrList(fieldTags),
		Category:        r.StrList(fieldCategory),
		Reading:         reading,
		Initial:         firstRune(reading),
		KanaIndex:       r.Str(fieldKanaIndex),
		Status:          r.Str(fieldStatus),
		Description:     r.Str(fieldDescription),
		Symbolism:       r.Str(fieldSymbolism),
		Article:         r.Str(fieldArticle),
		MetaTitle:       r.Str(fieldMetaTitle),
		MetaDescription: r.Str(fieldMetaDescription),
		Situations:      parseSituations(r.Str(fieldSituationsJSON)),
		RelatedKeywords: r.StrList(fieldRelatedKeywords),
	}
}

// parseSituations decodes the serialized sub-entry list. The column is
// hand-edited upstream, so malformed JSON means no situations, never an
// error.
func parseSituations(raw string) []models.Situation {
	if raw == "" {
		return nil
	}
	var out []models.Situation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

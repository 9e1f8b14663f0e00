// Package fixtures provides the built-in fallback dataset served when
// the external record store is unreachable or not configured. The
// dataset is embedded at build time and can be overridden by a YAML
// file on disk.
package fixtures

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yumetolab/yumeji/internal/models"
)

//go:embed data.yaml
var embedded []byte

type contentDoc struct {
	ID          string             `yaml:"id"`
	Slug        string             `yaml:"slug"`
	Title       string             `yaml:"title"`
	Keywords    string             `yaml:"keywords"`
	Tags        []string           `yaml:"tags"`
	Category    []string           `yaml:"category"`
	Reading     string             `yaml:"reading"`
	KanaIndex   string             `yaml:"kana_index"`
	Status      string             `yaml:"status"`
	Description string             `yaml:"description"`
	Symbolism   string             `yaml:"symbolism"`
	Article     string             `yaml:"article"`
	Situations  []models.Situation `yaml:"situations"`
}

type guideDoc struct {
	ID            string `yaml:"id"`
	Slug          string `yaml:"slug"`
	Title         string `yaml:"title"`
	FullTitle     string `yaml:"full_title"`
	Description   string `yaml:"description"`
	Content       string `yaml:"content"`
	Image         string `yaml:"image"`
	Category      string `yaml:"category"`
	PublishedDate string `yaml:"published_date"`
	Status        string `yaml:"status"`
}

type categoryDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type document struct {
	Contents   []contentDoc  `yaml:"contents"`
	Guides     []guideDoc    `yaml:"guides"`
	Categories []categoryDoc `yaml:"categories"`
}

// Set is an immutable-per-swap snapshot of fixture data. Reload
// replaces the whole snapshot, so readers always see a consistent set.
type Set struct {
	mu         sync.RWMutex
	contents   []models.Content
	guides     []models.Guide
	categories []models.Category
}

// Builtin returns the embedded dataset. The embedded file is part of
// the binary, so a parse failure is a programming error.
func Builtin() *Set {
	s := &Set{}
	if err := s.load(embedded); err != nil {
		panic(fmt.Sprintf("fixtures: embedded data invalid: %v", err))
	}
	return s
}

// LoadFile replaces the dataset with the contents of a YAML override
// file. The previous dataset is kept on any error.
func (s *Set) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	if err := s.load(data); err != nil {
		return fmt.Errorf("fixtures: parse %s: %w", path, err)
	}
	return nil
}

func (s *Set) load(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	contents := make([]models.Content, 0, len(doc.Contents))
	for _, c := range doc.Contents {
		contents = append(contents, models.Content{
			ID:          c.ID,
			Slug:        c.Slug,
			Title:       c.Title,
			Keywords:    c.Keywords,
			Tags:        c.Tags,
			Category:    c.Category,
			Reading:     c.Reading,
			Initial:     firstRune(c.Reading),
			KanaIndex:   c.KanaIndex,
			Status:      c.Status,
			Description: c.Description,
			Symbolism:   c.Symbolism,
			Article:     c.Article,
			Situations:  c.Situations,
		})
	}
	guides := make([]models.Guide, 0, len(doc.Guides))
	for _, g := range doc.Guides {
		guides = append(guides, models.Guide{
			ID:            g.ID,
			Slug:          g.Slug,
			Title:         g.Title,
			FullTitle:     g.FullTitle,
			Description:   g.Description,
			Content:       g.Content,
			Image:         g.Image,
			Category:      g.Category,
			PublishedDate: g.PublishedDate,
			Status:        g.Status,
		})
	}
	categories := make([]models.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categories = append(categories, models.Category{ID: c.ID, Name: c.Name, Slug: c.Name})
	}

	s.mu.Lock()
	s.contents = contents
	s.guides = guides
	s.categories = categories
	s.mu.Unlock()
	return nil
}

// Contents returns fresh copies of all published fixture contents.
// Copies, because the category resolver mutates items in place.
func (s *Set) Contents() []*models.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Content, 0, len(s.contents))
	for i := range s.contents {
		if s.contents[i].Status != models.StatusPublished {
			continue
		}
		c := s.contents[i]
		c.Tags = append([]string(nil), c.Tags...)
		c.Category = append([]string(nil), c.Category...)
		out = append(out, &c)
	}
	return out
}

// ContentBySlug returns a copy of the published fixture with the given
// slug, or nil.
func (s *Set) ContentBySlug(slug string) *models.Content {
	for _, c := range s.Contents() {
		if c.Slug == slug {
			return c
		}
	}
	return nil
}

// ContentsByCategory filters fixtures whose category list contains the
// given display name.
func (s *Set) ContentsByCategory(name string) []*models.Content {
	var out []*models.Content
	for _, c := range s.Contents() {
		for _, cat := range c.Category {
			if cat == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SearchContents applies the same substring semantics the store-side
// predicate uses: title, tags, or reading.
func (s *Set) SearchContents(query string) []*models.Content {
	var out []*models.Content
	for _, c := range s.Contents() {
		if strings.Contains(c.Title, query) || strings.Contains(c.Reading, query) {
			out = append(out, c)
			continue
		}
		for _, tag := range c.Tags {
			if strings.Contains(tag, query) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Guides returns copies of all published fixture guides.
func (s *Set) Guides() []*models.Guide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Guide, 0, len(s.guides))
	for i := range s.guides {
		if s.guides[i].Status != models.StatusPublished {
			continue
		}
		g := s.guides[i]
		out = append(out, &g)
	}
	return out
}

// Categories returns a copy of the fixture category list.
func (s *Set) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Category(nil), s.categories...)
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

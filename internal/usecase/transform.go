package usecase

import (
	"fmt"

	"NewsCourier/internal/domain"
)

// Transform maps a raw crawl record onto the canonical Article entity. Pure:
// no I/O, no side effects. A record missing a required field fails with
// domain.ErrValidation.
func Transform(raw domain.RawArticle) (domain.Article, error) {
	switch {
	case raw.Title == "":
		return domain.Article{}, fmt.Errorf("%w: empty title", domain.ErrValidation)
	case raw.URL == "":
		return domain.Article{}, fmt.Errorf("%w: empty url (%s)", domain.ErrValidation, raw.Title)
	case raw.CategoryKey == "":
		return domain.Article{}, fmt.Errorf("%w: empty category key (%s)", domain.ErrValidation, raw.Title)
	case raw.PublishTime.IsZero():
		return domain.Article{}, fmt.Errorf("%w: zero publish time (%s)", domain.ErrValidation, raw.Title)
	}

	return domain.Article{
		Title:       raw.Title,
		URL:         raw.URL,
		PublishTime: raw.PublishTime,
		Source:      raw.Source,
		CategoryKey: raw.CategoryKey,
		Content:     raw.Content,
	}, nil
}

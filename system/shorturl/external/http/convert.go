package http

import (
	"shortlink/system/shorturl/api/dto"
	internalapp "shortlink/system/shorturl/internal/app"
	"shortlink/system/shorturl/internal/model"
)

func toLinkDTO(app *internalapp.App, link *model.ShortLink) *dto.ShortLinkDTO {
	return &dto.ShortLinkDTO{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		ShortURL:     app.ShortURL(link.ShortCode),
		OriginalURL:  link.OriginalURL,
		CustomAlias:  link.CustomAlias,
		Topic:        link.Topic,
		Clicks:       link.Clicks,
		LastAccessed: link.LastAccessed,
		IsActive:     link.IsActive,
		ExpiresAt:    link.ExpiresAt,
		CreatedFrom:  link.CreatedFrom,
		CreatedAt:    link.CreatedAt,
	}
}

func toLinkDTOs(app *internalapp.App, links []*model.ShortLink) []*dto.ShortLinkDTO {
	result := make([]*dto.ShortLinkDTO, 0, len(links))
	for _, link := range links {
		result = append(result, toLinkDTO(app, link))
	}
	return result
}

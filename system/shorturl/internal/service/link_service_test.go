package service

import (
	"context"
	"errors"
	"testing"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/system/shorturl/internal/dao"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueCodeExhausted(t *testing.T) {
	db := testutil.NewSqliteDB(t)
	svc := NewLinkService(dao.NewLinkDao(db, logger.GetLogger()), logger.GetLogger())
	ctx := context.Background()

	// 占满所有一位短码
	for _, r := range codeAlphabet {
		code := string(r)
		require.NoError(t, db.Create(&model.ShortLink{
			OriginalURL: "https://example.com/" + code,
			ShortCode:   code,
			OwnerID:     1,
			IsActive:    true,
		}).Error)
	}

	_, err := svc.GenerateUniqueCode(ctx, 1, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationExhausted))
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeInternal))
	assert.Equal(t, 503, errorc.ParseError(err).HTTPStatus())

	code, err := svc.GenerateUniqueCode(ctx, 8, 5)
	require.NoError(t, err)
	assert.Len(t, code, 8)
}

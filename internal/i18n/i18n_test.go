// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"github.com/Gayathri240502/persft-web-sub000/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init())
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)
	assert.Equal(t, "Please log in to continue.", i18n.T(ctx, "login_required"))

	// Unknown IDs fall back to the ID itself.
	assert.Equal(t, "no_such_message", i18n.T(ctx, "no_such_message"))
}

func TestT_Hindi(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.Hindi)
	assert.NotEqual(t, "Please log in to continue.", i18n.T(ctx, "login_required"))
	assert.NotEqual(t, "login_required", i18n.T(ctx, "login_required"))
}

func TestMatchLanguage(t *testing.T) {
	base := func(tag language.Tag) string {
		b, _ := tag.Base()
		return b.String()
	}

	assert.Equal(t, "en", base(i18n.MatchLanguage("en-US,en;q=0.9")))
	assert.Equal(t, "hi", base(i18n.MatchLanguage("hi-IN,hi;q=0.9")))
	assert.Equal(t, "en", base(i18n.MatchLanguage("")))
}

func TestGetLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
	ctx := i18n.WithLocale(context.Background(), language.Hindi)
	assert.Equal(t, "hi", i18n.GetLocale(ctx))
}

package mapscrape_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/mapscrape"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := mapscrape.Errorf(mapscrape.EINVALID, "search term %q rejected", "x")

	assert.Equal(t, mapscrape.EINVALID, mapscrape.ErrorCode(err))
	assert.Equal(t, "search term \"x\" rejected", mapscrape.ErrorMessage(err))
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("empty for nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, mapscrape.ErrorCode(nil))
	})

	t.Run("internal for foreign errors", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, mapscrape.EINTERNAL, mapscrape.ErrorCode(errors.New("boom")))
	})

	t.Run("unwraps wrapped application errors", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("search page: %w", mapscrape.Errorf(mapscrape.ENAVIGATION, "timeout"))
		assert.Equal(t, mapscrape.ENAVIGATION, mapscrape.ErrorCode(err))
		assert.Equal(t, "timeout", mapscrape.ErrorMessage(err))
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("empty for nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, mapscrape.ErrorMessage(nil))
	})

	t.Run("hides foreign error detail", func(t *testing.T) {
		t.Parallel()
		err := errors.New("dial tcp 10.0.0.1:9222: connection refused")
		assert.Equal(t, "Internal error.", mapscrape.ErrorMessage(err))
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	t.Run("leaves short strings alone", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "short", mapscrape.Truncate("short", 10))
	})

	t.Run("cuts long strings with an ellipsis", func(t *testing.T) {
		t.Parallel()
		got := mapscrape.Truncate(strings.Repeat("a", 50), 10)
		assert.Equal(t, "aaaaaaa...", got)
		assert.Len(t, []rune(got), 10)
	})

	t.Run("counts runes rather than bytes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "não", mapscrape.Truncate("não", 3))
	})
}

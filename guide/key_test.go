package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyWithIdentifier(t *testing.T) {
	// Case differences never produce distinct keys.
	assert.Equal(t, "tt001_imdb", CacheKey("tt001", "", "IMDB"))
	assert.Equal(t, "tt001_imdb", CacheKey("tt001", "", "imdb"))
	assert.Equal(t, "tt001_imdb", CacheKey("TT001", "", "imdb"))

	// The identifier wins even when a title is supplied.
	assert.Equal(t, "tt001_imdb", CacheKey("tt001", "Some Title", "imdb"))
}

func TestCacheKeyFromTitle(t *testing.T) {
	assert.Equal(t, "the_shawshank_redemption_kidsinmind",
		CacheKey("", "The Shawshank Redemption", "KidsInMind"))
	assert.Equal(t, "spider_man_no_way_home_imdb",
		CacheKey("", "Spider-Man: No Way Home", "imdb"))
}

func TestNormalizeTitle(t *testing.T) {
	for in, want := range map[string]string{
		"The Shawshank Redemption": "the_shawshank_redemption",
		"Spider-Man: No Way Home":  "spider_man_no_way_home",
		"  padded  title  ":        "padded_title",
		"Dash - and   space":       "dash_and_space",
		"UPPER":                    "upper",
		"":                         "",
	} {
		assert.Equal(t, want, NormalizeTitle(in), "input %q", in)
	}
}

func TestCacheKeyDeterminism(t *testing.T) {
	a := CacheKey("", "Spider-Man: No Way Home", "imdb")
	b := CacheKey("", "spider man  no way home", "IMDB")
	assert.Equal(t, a, b)
}

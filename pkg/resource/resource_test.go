package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoJSON = `{
  "id": "vid1",
  "snippet": {"publishedAt": "2023-04-05T10:00:00Z", "title": null},
  "contentDetails": {"duration": "PT4M13S"},
  "statistics": {"viewCount": "1500", "likeCount": 30, "commentCount": "x"}
}`

func TestLookupAndDefaults(t *testing.T) {
	res, err := Parse([]byte(videoJSON))
	require.NoError(t, err)

	id, err := res.MustString("id")
	require.NoError(t, err)
	assert.Equal(t, "vid1", id)

	assert.Nil(t, res.String("snippet", "title"), "JSON null reads as absent")
	assert.Nil(t, res.String("snippet", "description"))
	assert.Nil(t, res.String("id", "nested"), "walking through a scalar is absent")

	_, err = res.MustString("contentDetails", "caption")
	assert.True(t, errors.Is(err, ErrShape))
}

func TestCount(t *testing.T) {
	res, err := Parse([]byte(videoJSON))
	require.NoError(t, err)

	views, err := res.Count("statistics", "viewCount")
	require.NoError(t, err)
	require.NotNil(t, views)
	assert.Equal(t, int64(1500), *views)

	likes, err := res.Count("statistics", "likeCount")
	require.NoError(t, err)
	require.NotNil(t, likes)
	assert.Equal(t, int64(30), *likes)

	missing, err := res.Count("statistics", "favoriteCount")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = res.Count("statistics", "commentCount")
	assert.True(t, errors.Is(err, ErrNotNumeric))
}

func TestItemsAndNextPageToken(t *testing.T) {
	res, err := Parse([]byte(`{"items": [{"id": "a"}, 3, {"id": "b"}], "nextPageToken": "CAUQAA"}`))
	require.NoError(t, err)

	items := res.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", *items[0].String("id"))
	assert.Equal(t, "b", *items[1].String("id"))
	assert.Equal(t, "CAUQAA", res.NextPageToken())

	empty, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, empty.Items())
	assert.Equal(t, "", empty.NextPageToken())
}

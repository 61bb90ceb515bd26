package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<link>https://example.com</link>
<description>Test Description</description>
<item>
<title>Item 1</title>
<link>https://example.com/item1</link>
<description>Item 1 Description</description>
<pubDate>Mon, 02 Jan 2006 15:04:05 MST</pubDate>
</item>
<item>
<title>Item 2</title>
<link>https://example.com/item2</link>
</item>
</channel>
</rss>`

func TestRSSParser_Parse_Success(t *testing.T) {
	parser := NewRSSParser(newTestLogger())

	articles, err := parser.Parse(context.Background(), strings.NewReader(testFeed), "")

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Item 1", articles[0].Title)
	assert.Equal(t, "https://example.com/item1", articles[0].ID)
	assert.Equal(t, "https://example.com/item1", articles[0].URL)
	assert.Equal(t, "Item 1 Description", articles[0].Description)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 MST", articles[0].PublishedAt)
	assert.Equal(t, "Test Feed", articles[0].Source)
	assert.Equal(t, "", articles[1].Description)
	assert.Equal(t, "", articles[1].PublishedAt)
}

func TestRSSParser_Parse_SourceOverride(t *testing.T) {
	parser := NewRSSParser(newTestLogger())

	articles, err := parser.Parse(context.Background(), strings.NewReader(testFeed), "Configured")

	require.NoError(t, err)
	require.NotEmpty(t, articles)
	assert.Equal(t, "Configured", articles[0].Source)
}

func TestRSSParser_Parse_Invalid(t *testing.T) {
	parser := NewRSSParser(newTestLogger())

	articles, err := parser.Parse(context.Background(), strings.NewReader("not a feed"), "")

	assert.Error(t, err)
	assert.Nil(t, articles)
	assert.Contains(t, err.Error(), "failed to decode feed")
}

func TestRSSParser_Parse_ContextCancelled(t *testing.T) {
	parser := NewRSSParser(newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	articles, err := parser.Parse(ctx, strings.NewReader(testFeed), "")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, articles)
}

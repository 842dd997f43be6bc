package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/livepager"
	"github.com/Alp4ka/livepager/internal/postdb"
)

func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--driver", "sqlite", "--dsn", dsn, "--interval", "1ms"}, args...))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func lines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func Test_Commands(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "feed.db")

	out, err := run(t, dsn, "seed")
	require.NoError(t, err)
	require.Len(t, lines(out), 2)

	var first postdb.Post
	require.NoError(t, json.Unmarshal([]byte(lines(out)[0]), &first))
	assert.Equal(t, "first post", first.Title)

	out, err = run(t, dsn, "get", first.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"first post"`)

	_, err = run(t, dsn, "get", "missing")
	assert.ErrorIs(t, err, livepager.ErrNotFound)

	out, err = run(t, dsn, "list")
	require.NoError(t, err)
	var posts []postdb.Post
	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	assert.Len(t, posts, 2)

	out, err = run(t, dsn, "page", "--limit", "1")
	require.NoError(t, err)
	var page pageOutput[postdb.Post]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "first post", page.Items[0].Title)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	out, err = run(t, dsn, "page", "--limit", "1", "--token", page.NextPageToken)
	require.NoError(t, err)
	page = pageOutput[postdb.Post]{}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "second post", page.Items[0].Title)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextPageToken)

	_, err = run(t, dsn, "page", "--limit", "101")
	assert.Error(t, err)

	_, err = run(t, dsn, "page", "--token", "%%%")
	assert.ErrorIs(t, err, livepager.ErrInvalidArgument)

	out, err = run(t, dsn, "watch", "--max", "1")
	require.NoError(t, err)
	var snap livepager.Snapshot[postdb.Post]
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Data, 2)
	assert.NotEmpty(t, snap.Cursor)

	out, err = run(t, dsn, "tail", "--after", "0", "--max", "1")
	require.NoError(t, err)
	var tailed postdb.Post
	require.NoError(t, json.Unmarshal([]byte(out), &tailed))
	assert.Equal(t, "second post", tailed.Title)

	_, err = run(t, dsn, "delete")
	assert.ErrorIs(t, err, livepager.ErrInvalidArgument)

	out, err = run(t, dsn, "delete", "--all")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":2}`, out)

	out, err = run(t, dsn, "add", "third post")
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"third post"`)
}

func Test_Commands_InvalidConfig(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "feed.db"), "--driver", "oracle", "list")
	assert.ErrorIs(t, err, livepager.ErrInvalidArgument)
}

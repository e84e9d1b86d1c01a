package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNormaliseGenericArchive(t *testing.T) {
	n := New()
	data := buildZip(t, map[string]string{
		"notes/first.txt": "first note body",
		"notes/second.md": "# second\n\nbody",
		"image.png":       "not text",
	})

	out, err := n.Normalise(context.Background(), "backup.zip", data)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	for _, ex := range out {
		assert.Equal(t, "archive", ex.Metadata["source"])
		assert.Equal(t, "backup.zip", ex.Metadata["filename"])
	}
}

func TestNormaliseChatGPTExport(t *testing.T) {
	conversations := `[
		{
			"id": "conv-1",
			"title": "Trip planning",
			"mapping": {
				"a": {"message": {"author": {"role": "user"}, "content": {"parts": ["Where should I go in May?"]}, "create_time": 1}},
				"b": {"message": {"author": {"role": "assistant"}, "content": {"parts": ["Consider Lisbon."]}, "create_time": 2}},
				"c": {"message": {"author": {"role": "system"}, "content": {"parts": ["internal"]}, "create_time": 0}},
				"root": {"message": null}
			}
		}
	]`
	n := New()
	data := buildZip(t, map[string]string{"conversations.json": conversations})

	out, err := n.Normalise(context.Background(), "chatgpt-export.zip", data)
	require.NoError(t, err)
	require.Len(t, out, 1)

	text := out[0].Text
	assert.Contains(t, text, "# Trip planning")
	assert.Contains(t, text, "user: Where should I go in May?")
	assert.Contains(t, text, "assistant: Consider Lisbon.")
	assert.NotContains(t, text, "internal")

	// Messages ordered by create_time.
	assert.Less(t, bytes.Index([]byte(text), []byte("user:")), bytes.Index([]byte(text), []byte("assistant:")))
	assert.Equal(t, "chatgpt_export", out[0].Metadata["source"])
	assert.Equal(t, "conv-1", out[0].Metadata["conversation_id"])
}

func TestNormaliseFacebookExport(t *testing.T) {
	posts := `[
		{"timestamp": 100, "data": [{"post": "First post about the garden"}]},
		{"timestamp": 200, "data": [{"post": ""}]},
		{"timestamp": 300, "data": [{"post": "Visited the cafÃ© downtown"}]}
	]`
	comments := `{"comments_v2": [
		{"timestamp": 150, "data": [{"comment": {"comment": "Nice photo!"}}]}
	]}`
	messages := `{
		"title": "Alex Chen",
		"participants": [{"name": "Alex Chen"}, {"name": "Sam Park"}],
		"messages": [
			{"sender_name": "Sam Park", "timestamp_ms": 2000, "content": "See you there"},
			{"sender_name": "Alex Chen", "timestamp_ms": 1000, "content": "Lunch tomorrow?"}
		]
	}`
	n := New()
	data := buildZip(t, map[string]string{
		"posts/your_posts_1.json":                   posts,
		"comments/comments.json":                    comments,
		"messages/inbox/alexchen_x1/message_1.json": messages,
		"photos_and_videos/album/IMG_0001.jpg":      "binary",
	})

	out, err := n.Normalise(context.Background(), "facebook-export.zip", data)
	require.NoError(t, err)
	require.Len(t, out, 4) // 2 posts + 1 comment + 1 thread; media skipped

	byEntry := map[string][]string{}
	for _, ex := range out {
		assert.Equal(t, "facebook_export", ex.Metadata["source"])
		assert.Equal(t, "facebook-export.zip", ex.Metadata["filename"])
		byEntry[ex.Metadata["entry"]] = append(byEntry[ex.Metadata["entry"]], ex.Text)
	}
	require.Len(t, byEntry["post"], 2)
	require.Len(t, byEntry["comment"], 1)
	require.Len(t, byEntry["message_thread"], 1)

	// The Latin-1 mojibake is repaired.
	assert.Contains(t, byEntry["post"][1], "café")
	assert.Contains(t, byEntry["comment"][0], "Nice photo!")

	thread := byEntry["message_thread"][0]
	assert.Contains(t, thread, "# Alex Chen")
	assert.Contains(t, thread, "Alex Chen: Lunch tomorrow?")
	assert.Contains(t, thread, "Sam Park: See you there")
	// Newest-first export is replayed in timestamp order.
	assert.Less(t, bytes.Index([]byte(thread), []byte("Lunch tomorrow?")),
		bytes.Index([]byte(thread), []byte("See you there")))
}

func TestFixFacebookEncoding(t *testing.T) {
	// UTF-8 bytes stored as Latin-1 runes are reassembled.
	assert.Equal(t, "café", fixFacebookEncoding("cafÃ©"))
	// Proper Unicode passes through untouched.
	assert.Equal(t, "naïve déjà vu ☕", fixFacebookEncoding("naïve déjà vu ☕"))
	assert.Equal(t, "plain ascii", fixFacebookEncoding("plain ascii"))
}

func TestNormaliseInvalidZip(t *testing.T) {
	n := New()
	_, err := n.Normalise(context.Background(), "broken.zip", []byte("not a zip"))
	assert.Error(t, err)
}

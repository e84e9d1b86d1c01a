package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Media file extensions found in Facebook exports. Media is not text and is
// not ingested; entries are tallied for the import log only.
var mediaExts = map[string]string{
	".jpg": "photo", ".jpeg": "photo", ".png": "photo", ".gif": "photo",
	".webp": "photo", ".bmp": "photo", ".heic": "photo", ".heif": "photo",
	".mp4": "video", ".mov": "video", ".avi": "video", ".mkv": "video",
	".webm": "video", ".m4v": "video",
	".mp3": "audio", ".m4a": "audio", ".wav": "audio", ".aac": "audio",
	".ogg": "audio", ".flac": "audio",
}

// messageCap bounds the messages flattened per thread.
const messageCap = 500

// isFacebookExport detects a Facebook export archive by its characteristic
// directory layout.
func isFacebookExport(reader *zip.Reader) bool {
	for _, f := range reader.File {
		lower := strings.ToLower(f.Name)
		if strings.Contains(lower, "posts/your_posts") ||
			strings.Contains(lower, "messages/inbox/") {
			return true
		}
	}
	return false
}

// facebookExport flattens a Facebook export: one text per post and comment,
// one text per message thread. Media entries are counted and logged, not
// ingested.
func facebookExport(reader *zip.Reader, archiveName string) ([]driven.ExtractedText, error) {
	var texts []driven.ExtractedText
	mediaCounts := map[string]int{}

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		lower := strings.ToLower(f.Name)

		if kind, ok := mediaExts[strings.ToLower(path.Ext(f.Name))]; ok {
			mediaCounts[kind]++
			continue
		}
		if !strings.HasSuffix(lower, ".json") {
			continue
		}

		switch {
		case strings.Contains(lower, "posts/your_posts"):
			data, err := readEntry(f)
			if err != nil {
				continue
			}
			texts = append(texts, facebookPosts(data, archiveName)...)
		case strings.Contains(lower, "comments/"):
			data, err := readEntry(f)
			if err != nil {
				continue
			}
			texts = append(texts, facebookComments(data, archiveName)...)
		case strings.Contains(lower, "messages/inbox/") && strings.Contains(lower, "message_"):
			data, err := readEntry(f)
			if err != nil {
				continue
			}
			if t := facebookThread(data, f.Name, archiveName); t != nil {
				texts = append(texts, *t)
			}
		}
	}

	if len(mediaCounts) > 0 {
		logger.Debug("Facebook export media skipped: %d photos, %d videos, %d audio",
			mediaCounts["photo"], mediaCounts["video"], mediaCounts["audio"])
	}
	return texts, nil
}

// Facebook export structures. Text fields arrive with UTF-8 bytes encoded
// as Latin-1 escapes and are repaired after decoding.
type fbPost struct {
	Timestamp int64 `json:"timestamp"`
	Data      []struct {
		Post string `json:"post"`
	} `json:"data"`
}

type fbCommentsFile struct {
	Comments []struct {
		Timestamp int64 `json:"timestamp"`
		Data      []struct {
			Comment struct {
				Comment string `json:"comment"`
			} `json:"comment"`
		} `json:"data"`
	} `json:"comments_v2"`
}

type fbThread struct {
	Title        string `json:"title"`
	Participants []struct {
		Name string `json:"name"`
	} `json:"participants"`
	Messages []struct {
		SenderName  string `json:"sender_name"`
		TimestampMs int64  `json:"timestamp_ms"`
		Content     string `json:"content"`
	} `json:"messages"`
}

func facebookPosts(data []byte, archiveName string) []driven.ExtractedText {
	var posts []fbPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil
	}

	var texts []driven.ExtractedText
	for _, p := range posts {
		if len(p.Data) == 0 {
			continue
		}
		body := fixFacebookEncoding(p.Data[0].Post)
		if strings.TrimSpace(body) == "" {
			continue
		}
		texts = append(texts, driven.ExtractedText{
			Text: body,
			Metadata: map[string]string{
				"source":    "facebook_export",
				"filename":  archiveName,
				"entry":     "post",
				"timestamp": fmt.Sprintf("%d", p.Timestamp),
			},
		})
	}
	return texts
}

func facebookComments(data []byte, archiveName string) []driven.ExtractedText {
	var file fbCommentsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil
	}

	var texts []driven.ExtractedText
	for _, c := range file.Comments {
		if len(c.Data) == 0 {
			continue
		}
		body := fixFacebookEncoding(c.Data[0].Comment.Comment)
		if strings.TrimSpace(body) == "" {
			continue
		}
		texts = append(texts, driven.ExtractedText{
			Text: body,
			Metadata: map[string]string{
				"source":    "facebook_export",
				"filename":  archiveName,
				"entry":     "comment",
				"timestamp": fmt.Sprintf("%d", c.Timestamp),
			},
		})
	}
	return texts
}

// facebookThread flattens one message_N.json into a single text: title,
// then "sender: content" lines in timestamp order.
func facebookThread(data []byte, entryName, archiveName string) *driven.ExtractedText {
	var thread fbThread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil
	}
	if len(thread.Messages) == 0 {
		return nil
	}

	// Exports list newest first.
	sort.SliceStable(thread.Messages, func(i, j int) bool {
		return thread.Messages[i].TimestampMs < thread.Messages[j].TimestampMs
	})
	messages := thread.Messages
	if len(messages) > messageCap {
		messages = messages[len(messages)-messageCap:]
	}

	title := fixFacebookEncoding(thread.Title)
	if title == "" {
		title = path.Base(path.Dir(entryName))
	}

	var participants []string
	for _, p := range thread.Participants {
		participants = append(participants, fixFacebookEncoding(p.Name))
	}

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	wrote := 0
	for _, m := range messages {
		content := fixFacebookEncoding(m.Content)
		if strings.TrimSpace(content) == "" {
			continue
		}
		b.WriteString(fixFacebookEncoding(m.SenderName) + ": " + content + "\n\n")
		wrote++
	}
	if wrote == 0 {
		return nil
	}

	return &driven.ExtractedText{
		Text: b.String(),
		Metadata: map[string]string{
			"source":       "facebook_export",
			"filename":     archiveName,
			"entry":        "message_thread",
			"title":        title,
			"participants": strings.Join(participants, ", "),
		},
	}
}

// fixFacebookEncoding repairs Facebook's mojibake: exports store UTF-8
// bytes as \u00xx escapes, so the decoded string holds one rune per UTF-8
// byte. Reassembling those runes as bytes recovers the original text; a
// string with runes above U+00FF is already proper Unicode and is returned
// unchanged, as is anything whose reassembly is not valid UTF-8.
func fixFacebookEncoding(s string) string {
	bytes := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return s
		}
		bytes = append(bytes, byte(r))
	}
	if utf8.Valid(bytes) {
		return string(bytes)
	}
	return s
}

// Package archive handles export ZIP archives: ChatGPT exports carrying a
// conversations.json, Facebook exports (posts, comments, message threads),
// and generic archives of text entries. Each conversation, post or entry
// becomes its own extracted text.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// entrySizeLimit caps a single archived entry read into memory.
const entrySizeLimit = 8 << 20

// Normaliser handles export ZIP archives.
type Normaliser struct{}

// New creates an archive normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".zip"}
}

// Normalise iterates the archive. A conversations.json entry is decoded as
// a ChatGPT export; the posts/your_posts and messages/inbox layouts mark a
// Facebook export; otherwise every .txt/.md/.json entry is extracted as a
// standalone text.
func (n *Normaliser) Normalise(_ context.Context, filename string, content []byte) ([]driven.ExtractedText, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	for _, f := range reader.File {
		name := f.Name
		if name == "conversations.json" || strings.HasSuffix(name, "/conversations.json") {
			data, err := readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			return chatGPTConversations(data, filename)
		}
	}

	if isFacebookExport(reader) {
		return facebookExport(reader, filename)
	}

	var texts []driven.ExtractedText
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		lower := strings.ToLower(f.Name)
		if !strings.HasSuffix(lower, ".txt") && !strings.HasSuffix(lower, ".md") &&
			!strings.HasSuffix(lower, ".json") {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		texts = append(texts, driven.ExtractedText{
			Text: text,
			Metadata: map[string]string{
				"source":   "archive",
				"filename": filename,
				"entry":    f.Name,
			},
		})
	}
	return texts, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, entrySizeLimit))
}

// ChatGPT export structures. The mapping is a tree of nodes; messages carry
// their position in create_time.
type conversation struct {
	ID      string                 `json:"id"`
	Title   string                 `json:"title"`
	Mapping map[string]mappingNode `json:"mapping"`
}

type mappingNode struct {
	Message *exportMessage `json:"message"`
}

type exportMessage struct {
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	Content struct {
		Parts []json.RawMessage `json:"parts"`
	} `json:"content"`
	CreateTime float64 `json:"create_time"`
}

// chatGPTConversations flattens each conversation into one text document:
// title followed by "role: text" lines in create_time order.
func chatGPTConversations(data []byte, archiveName string) ([]driven.ExtractedText, error) {
	var conversations []conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("decoding conversations.json: %w", err)
	}

	var texts []driven.ExtractedText
	for _, conv := range conversations {
		type timedMessage struct {
			at   float64
			line string
		}
		var messages []timedMessage

		for _, node := range conv.Mapping {
			msg := node.Message
			if msg == nil || msg.Author.Role == "system" {
				continue
			}
			var parts []string
			for _, raw := range msg.Content.Parts {
				var s string
				if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) == 0 {
				continue
			}
			messages = append(messages, timedMessage{
				at:   msg.CreateTime,
				line: msg.Author.Role + ": " + strings.Join(parts, "\n"),
			})
		}
		if len(messages) == 0 {
			continue
		}
		sort.SliceStable(messages, func(i, j int) bool { return messages[i].at < messages[j].at })

		var b strings.Builder
		title := conv.Title
		if title == "" {
			title = "Untitled"
		}
		b.WriteString("# " + title + "\n\n")
		for _, m := range messages {
			b.WriteString(m.line)
			b.WriteString("\n\n")
		}

		texts = append(texts, driven.ExtractedText{
			Text: b.String(),
			Metadata: map[string]string{
				"source":          "chatgpt_export",
				"filename":        archiveName,
				"conversation_id": conv.ID,
				"title":           title,
			},
		})
	}
	return texts, nil
}

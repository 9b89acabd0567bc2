package skilldoc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Parse parses a raw Markdown skill document into a Document. The front
// matter must be present and carry a non-empty name and description;
// anything else is a parse error surfaced to the caller.
func Parse(raw []byte) (*Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	pctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(raw), parser.WithContext(pctx))

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidFrontMatter, "%v", err)
	}
	if metaData == nil {
		return nil, ErrNoFrontMatter
	}

	manifest, err := decodeManifest(metaData)
	if err != nil {
		return nil, err
	}

	if manifest.Name == "" {
		return nil, ErrMissingName
	}
	if manifest.Description == "" {
		return nil, ErrMissingDescription
	}

	doc := &Document{
		Manifest: *manifest,
		Body:     ExtractBody(string(raw)),
	}
	collectSections(doc, root, raw)

	return doc, nil
}

// ParseFile reads and parses a skill document, populating the location
// fields from the file system.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	doc, err := Parse(content)
	if err != nil {
		return nil, err
	}

	doc.Path = path
	doc.Checksum = Checksum(content)
	doc.Size = int64(len(content))
	if info, err := os.Stat(path); err == nil {
		doc.ModTime = info.ModTime()
	}

	return doc, nil
}

// Checksum returns the hex sha256 of raw document bytes
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// decodeManifest maps loosely typed front matter into a Manifest,
// preserving unrecognized top-level keys in Extra.
func decodeManifest(data map[string]interface{}) (*Manifest, error) {
	manifest := &Manifest{}
	decoderMeta := &mapstructure.Metadata{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           manifest,
		Metadata:         decoderMeta,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create manifest decoder")
	}

	if err := decoder.Decode(data); err != nil {
		return nil, errors.Wrapf(ErrInvalidFrontMatter, "%v", err)
	}

	for _, key := range decoderMeta.Unused {
		if strings.Contains(key, ".") {
			continue
		}
		if manifest.Extra == nil {
			manifest.Extra = make(map[string]interface{})
		}
		manifest.Extra[key] = data[key]
	}

	return manifest, nil
}

// SplitFrontMatter splits a raw document into the YAML between the front
// matter delimiters and the body after them. Documents without front matter
// return an empty front matter and the full content as body.
func SplitFrontMatter(content string) (frontMatter, body string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", content
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", content
	}

	frontMatter = strings.Join(lines[1:end], "\n")
	body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
	return frontMatter, body
}

// ExtractBody removes YAML front matter and returns the body
func ExtractBody(content string) string {
	_, body := SplitFrontMatter(content)
	return body
}

// collectSections walks the Markdown AST gathering headings and the raw
// content below each, plus whether any fenced code block appears.
func collectSections(doc *Document, root ast.Node, source []byte) {
	type headingInfo struct {
		title string
		level int
		line  int
		// offset just past the heading text, where section content starts
		contentStart int
		// offset of the start of the heading line, where the previous
		// section's content ends
		lineStart int
	}
	var headings []headingInfo

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Lines().Len() == 0 {
				return ast.WalkContinue, nil
			}
			segment := node.Lines().At(0)
			headings = append(headings, headingInfo{
				title:        headingText(node, source),
				level:        node.Level,
				line:         lineNumber(source, segment.Start),
				contentStart: segment.Stop,
				lineStart:    lineStart(source, segment.Start),
			})
		case *ast.FencedCodeBlock:
			doc.HasFencedCode = true
		}
		return ast.WalkContinue, nil
	})

	for i, h := range headings {
		end := len(source)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				end = headings[j].lineStart
				break
			}
		}
		start := h.contentStart
		if start > end {
			start = end
		}
		doc.Sections = append(doc.Sections, Section{
			Title:   h.title,
			Level:   h.level,
			Line:    h.line,
			Content: strings.TrimSpace(string(source[start:end])),
		})
	}
}

// headingText collects the plain text of a heading, flattening inline
// markup such as code spans and emphasis.
func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func lineNumber(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

func lineStart(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	idx := bytes.LastIndexByte(source[:offset], '\n')
	return idx + 1
}

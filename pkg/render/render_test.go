package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

func testDoc(t *testing.T, category, slug, body string) *skilldoc.Document {
	t.Helper()
	raw := `---
name: ` + slug + `
description: Test skill for ` + slug + `
---

` + body
	doc, err := skilldoc.Parse([]byte(raw))
	require.NoError(t, err)
	doc.Category = category
	doc.Slug = slug
	return doc
}

func TestRender_PlainBody(t *testing.T) {
	doc := testDoc(t, "writing", "summarize", "## Workflow\n\nRead, condense, verify.\n")

	rendered, err := New().Render(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rendered, "[Skill: writing/summarize] summarize - Test skill for summarize"))
	assert.Contains(t, rendered, "Read, condense, verify.")
}

func TestRender_PlainBodyEqualsEnvelopePlusBody(t *testing.T) {
	body := "## Workflow\n\nNo directives here.\n"
	doc := testDoc(t, "writing", "summarize", body)

	rendered, err := New().Render(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Equal(t, Envelope(doc)+"\n\n"+body, rendered)
}

func TestRender_ArgumentSubstitution(t *testing.T) {
	doc := testDoc(t, "api", "integrate", "Target service: {{.service}}\n")

	rendered, err := New().Render(context.Background(), doc, map[string]string{"service": "billing"})
	require.NoError(t, err)

	assert.Contains(t, rendered, "Target service: billing")
}

func TestRender_DefaultFunc(t *testing.T) {
	doc := testDoc(t, "api", "integrate", `Language: {{default "go" .language}}`)

	rendered, err := New().Render(context.Background(), doc, map[string]string{})
	require.NoError(t, err)
	assert.Contains(t, rendered, "Language: go")

	rendered, err = New().Render(context.Background(), doc, map[string]string{"language": "rust"})
	require.NoError(t, err)
	assert.Contains(t, rendered, "Language: rust")
}

func TestRender_BashFunc(t *testing.T) {
	doc := testDoc(t, "debug", "triage", `Output: {{bash "echo" "hello"}}`)

	rendered, err := New().Render(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered, "Output: hello")
}

func TestRender_BashFuncFailure(t *testing.T) {
	doc := testDoc(t, "debug", "triage", `Output: {{bash "false"}}`)

	rendered, err := New().Render(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered, "[ERROR executing command 'false'")
}

func TestRender_BashDisabled(t *testing.T) {
	doc := testDoc(t, "debug", "triage", `Output: {{bash "echo" "hello"}}`)

	rendered, err := New(WithBashDisabled()).Render(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered, "[ERROR: bash function is disabled]")
	assert.NotContains(t, rendered, "Output: hello")
}

func TestRender_InvalidTemplate(t *testing.T) {
	doc := testDoc(t, "debug", "triage", "{{.unclosed")

	_, err := New().Render(context.Background(), doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug/triage")
}

func TestBundle_SortedWithSeparators(t *testing.T) {
	docs := []*skilldoc.Document{
		testDoc(t, "writing", "summarize", "Summarize content.\n"),
		testDoc(t, "api", "integrate", "Integrate APIs.\n"),
	}

	bundle, err := New().Bundle(context.Background(), docs, nil)
	require.NoError(t, err)

	apiIdx := strings.Index(bundle, "[Skill: api/integrate]")
	writingIdx := strings.Index(bundle, "[Skill: writing/summarize]")
	require.GreaterOrEqual(t, apiIdx, 0)
	require.GreaterOrEqual(t, writingIdx, 0)
	assert.Less(t, apiIdx, writingIdx)
	assert.Contains(t, bundle, BundleSeparator)
}

func TestBundle_Empty(t *testing.T) {
	bundle, err := New().Bundle(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, bundle)
}

func TestEnvelope_NoDescription(t *testing.T) {
	doc := &skilldoc.Document{
		Manifest: skilldoc.Manifest{Name: "triage"},
		Category: "debug",
		Slug:     "triage",
	}
	assert.Equal(t, "[Skill: debug/triage] triage", Envelope(doc))
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint(map[string]string{"b": "2", "a": "1"})
	b := Fingerprint(map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "a=1;b=2;", a)
	assert.Empty(t, Fingerprint(nil))
}

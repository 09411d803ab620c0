package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arturoeanton/storyline/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogHasEveryTemplate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	for _, id := range []string{
		port.TemplateActivityParagraph,
		port.TemplateQuestionParagraph,
		port.TemplateChatCoach,
		port.TemplateQuestionGuideline,
		port.TemplateRecommend,
		port.TemplateEditorGuideline,
	} {
		assert.Contains(t, c.IDs(), id)
	}

	out, err := c.Render(port.TemplateActivityParagraph, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderUnknownTemplate(t *testing.T) {
	c, err := Parse([]byte("templates: {}\n"))
	require.NoError(t, err)

	_, err = c.Render("missing", nil)
	assert.ErrorIs(t, err, port.ErrTemplateNotFound)
}

func TestRenderChatCoachWithSuggestions(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	out, err := c.Render(port.TemplateChatCoach, map[string]any{
		"CurrentQuestion":   "지원 동기를 작성하시오",
		"PersonalStatement": "",
		"Suggestions": []map[string]any{{
			"Activity": "대학신문", "EventName": "사설 프로세스 개선", "Contribution": 80,
			"Situation": "s", "Task": "t", "Action": "a", "Result": "r",
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "지원 동기를 작성하시오")
	assert.Contains(t, out, "Event Name: 사설 프로세스 개선")
	assert.NotContains(t, out, "No relevant activities")
}

func TestLoadOverridesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
templates:
  question_paragraph:
    instructions: "custom {{.}}"
`), 0o600))

	c, err := Load(dir)
	require.NoError(t, err)

	out, err := c.Render(port.TemplateQuestionParagraph, "x")
	require.NoError(t, err)
	assert.Equal(t, "custom x", out)

	_, err = c.Render(port.TemplateRecommend, nil)
	assert.NoError(t, err, "built-in entries stay available")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

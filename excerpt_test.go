package htmltree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceContextOf(t *testing.T) {
	src := "line 1\nline 2\nline 3\n<b>error here</b>\nline 5\nline 6\nline 7"
	from := strings.Index(src, "<b>")

	ctx := SourceContextOf(src, from, from+3, 2)
	want := &SourceContext{
		Lines: []SourceLine{
			{2, "line 2"},
			{3, "line 3"},
			{4, "<b>error here</b>"},
			{5, "line 5"},
			{6, "line 6"},
		},
		ErrorLine:   4,
		ErrorColumn: 1,
		ErrorLength: 3,
	}
	if diff := cmp.Diff(want, ctx); diff != "" {
		t.Errorf("SourceContextOf mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceContextEdges(t *testing.T) {
	src := "<p>a\nb"

	ctx := SourceContextOf(src, 0, len(src), 5)
	assert.Len(t, ctx.Lines, 2)
	assert.Equal(t, 4, ctx.ErrorLength, "clipped to the first line")

	ctx = SourceContextOf(src, 100, 100, 0)
	assert.Equal(t, []SourceLine{{2, "b"}}, ctx.Lines)
	assert.Equal(t, 2, ctx.ErrorColumn)
	assert.Equal(t, 1, ctx.ErrorLength)
}

func TestSourceContextFormat(t *testing.T) {
	src := "<div>\n  <b>x</i>\n</div>"
	from := strings.Index(src, "</i>")

	var b strings.Builder
	require.NoError(t, SourceContextOf(src, from, from+4, 1).Format(&b))
	assert.Equal(t, "1 | <div>\n2 |   <b>x</i>\n  |       ^^^^\n3 | </div>\n", b.String())
}

package htmltree

import (
	"testing"

	"github.com/dpotapov/go-htmltree/elements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	tr := Parse(`<ul><li>one<li class="last">two</ul>`, Options{}).Tree

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"by name", `kind == "open_tag" && name == "li"`, []string{"<li>", `<li class="last">`}},
		{"unmatched", `kind == "open_tag" && !matched`, []string{"<li>", `<li class="last">`}},
		{"matched", `matched`, []string{"<ul>"}},
		{"text", `kind == "text" && text == "two"`, []string{"two"}},
		{"attributes", `attrs["class"] == "last"`, []string{`<li class="last">`}},
		{"depth", `depth == 0`, []string{"<ul>"}},
		{"semantic end", `kind == "open_tag" && semanticEnd == 11`, []string{"<li>"}},
		{"none", `name == "table"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := Select(tr, tt.query)
			require.NoError(t, err)
			var got []string
			for _, id := range ids {
				got = append(got, tr.Text(id))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`kind ==`)
	assert.Error(t, err)

	_, err = Compile(`1 + 1`)
	assert.Error(t, err, "non-boolean queries are rejected")

	_, err = Compile(`unknown == 1`)
	assert.Error(t, err)

	q, err := Compile(`virtual`)
	require.NoError(t, err)
	assert.Equal(t, "virtual", q.String())

	tr := Parse("<table><td>x", Options{}).Tree
	ids, err := q.Select(tr)
	require.NoError(t, err)
	require.Len(t, ids, 2, "implied tbody and tr")
	for _, id := range ids {
		assert.Equal(t, -1, tr.From(id))
		assert.NotEqual(t, elements.None, tr.Parent(id))
	}
}

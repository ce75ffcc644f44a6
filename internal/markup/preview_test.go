package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		html  string
		want  string
	}{
		{
			name:  "Given formatted html, Then markdown on one line",
			limit: 100,
			html:  "<h2>Raid</h2><p>Need <strong>two</strong> healers</p>",
			want:  "## Raid Need **two** healers",
		},
		{
			name:  "Given scripts and styles, Then they are dropped",
			limit: 100,
			html:  "<style>p{color:red}</style><p>hi</p><script>alert(1)</script>",
			want:  "hi",
		},
		{
			name:  "Given long text, Then cut at the limit with an ellipsis",
			limit: 5,
			html:  "<p>abcdefgh</p>",
			want:  "abcde…",
		},
		{
			name:  "Given multibyte text, Then cut by runes",
			limit: 3,
			html:  "<p>привет</p>",
			want:  "при…",
		},
		{
			name:  "Given a cut at a space, Then trailing space is trimmed",
			limit: 4,
			html:  "<p>abc def</p>",
			want:  "abc…",
		},
		{
			name:  "Given a zero limit, Then no preview",
			limit: 0,
			html:  "<p>hi</p>",
			want:  "",
		},
		{
			name:  "Given plain text, Then it passes through",
			limit: 100,
			html:  "just text",
			want:  "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPreviewer(tt.limit).Preview(tt.html))
		})
	}
}

func TestPreview_ExactLimitHasNoEllipsis(t *testing.T) {
	p := NewPreviewer(10)
	got := p.Preview("<p>" + strings.Repeat("x", 10) + "</p>")
	assert.Equal(t, strings.Repeat("x", 10), got)
}

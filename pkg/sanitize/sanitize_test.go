package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "", Text("   "))
	assert.Equal(t, "Incomplete documents", Text("  Incomplete documents "))
	assert.Equal(t, "Missing CNIC copy", Text("<b>Missing</b> CNIC copy<script>alert(1)</script>"))
	assert.Equal(t, "Fees & dues", Text("Fees & dues"))
}

func TestRichText(t *testing.T) {
	assert.Equal(t, "<p><strong>Bold</strong></p>", RichText("<p><strong>Bold</strong></p>"))
	assert.Equal(t, "<p>Hello</p>", RichText("<p>Hello</p><script>alert('x')</script>"))
	assert.NotContains(t, RichText(`<a href="javascript:alert(1)">x</a>`), "javascript:")
}

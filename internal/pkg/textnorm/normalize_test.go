package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeText(""))
}

func TestNormalizeText_DecodesUnicodeEscapes(t *testing.T) {
	assert.Equal(t, "中国", NormalizeText(`中国`))
}

func TestNormalizeText_DecodesHTMLEntities(t *testing.T) {
	assert.Equal(t, `A & B`, NormalizeText("A &amp; B"))
}

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b", NormalizeText("a   b"))
}

func TestNormalizeText_CollapsesExcessBlankLines(t *testing.T) {
	got := NormalizeText("line1\n\n\n\n\nline2")
	assert.Equal(t, "line1\n\nline2", got)
}

func TestNormalizeText_PercentDecodesWhenDense(t *testing.T) {
	got := NormalizeText("%E4%B8%AD%E5%9B%BD")
	assert.Equal(t, "中国", got)
}

func TestNormalizeText_LeavesLiteralPercentSignsAlone(t *testing.T) {
	got := NormalizeText("销量增长 10% 左右")
	assert.Contains(t, got, "10%")
}

func TestNormalizeText_IsIdempotent(t *testing.T) {
	once := NormalizeText("中国经济  稳健  增长")
	twice := NormalizeText(once)
	assert.Equal(t, once, twice)
}

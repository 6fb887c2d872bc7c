package xstrings_test

import (
	"github.com/anemonelab/agenthub/pkg/xstrings"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WrapLines", func() {
	It("keeps short text on one line", func() {
		Expect(xstrings.WrapLines("Short text", 20)).To(Equal([]string{"Short text"}))
	})

	It("wraps at word boundaries", func() {
		Expect(xstrings.WrapLines("This is a longer text that needs to be split into chunks.", 10)).
			To(Equal([]string{"This is a", "longer", "text that", "needs to", "be split", "into", "chunks."}))
	})

	It("collapses runs of spaces", func() {
		Expect(xstrings.WrapLines("  many   spaces  here ", 20)).To(Equal([]string{"many spaces here"}))
	})

	It("keeps line breaks and blank lines", func() {
		Expect(xstrings.WrapLines("line1\n\nline2", 10)).To(Equal([]string{"line1", "", "line2"}))
	})

	It("puts an overlong word on its own line", func() {
		Expect(xstrings.WrapLines("a supercalifragilisticexpialidocious b", 10)).
			To(Equal([]string{"a", "supercalifragilisticexpialidocious", "b"}))
	})

	It("counts runes, not bytes", func() {
		Expect(xstrings.WrapLines("héllo wörld", 11)).To(Equal([]string{"héllo wörld"}))
	})

	It("returns a single empty line for empty text", func() {
		Expect(xstrings.WrapLines("", 10)).To(Equal([]string{""}))
	})

	It("only splits on line breaks without a width", func() {
		Expect(xstrings.WrapLines("a b\nc", 0)).To(Equal([]string{"a b", "c"}))
	})
})

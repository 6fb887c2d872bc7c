package xstrings_test

import (
	xtrings "github.com/anemonelab/agenthub/pkg/xstrings"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UniqueSlice", func() {
	It("keeps the first occurrence in order", func() {
		Expect(xtrings.UniqueSlice([]string{"b", "a", "b", "c", "a"})).To(Equal([]string{"b", "a", "c"}))
	})

	It("returns an empty slice for nil", func() {
		Expect(xtrings.UniqueSlice[string](nil)).To(BeEmpty())
	})
})

var _ = Describe("UniqueBy", func() {
	type item struct{ id, name string }

	It("compares by key", func() {
		in := []item{{"1", "first"}, {"2", "second"}, {"1", "again"}}
		out := xtrings.UniqueBy(in, func(i item) string { return i.id })
		Expect(out).To(Equal([]item{{"1", "first"}, {"2", "second"}}))
	})
})

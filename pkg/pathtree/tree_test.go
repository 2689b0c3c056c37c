package pathtree_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sequencer/pkg/pathtree"
	"github.com/papercomputeco/sequencer/pkg/storage"
	"github.com/papercomputeco/sequencer/pkg/storage/inmemory"
)

// flakyDriver fails every operation on keys listed in failOn.
type flakyDriver struct {
	storage.Driver
	failOn map[string]bool
}

var errDisk = errors.New("disk on fire")

func (f *flakyDriver) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failOn[key] {
		return nil, errDisk
	}
	return f.Driver.Get(ctx, key)
}

func (f *flakyDriver) Put(ctx context.Context, key string, record []byte) error {
	if f.failOn[key] {
		return errDisk
	}
	return f.Driver.Put(ctx, key, record)
}

var _ = Describe("Tree", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
		tree   *pathtree.Tree
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		tree = pathtree.New(driver)
	})

	AfterEach(func() {
		driver.Close()
	})

	mustWrite := func(path string, value string) {
		_, err := tree.Write(ctx, path, []byte(value))
		Expect(err).NotTo(HaveOccurred())
	}

	subkeys := func(path string) []string {
		keys, err := tree.Subkeys(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		return keys
	}

	Describe("Write and Read", func() {
		It("round-trips a value", func() {
			out, err := tree.Write(ctx, "/path", []byte{0x01, 0x02, 0x03, 0x04})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))

			value, ok, err := tree.Read(ctx, "/path")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))
		})

		It("distinguishes an empty value from no value", func() {
			mustWrite("/empty", "")

			value, ok, err := tree.Read(ctx, "/empty")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(value).To(BeEmpty())

			_, ok, err = tree.Read(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("overwrites previous values", func() {
			mustWrite("/counter", "one")
			mustWrite("/counter", "two")

			value, _, err := tree.Read(ctx, "/counter")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(value)).To(Equal("two"))
		})

		It("reports absence for unknown paths", func() {
			value, ok, err := tree.Read(ctx, "/foo")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(value).To(BeNil())
		})

		It("can store a value at the root", func() {
			mustWrite("/", "root")
			value, ok, err := tree.Read(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("root"))
		})

		It("keeps the children of an overwritten node", func() {
			mustWrite("/a/b", "leaf")
			mustWrite("/a", "dir with value")

			Expect(subkeys("/a")).To(Equal([]string{"b"}))
		})

		It("rejects invalid paths", func() {
			for _, p := range []string{"", "a/b", "/a/", "/a//b", "/\xff"} {
				_, err := tree.Write(ctx, p, []byte("x"))
				Expect(err).To(MatchError(pathtree.ErrInvalidPath), fmt.Sprintf("path %q", p))
			}
		})
	})

	Describe("Subkeys", func() {
		It("materializes every ancestor", func() {
			mustWrite("/a/b/c", "v")

			Expect(subkeys("/")).To(ContainElement("a"))
			Expect(subkeys("/a")).To(ContainElement("b"))
			Expect(subkeys("/a/b")).To(ContainElement("c"))
			Expect(subkeys("/a/b/c")).To(BeEmpty())
		})

		It("never lists a child twice", func() {
			mustWrite("/a/b", "1")
			mustWrite("/a/b", "2")
			mustWrite("/a/b/c", "3")
			mustWrite("/a/b/c", "4")

			Expect(subkeys("/a")).To(Equal([]string{"b"}))
			Expect(subkeys("/a/b")).To(Equal([]string{"c"}))
			Expect(subkeys("/")).To(Equal([]string{"a"}))
		})

		It("keeps insertion order", func() {
			mustWrite("/players/zed", "1")
			mustWrite("/players/alice", "2")
			mustWrite("/players/mike", "3")

			Expect(subkeys("/players")).To(Equal([]string{"zed", "alice", "mike"}))
		})

		It("returns an empty list for untouched paths", func() {
			keys := subkeys("/foo")
			Expect(keys).NotTo(BeNil())
			Expect(keys).To(BeEmpty())
		})
	})

	Describe("Has", func() {
		It("reports the kind of node", func() {
			mustWrite("/a/b", "v")
			mustWrite("/a", "v")
			mustWrite("/x/y", "v")

			Expect(tree.Has(ctx, "/a")).To(Equal(pathtree.ValueTypeValueWithSubtree))
			Expect(tree.Has(ctx, "/a/b")).To(Equal(pathtree.ValueTypeValue))
			Expect(tree.Has(ctx, "/x")).To(Equal(pathtree.ValueTypeSubtree))
			Expect(tree.Has(ctx, "/nope")).To(Equal(pathtree.ValueTypeNone))
		})
	})

	Describe("Delete", func() {
		It("cascades to every descendant", func() {
			mustWrite("/a/b", "1")
			mustWrite("/a/c", "2")
			mustWrite("/a/c/d/e", "3")

			Expect(tree.Delete(ctx, "/a")).To(Succeed())

			for _, p := range []string{"/a", "/a/b", "/a/c", "/a/c/d", "/a/c/d/e"} {
				_, ok, err := tree.Read(ctx, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse(), p)
				_, err = driver.Get(ctx, p)
				Expect(err).To(MatchError(storage.ErrNotFound), p)
			}
			Expect(subkeys("/a")).To(BeEmpty())
			Expect(subkeys("/")).NotTo(ContainElement("a"))
		})

		It("unlinks from the parent and prunes empty ancestors", func() {
			mustWrite("/a/b/c", "1")
			mustWrite("/keep", "1")

			Expect(tree.Delete(ctx, "/a/b/c")).To(Succeed())

			Expect(subkeys("/")).To(Equal([]string{"keep"}))
			_, err := driver.Get(ctx, "/a/b")
			Expect(err).To(MatchError(storage.ErrNotFound))
			_, err = driver.Get(ctx, "/a")
			Expect(err).To(MatchError(storage.ErrNotFound))
		})

		It("keeps ancestors that still carry a value", func() {
			mustWrite("/a", "value")
			mustWrite("/a/b", "1")

			Expect(tree.Delete(ctx, "/a/b")).To(Succeed())

			Expect(tree.Has(ctx, "/a")).To(Equal(pathtree.ValueTypeValue))
			Expect(subkeys("/")).To(Equal([]string{"a"}))
		})

		It("is a no-op for absent paths", func() {
			mustWrite("/a", "1")
			Expect(tree.Delete(ctx, "/missing/deep")).To(Succeed())
			Expect(subkeys("/")).To(Equal([]string{"a"}))
		})

		It("discards the whole tree when deleting the root", func() {
			mustWrite("/a/b", "1")
			mustWrite("/c", "2")

			Expect(tree.Delete(ctx, "/")).To(Succeed())

			Expect(subkeys("/")).To(BeEmpty())
			_, ok, _ := tree.Read(ctx, "/c")
			Expect(ok).To(BeFalse())
		})

		It("handles very deep paths without recursion", func() {
			var b strings.Builder
			for i := 0; i < 2000; i++ {
				b.WriteString("/d")
			}
			deep := b.String()
			mustWrite(deep, "bottom")

			Expect(tree.Delete(ctx, "/d")).To(Succeed())
			_, ok, err := tree.Read(ctx, deep)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Copy and Move", func() {
		BeforeEach(func() {
			mustWrite("/src", "root")
			mustWrite("/src/x", "1")
			mustWrite("/src/y/z", "2")
		})

		It("copies value and full subtree", func() {
			Expect(tree.Copy(ctx, "/src", "/dst/inner")).To(Succeed())

			value, ok, err := tree.Read(ctx, "/dst/inner/y/z")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("2"))
			Expect(subkeys("/dst/inner")).To(Equal(subkeys("/src")))
			Expect(subkeys("/")).To(Equal([]string{"src", "dst"}))

			srcHash, err := tree.Hash(ctx, "/src")
			Expect(err).NotTo(HaveOccurred())
			dstHash, err := tree.Hash(ctx, "/dst/inner")
			Expect(err).NotTo(HaveOccurred())
			Expect(dstHash).To(Equal(srcHash))
		})

		It("replaces what was at the destination", func() {
			mustWrite("/dst/stale", "old")
			Expect(tree.Copy(ctx, "/src", "/dst")).To(Succeed())

			Expect(subkeys("/dst")).To(Equal([]string{"x", "y"}))
			_, ok, _ := tree.Read(ctx, "/dst/stale")
			Expect(ok).To(BeFalse())
		})

		It("leaves the source intact on copy", func() {
			Expect(tree.Copy(ctx, "/src", "/dst")).To(Succeed())
			value, ok, _ := tree.Read(ctx, "/src/x")
			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("1"))
		})

		It("removes the source on move", func() {
			Expect(tree.Move(ctx, "/src", "/moved")).To(Succeed())

			Expect(subkeys("/")).To(Equal([]string{"moved"}))
			value, ok, _ := tree.Read(ctx, "/moved/y/z")
			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("2"))
		})

		It("rejects overlapping paths", func() {
			Expect(tree.Copy(ctx, "/src", "/src/x/inner")).To(MatchError(pathtree.ErrOverlappingPaths))
			Expect(tree.Move(ctx, "/src/x", "/src")).To(MatchError(pathtree.ErrOverlappingPaths))
		})

		It("fails when the source is absent", func() {
			Expect(tree.Copy(ctx, "/nothing", "/dst")).To(MatchError(pathtree.ErrNotFound))
		})
	})

	Describe("Hash", func() {
		It("is deterministic across trees with the same content", func() {
			other := pathtree.New(inmemory.NewDriver())
			for _, t := range []*pathtree.Tree{tree, other} {
				_, err := t.Write(ctx, "/a/b", []byte("1"))
				Expect(err).NotTo(HaveOccurred())
				_, err = t.Write(ctx, "/a/c", []byte("2"))
				Expect(err).NotTo(HaveOccurred())
			}

			h1, err := tree.Hash(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			h2, err := other.Hash(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(h1).To(Equal(h2))
			Expect(h1).To(HaveLen(64))
		})

		It("changes when a nested value changes", func() {
			mustWrite("/a/b", "1")
			before, _ := tree.Hash(ctx, "/")
			mustWrite("/a/b", "2")
			after, _ := tree.Hash(ctx, "/")
			Expect(after).NotTo(Equal(before))
		})

		It("hashes an absent path like an empty tree", func() {
			empty, err := tree.Hash(ctx, "/")
			Expect(err).NotTo(HaveOccurred())
			missing, err := tree.Hash(ctx, "/missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(missing).To(Equal(empty))
		})
	})

	Describe("driver failures", func() {
		It("reports i/o failures instead of swallowing them", func() {
			flaky := &flakyDriver{Driver: driver, failOn: map[string]bool{"/a": true}}
			broken := pathtree.New(flaky)

			_, err := broken.Write(ctx, "/a/b", []byte("x"))
			Expect(err).To(MatchError(pathtree.ErrIO))
			Expect(errors.Is(err, errDisk)).To(BeTrue())

			_, _, err = broken.Read(ctx, "/a")
			Expect(err).To(MatchError(pathtree.ErrIO))
		})

		It("reports undecodable records as encoding failures", func() {
			Expect(driver.Put(ctx, "/garbage", []byte{0xff, 0x00, 0x13})).To(Succeed())

			_, _, err := tree.Read(ctx, "/garbage")
			Expect(err).To(MatchError(pathtree.ErrEncoding))
		})
	})
})

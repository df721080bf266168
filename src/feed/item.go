package feed

import (
	"sort"
	"time"

	"github.com/openherd/openherd/src/post"
)

// Item is one displayable post.
type Item struct {
	Envelope *post.Envelope
	Post     *post.PostData
	// Verified is advisory; unverified posts are still displayed.
	Verified bool
	// Pending marks a post that has not reached any node yet.
	Pending bool
}

// ID ...
func (i *Item) ID() string {
	return i.Envelope.ID
}

// Date ...
func (i *Item) Date() time.Time {
	return i.Post.Date
}

// Feed is an ordered list of items.
type Feed struct {
	Items []*Item
}

// Len ...
func (f *Feed) Len() int {
	return len(f.Items)
}

// RootPosts returns the items without a parent, in feed order.
func (f *Feed) RootPosts() []*Item {
	res := []*Item{}
	for _, i := range f.Items {
		if !i.Post.IsReply() {
			res = append(res, i)
		}
	}
	return res
}

// RepliesOf returns the items whose parent is exactly id, in feed order.
func (f *Feed) RepliesOf(id string) []*Item {
	res := []*Item{}
	for _, i := range f.Items {
		if i.Post.IsReply() && i.Post.ParentID() == id {
			res = append(res, i)
		}
	}
	return res
}

// Thread returns the item with the given id followed by all its descendants,
// depth first, children in feed order. It returns nil if id is not in the
// feed.
func (f *Feed) Thread(id string) []*Item {
	var root *Item
	children := make(map[string][]*Item)
	for _, i := range f.Items {
		if i.ID() == id {
			root = i
		}
		if i.Post.IsReply() {
			children[i.Post.ParentID()] = append(children[i.Post.ParentID()], i)
		}
	}

	if root == nil {
		return nil
	}

	res := []*Item{}
	visited := make(map[string]bool)
	var walk func(i *Item)
	walk = func(i *Item) {
		if visited[i.ID()] {
			return
		}
		visited[i.ID()] = true
		res = append(res, i)
		for _, c := range children[i.ID()] {
			walk(c)
		}
	}
	walk(root)

	return res
}

// SortByDate sorts items by date, newest first. Items with equal dates keep
// their relative order.
func SortByDate(items []*Item) []*Item {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Date().After(items[b].Date())
	})
	return items
}

// Dedup keeps the first item for every id.
func Dedup(items []*Item) []*Item {
	seen := make(map[string]struct{}, len(items))
	res := make([]*Item, 0, len(items))
	for _, i := range items {
		if _, ok := seen[i.ID()]; ok {
			continue
		}
		seen[i.ID()] = struct{}{}
		res = append(res, i)
	}
	return res
}

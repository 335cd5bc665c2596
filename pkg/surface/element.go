package surface

import (
	"slices"
	"strings"
)

type attr struct {
	name, value string
}

// Element is a node of the retained render tree. Elements are created through
// [Element.Append] (or [NewElement] for detached roots) and stay the same
// pointer for their whole lifetime, which is what makes them usable as render
// handles across reconciliation passes.
type Element struct {
	tag      string
	attrs    []attr
	text     string
	children []*Element
	parent   *Element
}

// NewElement creates a detached element.
func NewElement(tag string) *Element {
	return &Element{tag: tag}
}

// Tag returns the element name, e.g. "g" or "path".
func (e *Element) Tag() string { return e.tag }

// Parent returns the parent element, or nil when e is a root or detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element { return slices.Clone(e.children) }

// Append creates a new child element at the end of e's children.
func (e *Element) Append(tag string) *Element {
	c := &Element{tag: tag, parent: e}
	e.children = append(e.children, c)
	return c
}

// Remove detaches e from its parent. Removing a detached element is a no-op.
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

// Clear removes all children of e.
func (e *Element) Clear() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
}

// SetAttr sets an attribute, keeping the position of an existing one.
// It returns e for chaining.
func (e *Element) SetAttr(name, value string) *Element {
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs[i].value = value
			return e
		}
	}
	e.attrs = append(e.attrs, attr{name, value})
	return e
}

// Attr returns the value of an attribute, or "" when it is not set.
func (e *Element) Attr(name string) string {
	v, _ := e.LookupAttr(name)
	return v
}

// LookupAttr returns the value of an attribute and whether it is set.
func (e *Element) LookupAttr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) *Element {
	e.attrs = slices.DeleteFunc(e.attrs, func(a attr) bool { return a.name == name })
	return e
}

// SetText sets the character data of e.
func (e *Element) SetText(s string) *Element {
	e.text = s
	return e
}

// Text returns the character data of e.
func (e *Element) Text() string { return e.text }

// Classes returns the space-separated entries of the class attribute.
func (e *Element) Classes() []string {
	return strings.Fields(e.Attr("class"))
}

// HasClass reports whether class is present on e.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

// Classed adds or removes each of the space-separated classes.
func (e *Element) Classed(classes string, on bool) *Element {
	cur := e.Classes()
	for _, c := range strings.Fields(classes) {
		has := slices.Contains(cur, c)
		switch {
		case on && !has:
			cur = append(cur, c)
		case !on && has:
			cur = slices.DeleteFunc(cur, func(x string) bool { return x == c })
		}
	}
	if len(cur) == 0 {
		return e.RemoveAttr("class")
	}
	return e.SetAttr("class", strings.Join(cur, " "))
}

// SelectAll returns all descendants of e (not e itself) with the given tag
// that carry every one of the space-separated classes, in document order.
// An empty tag matches any element.
func (e *Element) SelectAll(tag, classes string) []*Element {
	want := strings.Fields(classes)
	var out []*Element
	var walk func(n *Element)
	walk = func(n *Element) {
		for _, c := range n.children {
			if (tag == "" || c.tag == tag) && hasAll(c, want) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// Select returns the first match of [Element.SelectAll], or nil.
func (e *Element) Select(tag, classes string) *Element {
	if all := e.SelectAll(tag, classes); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Count returns the number of elements in the subtree rooted at e, including e.
func (e *Element) Count() int {
	n := 1
	for _, c := range e.children {
		n += c.Count()
	}
	return n
}

func hasAll(e *Element, classes []string) bool {
	if len(classes) == 0 {
		return true
	}
	have := e.Classes()
	for _, c := range classes {
		if !slices.Contains(have, c) {
			return false
		}
	}
	return true
}

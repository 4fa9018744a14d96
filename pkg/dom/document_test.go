package dom

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func TestCreate(t *testing.T) {
	doc := NewDocument()
	v := vdom.Div(vdom.ID("x"), vdom.Span("hi"), vdom.Button(vdom.OnClick(func() {}), "go"))

	n, err := doc.Create(v)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !vdom.Equal(n.Snapshot(), v) {
		t.Errorf("Snapshot() = %v, want %v", n.Snapshot(), v)
	}
	if n.Parent() != nil {
		t.Error("created root has a parent")
	}
	span := n.ChildNodes()[0]
	if span.Parent() != n {
		t.Error("child parent not set")
	}
	if got := span.ChildNodes()[0].Text(); got != "hi" {
		t.Errorf("text = %q, want hi", got)
	}
	if got := doc.ListenerCount(); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1", got)
	}
}

func TestCreateInvalid(t *testing.T) {
	doc := NewDocument()
	tests := []struct {
		name string
		v    *vdom.VNode
	}{
		{"nil", nil},
		{"unknown kind", &vdom.VNode{Kind: 9}},
		{"nil child", &vdom.VNode{Kind: vdom.KindElement, Tag: "div", Children: []*vdom.VNode{nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := doc.Create(tt.v); !errors.Is(err, ErrInvalidVNode) {
				t.Errorf("Create() error = %v, want ErrInvalidVNode", err)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	doc := NewDocument()
	n, _ := doc.Create(vdom.Div())

	if err := doc.SetAttribute(n, "id", "a"); err != nil {
		t.Fatalf("SetAttribute() error = %v", err)
	}
	if v, ok := n.Attr("id"); !ok || v != "a" {
		t.Errorf("Attr(id) = %q, %v, want a, true", v, ok)
	}
	if err := doc.RemoveAttribute(n, "id"); err != nil {
		t.Fatalf("RemoveAttribute() error = %v", err)
	}
	if _, ok := n.Attr("id"); ok {
		t.Error("attribute still present after removal")
	}
	if err := doc.RemoveAttribute(n, "missing"); err != nil {
		t.Errorf("RemoveAttribute(missing) error = %v", err)
	}

	text, _ := doc.Create(vdom.Text("t"))
	if err := doc.SetAttribute(text, "id", "a"); !errors.Is(err, ErrNotElement) {
		t.Errorf("SetAttribute(text) error = %v, want ErrNotElement", err)
	}
	if err := doc.SetText(n, "x"); !errors.Is(err, ErrNotText) {
		t.Errorf("SetText(element) error = %v, want ErrNotText", err)
	}
}

func TestChildren(t *testing.T) {
	doc := NewDocument()
	parent, _ := doc.Create(vdom.Ul(vdom.Li("a")))
	b, _ := doc.Create(vdom.Li("b"))

	if err := doc.AppendChild(parent, b); err != nil {
		t.Fatalf("AppendChild() error = %v", err)
	}
	if err := doc.AppendChild(parent, b); !errors.Is(err, ErrHasParent) {
		t.Errorf("AppendChild(attached) error = %v, want ErrHasParent", err)
	}

	c, _ := doc.Create(vdom.Li("c"))
	if err := doc.ReplaceChild(parent, 0, c); err != nil {
		t.Fatalf("ReplaceChild() error = %v", err)
	}
	want := vdom.Ul(vdom.Li("c"), vdom.Li("b"))
	if !vdom.Equal(parent.Snapshot(), want) {
		t.Errorf("Snapshot() = %v, want %v", parent.Snapshot(), want)
	}

	d, _ := doc.Create(vdom.Li("d"))
	if err := doc.ReplaceChild(parent, 5, d); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReplaceChild(5) error = %v, want ErrOutOfRange", err)
	}

	if err := doc.TruncateChildren(parent, 10); err != nil {
		t.Errorf("TruncateChildren(10) error = %v", err)
	}
	if err := doc.TruncateChildren(parent, 1); err != nil {
		t.Fatalf("TruncateChildren(1) error = %v", err)
	}
	if got := len(doc.Children(parent)); got != 1 {
		t.Errorf("len(Children) = %d, want 1", got)
	}
	if b.Parent() != nil {
		t.Error("truncated child still has a parent")
	}
	if err := doc.TruncateChildren(parent, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("TruncateChildren(-1) error = %v, want ErrOutOfRange", err)
	}
}

func TestDispatchAndRelease(t *testing.T) {
	doc := NewDocument()
	var got []string
	v := vdom.Div(
		vdom.Button(vdom.OnClick(func() { got = append(got, "a") })),
		vdom.Button(vdom.OnClick(func() { got = append(got, "b") }), vdom.OnFocus(func() {})),
	)
	root, _ := doc.Create(v)
	a, b := root.ChildNodes()[0], root.ChildNodes()[1]

	if !doc.Dispatch(a, "onclick") || !doc.Dispatch(b, "onclick") {
		t.Fatal("Dispatch() = false for bound listener")
	}
	if doc.Dispatch(a, "onfocus") {
		t.Error("Dispatch() = true for unbound event")
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("calls = %v, want [a b]", got)
	}

	doc.Release(root)
	if doc.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d after Release, want 0", doc.ListenerCount())
	}
}

func TestFailInjection(t *testing.T) {
	errInjected := errors.New("injected")
	doc := NewDocument()
	n, _ := doc.Create(vdom.Div())
	doc.Fail = func(op Op, _ *Node) error {
		if op == OpSetAttribute {
			return errInjected
		}
		return nil
	}

	err := doc.SetAttribute(n, "id", "x")
	if !errors.Is(err, errInjected) {
		t.Fatalf("SetAttribute() error = %v, want injected", err)
	}
	if _, ok := n.Attr("id"); ok {
		t.Error("attribute set despite injected failure")
	}
	if err := doc.RemoveAttribute(n, "id"); err != nil {
		t.Errorf("RemoveAttribute() error = %v", err)
	}
}

func TestOuterHTML(t *testing.T) {
	doc := NewDocument()
	n, _ := doc.Create(vdom.P(vdom.Class("x"), "a < b", vdom.Br()))
	want := `<p class="x">a &lt; b<br></p>`
	if got := n.OuterHTML(); got != want {
		t.Errorf("OuterHTML() = %v, want %v", got, want)
	}
}

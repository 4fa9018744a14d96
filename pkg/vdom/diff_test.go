package vdom

import (
	"reflect"
	"testing"
)

func assertPatches(t *testing.T, got, want []Patch) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d patches %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !patchEqual(got[i], want[i]) {
			t.Errorf("patch %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func patchEqual(a, b Patch) bool {
	if a.Op != b.Op || a.Index != b.Index || a.Len != b.Len || a.Text != b.Text {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) || (len(a.Attrs) > 0 && !reflect.DeepEqual(a.Attrs, b.Attrs)) {
		return false
	}
	if len(a.Keys) != len(b.Keys) || (len(a.Keys) > 0 && !reflect.DeepEqual(a.Keys, b.Keys)) {
		return false
	}
	if len(a.Nodes) != len(b.Nodes) {
		return false
	}
	for i := range a.Nodes {
		if !Equal(a.Nodes[i], b.Nodes[i]) {
			return false
		}
	}
	return Equal(a.Node, b.Node)
}

func TestDiffIdentical(t *testing.T) {
	trees := []*VNode{
		Text("hello"),
		Div(),
		Div(ID("a"), Class("x"), Span("one"), Ul(Li("1"), Li("2"))),
	}
	for _, tree := range trees {
		if patches := Diff(tree, tree.Clone()); len(patches) != 0 {
			t.Errorf("Diff(%v, clone) = %v, want none", tree, patches)
		}
	}
}

func TestDiffNil(t *testing.T) {
	if patches := Diff(nil, Div()); patches != nil {
		t.Errorf("Diff(nil, div) = %v, want nil", patches)
	}
	if patches := Diff(Div(), nil); patches != nil {
		t.Errorf("Diff(div, nil) = %v, want nil", patches)
	}
}

func TestDiffReplace(t *testing.T) {
	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []Patch
	}{
		{
			name: "root tag changed",
			prev: Div(),
			next: Span(),
			want: []Patch{Replace(0, Span())},
		},
		{
			name: "child tag changed",
			prev: Div(B()),
			next: Div(Strong()),
			want: []Patch{Replace(1, Strong())},
		},
		{
			name: "replaced subtree still consumes its indices",
			prev: Div(B("1"), B()),
			next: Div(I("1"), I()),
			want: []Patch{Replace(1, I("1")), Replace(3, I())},
		},
		{
			name: "text to element",
			prev: Div(Text("hi")),
			next: Div(Span("hi")),
			want: []Patch{Replace(1, Span("hi"))},
		},
		{
			name: "element to text at root",
			prev: Div(P("x")),
			next: Text("x"),
			want: []Patch{Replace(0, Text("x"))},
		},
		{
			name: "no recursion into replacement",
			prev: Div(Ul(Li("a"), Li("b")), P("after")),
			next: Div(Ol(Li("a")), P("later")),
			want: []Patch{Replace(1, Ol(Li("a"))), ChangeText(7, "later")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPatches(t, Diff(tt.prev, tt.next), tt.want)
		})
	}
}

func TestDiffText(t *testing.T) {
	assertPatches(t, Diff(Text("Old"), Text("New")), []Patch{ChangeText(0, "New")})
	assertPatches(t, Diff(Text("Same"), Text("Same")), nil)
	assertPatches(t, Diff(Div(P("a"), P("b")), Div(P("a"), P("c"))), []Patch{ChangeText(4, "c")})
}

func TestDiffAttributes(t *testing.T) {
	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []Patch
	}{
		{
			name: "added",
			prev: Div(),
			next: Div(ID("hello")),
			want: []Patch{AddAttributes(0, map[string]string{"id": "hello"})},
		},
		{
			name: "changed value only in add set",
			prev: Div(ID("a")),
			next: Div(ID("b")),
			want: []Patch{AddAttributes(0, map[string]string{"id": "b"})},
		},
		{
			name: "removed",
			prev: Div(ID("hey-there")),
			next: Div(),
			want: []Patch{RemoveAttributes(0, "id")},
		},
		{
			name: "add before remove",
			prev: Div(Class("old"), ID("test"), Data("k", "v")),
			next: Div(Class("new"), TitleAttr("hello"), Data("k", "v")),
			want: []Patch{
				AddAttributes(0, map[string]string{"class": "new", "title": "hello"}),
				RemoveAttributes(0, "id"),
			},
		},
		{
			name: "remove keys sorted",
			prev: Div(Attribute("z", "1"), Attribute("a", "1"), Attribute("m", "1")),
			next: Div(),
			want: []Patch{RemoveAttributes(0, "a", "m", "z")},
		},
		{
			name: "empty value is a value",
			prev: Input(Attribute("disabled", "")),
			next: Input(Attribute("disabled", "disabled")),
			want: []Patch{AddAttributes(0, map[string]string{"disabled": "disabled"})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPatches(t, Diff(tt.prev, tt.next), tt.want)
		})
	}
}

func TestDiffEventHandlersIgnored(t *testing.T) {
	prev := Button(OnClick(func() {}), "Go")
	next := Button(OnClick(func() {}), OnBlur(func() {}), "Go")
	assertPatches(t, Diff(prev, next), nil)
}

func TestDiffChildren(t *testing.T) {
	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []Patch
	}{
		{
			name: "append",
			prev: Div(B()),
			next: Div(B(), I()),
			want: []Patch{AppendChildren(0, I())},
		},
		{
			name: "append many to empty",
			prev: Ul(),
			next: Ul(Li("1"), Li("2")),
			want: []Patch{AppendChildren(0, Li("1"), Li("2"))},
		},
		{
			name: "truncate all",
			prev: Div(B(), I()),
			next: Div(),
			want: []Patch{TruncateChildren(0, 0)},
		},
		{
			name: "truncate child and grandchild",
			prev: Div(Span(B(), I()), Strong()),
			next: Div(Span(B())),
			want: []Patch{TruncateChildren(0, 1), TruncateChildren(1, 1)},
		},
		{
			name: "truncate then replace later sibling",
			prev: Div(B(I(), I()), B()),
			next: Div(B(I()), I()),
			want: []Patch{TruncateChildren(1, 1), Replace(4, I())},
		},
		{
			name: "ordering within one node",
			prev: Div(ID("x"), Class("c"), P("a")),
			next: Div(ID("y"), P("b"), P("c")),
			want: []Patch{
				AddAttributes(0, map[string]string{"id": "y"}),
				RemoveAttributes(0, "class"),
				AppendChildren(0, P("c")),
				ChangeText(2, "b"),
			},
		},
		{
			name: "middle insertion is positional",
			prev: Ul(Li("a"), Li("c")),
			next: Ul(Li("a"), Li("b"), Li("c")),
			want: []Patch{AppendChildren(0, Li("c")), ChangeText(4, "b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPatches(t, Diff(tt.prev, tt.next), tt.want)
		})
	}
}

func TestDiffDeterministic(t *testing.T) {
	prev := Div(Attribute("a", "1"), Attribute("b", "2"), Attribute("c", "3"), Span("x"), P(I()))
	next := Div(Attribute("d", "4"), Span("y"))
	first := Diff(prev, next)
	for i := 0; i < 20; i++ {
		assertPatches(t, Diff(prev, next), first)
		if got := Diff(prev, next)[1].Keys; !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
			t.Fatalf("Keys = %v, want sorted", got)
		}
	}
}

func TestDiffIndicesInRange(t *testing.T) {
	prev := Div(
		Header(H1("Title"), Nav(A(Href("/"), "Home"), A(Href("/x"), "X"))),
		Main(P("one"), P("two"), Ul(Li("a"), Li("b"), Li("c"))),
		Footer("bye"),
	)
	nexts := []*VNode{
		Div(),
		Div(Header(H2("Title")), Main(P("uno")), Footer("bye"), Footer("again")),
		Span(),
		Div(Header(H1("Title"), Nav()), Section(), Footer(B("bye"))),
	}
	count := Count(prev)
	for _, next := range nexts {
		for _, p := range Diff(prev, next) {
			if p.Index < 0 || p.Index >= count {
				t.Errorf("patch %v index out of range [0, %d)", p, count)
			}
		}
	}
}

func TestPatchOpString(t *testing.T) {
	tests := []struct {
		op   PatchOp
		want string
	}{
		{PatchAddAttributes, "AddAttributes"},
		{PatchRemoveAttributes, "RemoveAttributes"},
		{PatchAppendChildren, "AppendChildren"},
		{PatchTruncateChildren, "TruncateChildren"},
		{PatchReplace, "Replace"},
		{PatchChangeText, "ChangeText"},
		{PatchOp(0), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("PatchOp(%d).String() = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestPatchString(t *testing.T) {
	tests := []struct {
		patch Patch
		want  string
	}{
		{AddAttributes(0, map[string]string{"id": "b", "class": "x"}), `AddAttributes(0, {class="x", id="b"})`},
		{RemoveAttributes(2, "id"), "RemoveAttributes(2, [id])"},
		{AppendChildren(0, I(), Text("t")), "AppendChildren(0, [<i></i>, t])"},
		{TruncateChildren(1, 0), "TruncateChildren(1, 0)"},
		{Replace(3, B("1")), "Replace(3, <b>1</b>)"},
		{ChangeText(0, "New"), `ChangeText(0, "New")`},
	}
	for _, tt := range tests {
		if got := tt.patch.String(); got != tt.want {
			t.Errorf("String() = %v, want %v", got, tt.want)
		}
	}
}

func TestIndices(t *testing.T) {
	patches := []Patch{Replace(3, B()), AddAttributes(0, nil), RemoveAttributes(0, "x"), ChangeText(2, "")}
	if got, want := Indices(patches), []int{0, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Indices() = %v, want %v", got, want)
	}
}

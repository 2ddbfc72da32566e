package layers

import "testing"

func TestRewriteRelative(t *testing.T) {
	root := &Layer{Identifier: "/ws/root.yaml"}
	sibling := &Layer{Identifier: "/ws/other.yaml"}
	nested := &Layer{Identifier: "/ws/sub/nested.yaml"}
	elsewhere := &Layer{Identifier: "/data/scenes/scene.yaml"}
	anon := &Layer{Identifier: "anon:abc", Anonymous: true}

	tests := []struct {
		name      string
		path      string
		oldParent *Layer
		newParent *Layer
		want      string
	}{
		{
			name:      "same directory unchanged",
			path:      "a.yaml",
			oldParent: root,
			newParent: sibling,
			want:      "a.yaml",
		},
		{
			name:      "absolute path unchanged",
			path:      "/ws/a.yaml",
			oldParent: root,
			newParent: elsewhere,
			want:      "/ws/a.yaml",
		},
		{
			name:      "anonymous reference unchanged",
			path:      "anon:def",
			oldParent: root,
			newParent: elsewhere,
			want:      "anon:def",
		},
		{
			name:      "anonymous old parent unchanged",
			path:      "a.yaml",
			oldParent: anon,
			newParent: root,
			want:      "a.yaml",
		},
		{
			name:      "anonymous new parent unchanged",
			path:      "a.yaml",
			oldParent: root,
			newParent: anon,
			want:      "a.yaml",
		},
		{
			name:      "into subdirectory",
			path:      "sub/b.yaml",
			oldParent: root,
			newParent: nested,
			want:      "b.yaml",
		},
		{
			name:      "out of subdirectory",
			path:      "b.yaml",
			oldParent: nested,
			newParent: root,
			want:      "sub/b.yaml",
		},
		{
			name:      "across directory trees",
			path:      "a.yaml",
			oldParent: root,
			newParent: elsewhere,
			want:      "../../ws/a.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteRelative(tt.path, tt.oldParent, tt.newParent)
			if err != nil {
				t.Fatalf("RewriteRelative() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RewriteRelative(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRewriteRelative_ResolvesToSameFile(t *testing.T) {
	// The rewritten path must point at the same file from the new parent's
	// directory that the original pointed at from the old parent's.
	oldParent := &Layer{Identifier: "/ws/a/parent.yaml"}
	newParent := &Layer{Identifier: "/ws/b/c/parent.yaml"}

	got, err := RewriteRelative("../shared/child.yaml", oldParent, newParent)
	if err != nil {
		t.Fatalf("RewriteRelative() error = %v", err)
	}
	if got != "../../shared/child.yaml" {
		t.Errorf("RewriteRelative() = %q, want %q", got, "../../shared/child.yaml")
	}
}

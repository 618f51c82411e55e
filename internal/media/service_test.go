package media

import "testing"

func TestValidContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"IMAGE/PNG", true},
		{" image/webp ", true},
		{"video/mp4", true},
		{"application/pdf", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidContentType(tt.contentType); got != tt.want {
			t.Errorf("ValidContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("client-1", "post-2", "asset-3", "photo.PNG")
	want := "clients/client-1/posts/post-2/asset-3.PNG"
	if key != want {
		t.Errorf("ObjectKey = %q, want %q", key, want)
	}

	// No extension on the original file name
	key = ObjectKey("c", "p", "a", "raw")
	if key != "clients/c/posts/p/a" {
		t.Errorf("ObjectKey without extension = %q", key)
	}
}

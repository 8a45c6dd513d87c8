package storage

import "testing"

func TestObjectPath(t *testing.T) {
	s := NewSupabaseStorage("abcproject", "anon-key")

	tests := []struct {
		name   string
		bucket string
		url    string
		want   string
		ok     bool
	}{
		{
			name:   "own bucket",
			bucket: "images",
			url:    "https://abcproject.supabase.co/storage/v1/object/public/images/1700000000-abc1234-photo.jpg",
			want:   "1700000000-abc1234-photo.jpg",
			ok:     true,
		},
		{
			name:   "other bucket",
			bucket: "images",
			url:    "https://abcproject.supabase.co/storage/v1/object/public/avatars/u-1/pic.jpg",
			ok:     false,
		},
		{
			name:   "external host",
			bucket: "images",
			url:    "https://placehold.co/600x400?text=No+Image",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ObjectPath(tt.bucket, tt.url)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	s := NewSupabaseStorage("abcproject", "anon-key")

	u := s.PublicURL("images", "1700000000-abc1234-photo.jpg")
	path, ok := s.ObjectPath("images", u)
	if !ok || path != "1700000000-abc1234-photo.jpg" {
		t.Fatalf("round trip failed: %q %v", path, ok)
	}
}

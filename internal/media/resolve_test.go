package media

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolveURLUnchanged(t *testing.T) {
	for _, ref := range []string{
		"http://example.com/a.mp3",
		"https://cdn.example.com/path/b.ogg?x=1",
		"HTTPS://EXAMPLE.COM/C.WAV",
	} {
		if got := ResolveFrom("/base", ref); got != ref {
			t.Errorf("ResolveFrom(%q) = %q, want unchanged", ref, got)
		}
	}
}

func TestResolveNonHTTPSchemeIsPath(t *testing.T) {
	got := ResolveFrom("/base", "ftp://host/file.mp3")
	want := filepath.Join("/base", "ftp://host/file.mp3")
	if got != want {
		t.Errorf("ResolveFrom(ftp) = %q, want %q", got, want)
	}
}

func TestResolveExistingAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "track.wav")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ResolveFrom("/elsewhere", file); got != file {
		t.Errorf("ResolveFrom(existing) = %q, want %q", got, file)
	}
}

func TestResolveMissingAbsolutePathStripsSeparator(t *testing.T) {
	base := t.TempDir()
	got := ResolveFrom(base, "/uploads/missing-track.mp3")
	want := filepath.Join(base, "uploads", "missing-track.mp3")
	if got != want {
		t.Errorf("ResolveFrom(missing abs) = %q, want %q", got, want)
	}
}

func TestResolveMissingAbsolutePathStaysAbsolute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX path layout")
	}
	got := ResolveFrom("/base", "//missing-root/a.mp3")
	if want := "/missing-root/a.mp3"; got != want {
		t.Errorf("ResolveFrom(double separator) = %q, want %q", got, want)
	}
}

func TestResolveRelativePath(t *testing.T) {
	got := ResolveFrom("/srv/app", "media/clip.mp4")
	want := filepath.Join("/srv/app", "media", "clip.mp4")
	if got != want {
		t.Errorf("ResolveFrom(relative) = %q, want %q", got, want)
	}
}

func TestResolveUsesWorkingDirectory(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Resolve("a.mp3"), filepath.Join(cwd, "a.mp3"); got != want {
		t.Errorf("Resolve(relative) = %q, want %q", got, want)
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"http://x", true},
		{"https://x/y", true},
		{"Http://x", true},
		{"httpx://x", false},
		{"/abs/path", false},
		{"rel/path", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.ref); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("<xliff/>\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestBundlesFindsQualifyingDirectories(t *testing.T) {
	root := t.TempDir()
	acme := filepath.Join(root, "src", "AcmeBundle", "Resources", "translations")
	shop := filepath.Join(root, "vendor", "shop", "ShopBundle", "Resources", "translations")

	touch(t, filepath.Join(acme, "messages.fr.xliff"))
	touch(t, filepath.Join(acme, "messages.de.xliff"))
	touch(t, filepath.Join(acme, "validators.fr.xliff"))
	touch(t, filepath.Join(acme, "messages.fr.yml"))
	touch(t, filepath.Join(shop, "messages.en.xliff"))
	// Suffix matches but no messages.*.xliff inside.
	touch(t, filepath.Join(root, "src", "EmptyBundle", "Resources", "translations", "readme.txt"))
	// Files match but the directory suffix does not.
	touch(t, filepath.Join(root, "src", "App", "Resources", "translations", "messages.fr.xliff"))
	touch(t, filepath.Join(root, "src", "AcmeBundle", "Resources", "i18n", "messages.fr.xliff"))

	bundles, skipped, err := Collect(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("Collect() skipped %v, want none", skipped)
	}

	want := []Bundle{
		{
			Name:  "AcmeBundle",
			Dir:   acme,
			Files: []string{filepath.Join(acme, "messages.de.xliff"), filepath.Join(acme, "messages.fr.xliff")},
		},
		{
			Name:  "ShopBundle",
			Dir:   shop,
			Files: []string{filepath.Join(shop, "messages.en.xliff")},
		},
	}
	if !reflect.DeepEqual(bundles, want) {
		t.Fatalf("Collect() = %#v, want %#v", bundles, want)
	}
}

func TestBundlesEmptyTree(t *testing.T) {
	bundles, _, err := Collect(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(bundles) != 0 {
		t.Fatalf("Collect() = %v, want none", bundles)
	}
}

func TestBundlesVisitsEveryDirectoryByDefault(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "node_modules", "x", "AcmeBundle", "Resources", "translations", "messages.fr.xliff"))
	touch(t, filepath.Join(root, ".git", "XBundle", "Resources", "translations", "messages.de.xliff"))

	bundles, _, err := Collect(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	var names []string
	for _, b := range bundles {
		names = append(names, b.Name)
	}
	if want := []string{"XBundle", "AcmeBundle"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestBundlesSkipsConfiguredDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "node_modules", "XBundle", "Resources", "translations", "messages.fr.xliff"))
	touch(t, filepath.Join(root, "src", "AcmeBundle", "Resources", "translations", "messages.fr.xliff"))

	opts := DefaultOptions()
	opts.SkipDirs = []string{"node_modules"}
	bundles, _, err := Collect(root, opts)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(bundles) != 1 || bundles[0].Name != "AcmeBundle" {
		t.Fatalf("Collect() = %v, want only AcmeBundle", bundles)
	}
}

// chmodNone makes dir unreadable for the rest of the test.
func chmodNone(t *testing.T, dir string) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	if err := os.Chmod(dir, 0); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })
}

func TestBundlesContinuesPastUnreadableDirs(t *testing.T) {
	root := t.TempDir()
	acme := filepath.Join(root, "src", "AcmeBundle", "Resources", "translations")
	locked := filepath.Join(root, "src", "LockedBundle", "Resources", "translations")
	private := filepath.Join(root, "private")
	touch(t, filepath.Join(acme, "messages.fr.xliff"))
	touch(t, filepath.Join(locked, "messages.fr.xliff"))
	touch(t, filepath.Join(private, "ZBundle", "Resources", "translations", "messages.fr.xliff"))
	chmodNone(t, locked)
	chmodNone(t, private)

	bundles, skipped, err := Collect(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(bundles) != 1 || bundles[0].Name != "AcmeBundle" {
		t.Fatalf("Collect() = %v, want only AcmeBundle", bundles)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", skipped)
	}

	byPath := map[string]*DirError{}
	for _, de := range skipped {
		byPath[de.Path] = de
	}
	if de := byPath[private]; de == nil || de.Bundle != "" {
		t.Errorf("private dir error = %+v, want unrelated skip", de)
	}
	if de := byPath[locked]; de == nil || de.Bundle != "LockedBundle" {
		t.Errorf("locked dir error = %+v, want bundle LockedBundle", de)
	}
}

func TestBundlesStopsEarly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ABundle", "Resources", "translations", "messages.fr.xliff"))
	touch(t, filepath.Join(root, "BBundle", "Resources", "translations", "messages.fr.xliff"))

	var names []string
	for b, err := range Bundles(root, DefaultOptions()) {
		if err != nil {
			t.Fatalf("Bundles() error: %v", err)
		}
		names = append(names, b.Name)
		break
	}
	if !reflect.DeepEqual(names, []string{"ABundle"}) {
		t.Fatalf("names = %v, want [ABundle]", names)
	}
}

func TestBundlesMissingRoot(t *testing.T) {
	_, _, err := Collect(filepath.Join(t.TempDir(), "missing"), DefaultOptions())
	if err == nil {
		t.Fatal("Collect() on missing root should fail")
	}
}

func TestBundleName(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{filepath.Join("src", "AcmeBundle", "Resources", "translations"), "AcmeBundle"},
		{filepath.Join("AcmeBundle", "Resources", "translations"), "AcmeBundle"},
		{"translations", "translations"},
	}
	for _, tc := range tests {
		if got := BundleName(tc.dir); got != tc.want {
			t.Fatalf("BundleName(%q) = %q, want %q", tc.dir, got, tc.want)
		}
	}
}

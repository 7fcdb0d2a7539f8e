package env

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	got := Merge(
		Vars{"A": "1", "B": "2"},
		Vars{"B": "override", "C": "3"},
		nil,
	)
	want := Vars{"A": "1", "B": "override", "C": "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %v, want %v", got, want)
	}
}

func TestChrootAllowlist(t *testing.T) {
	cases := []struct {
		name string
		vars Vars
		want []string
	}{
		{
			name: "pkg prefix and pin priority pass",
			vars: Vars{
				"PKG_KERNEL":   "6.8",
				"PKG_FIRMWARE": "2024.1",
				"PIN_PRIORITY": "1001",
			},
			want: []string{"PIN_PRIORITY=1001", "PKG_FIRMWARE=2024.1", "PKG_KERNEL=6.8"},
		},
		{
			name: "everything else filtered",
			vars: Vars{
				"PATH":          "/usr/bin",
				"HOME":          "/root",
				"PKGX":          "nope",
				"PIN_PRIORITYX": "nope",
				"SOME_PKG_VAR":  "nope",
			},
			want: []string{},
		},
		{
			name: "empty input",
			vars: Vars{},
			want: []string{},
		},
		{
			name: "mixed",
			vars: Vars{
				"PKG_ZED":      "z",
				"TERM":         "xterm",
				"PIN_PRIORITY": "990",
			},
			want: []string{"PIN_PRIORITY=990", "PKG_ZED=z"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChrootAllowlist(tc.vars)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ChrootAllowlist = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseInlineVars(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    Vars
		wantErr bool
	}{
		{name: "empty", input: "", want: Vars{}},
		{name: "single", input: "PKG_A=1", want: Vars{"PKG_A": "1"}},
		{name: "multiple with spaces", input: " PKG_A=1 , PKG_B=2 ", want: Vars{"PKG_A": "1", "PKG_B": "2"}},
		{name: "value with equals", input: "PKG_A=x=y", want: Vars{"PKG_A": "x=y"}},
		{name: "missing value separator", input: "PKG_A", wantErr: true},
		{name: "empty key", input: "=1", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInlineVars(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInlineVars(%q) returned error: %v", tc.input, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseInlineVars(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pins.env")
	content := "# pinned package versions\nPKG_KERNEL=6.8\nPIN_PRIORITY=\"1001\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("LoadEnvFile returned error: %v", err)
	}
	want := Vars{"PKG_KERNEL": "6.8", "PIN_PRIORITY": "1001"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadEnvFile = %v, want %v", got, want)
	}
}

func TestLoadEnvFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.env"), []byte("PKG_A=1\nPKG_B=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.env"), []byte("PKG_B=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadEnvFiles(dir, []string{"a.env", "b.env", ""})
	if err != nil {
		t.Fatalf("LoadEnvFiles returned error: %v", err)
	}
	want := Vars{"PKG_A": "1", "PKG_B": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadEnvFiles = %v, want %v", got, want)
	}
}

func TestLoadEnvFilesMissingFile(t *testing.T) {
	if _, err := LoadEnvFiles(t.TempDir(), []string{"absent.env"}); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

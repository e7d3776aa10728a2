package version

import (
	"errors"
	"testing"
)

func TestStringConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"FolderPrefix", FolderPrefix, "V"},
		{"OpMatchFolder", OpMatchFolder, "match_folder"},
		{"OpParseMajor", OpParseMajor, "parse_major"},
		{"OpParseMinor", OpParseMinor, "parse_minor"},
		{"OpParsePatch", OpParsePatch, "parse_patch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tt.constant)
			}
		})
	}
}

func TestParseFolder(t *testing.T) {
	tests := []struct {
		name      string
		folder    string
		want      string
		wantMajor uint64
		wantMinor uint64
		wantPatch uint64
		wantOp    string
	}{
		{name: "simple", folder: "V2.0.1", want: "2.0.1", wantMajor: 2, wantMinor: 0, wantPatch: 1},
		{name: "multi digit", folder: "V10.20.300", want: "10.20.300", wantMajor: 10, wantMinor: 20, wantPatch: 300},
		{name: "leading zero kept in string", folder: "V01.0.0", want: "01.0.0", wantMajor: 1},
		{name: "zero version", folder: "V0.0.0", want: "0.0.0"},
		{name: "lowercase marker", folder: "v2.0.1", wantOp: OpMatchFolder},
		{name: "missing marker", folder: "2.0.1", wantOp: OpMatchFolder},
		{name: "two components", folder: "V2.0", wantOp: OpMatchFolder},
		{name: "four components", folder: "V2.0.1.4", wantOp: OpMatchFolder},
		{name: "prerelease suffix", folder: "V2.0.1-beta", wantOp: OpMatchFolder},
		{name: "trailing space", folder: "V2.0.1 ", wantOp: OpMatchFolder},
		{name: "empty", folder: "", wantOp: OpMatchFolder},
		{name: "overflowing major", folder: "V99999999999999999999.0.0", wantOp: OpParseMajor},
		{name: "overflowing patch", folder: "V1.0.99999999999999999999", wantOp: OpParsePatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseFolder(tt.folder)
			if tt.wantOp != "" {
				if err == nil {
					t.Fatalf("ParseFolder(%q) expected error, got %v", tt.folder, v)
				}
				var parseErr ErrParseFailed
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ErrParseFailed, got %T", err)
				}
				if parseErr.Op != tt.wantOp {
					t.Errorf("ParseFolder(%q) op = %s, want %s", tt.folder, parseErr.Op, tt.wantOp)
				}
				if IsFolderName(tt.folder) {
					t.Errorf("IsFolderName(%q) = true, want false", tt.folder)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFolder(%q) unexpected error: %v", tt.folder, err)
			}
			if v.String() != tt.want {
				t.Errorf("String() = %q, want %q", v.String(), tt.want)
			}
			if v.Folder != tt.folder {
				t.Errorf("Folder = %q, want %q", v.Folder, tt.folder)
			}
			if v.Major() != tt.wantMajor || v.Minor() != tt.wantMinor || v.Patch() != tt.wantPatch {
				t.Errorf("components = %d.%d.%d, want %d.%d.%d",
					v.Major(), v.Minor(), v.Patch(), tt.wantMajor, tt.wantMinor, tt.wantPatch)
			}
			if !IsFolderName(tt.folder) {
				t.Errorf("IsFolderName(%q) = false, want true", tt.folder)
			}
		})
	}
}

func TestErrParseFailed(t *testing.T) {
	cause := errors.New("test cause")
	err := ErrParseFailed{Folder: "Vx", Op: OpMatchFolder, Cause: cause}

	expectedMsg := "failed to parse version folder Vx in operation match_folder: test cause"
	if err.Error() != expectedMsg {
		t.Errorf("expected %q, got %q", expectedMsg, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if !err.Is(ErrParseFailed{}) {
		t.Error("expected Is method to work correctly")
	}

	_, parseErr := ParseFolder("release-2")
	if !errors.Is(parseErr, ErrNotVersionFolder) {
		t.Errorf("expected ErrNotVersionFolder, got %v", parseErr)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"V1.0.0", "V1.0.0", 0},
		{"V2.0.0", "V1.9.9", 1},
		{"V1.2.0", "V1.10.0", -1},
		{"V1.0.10", "V1.0.9", 1},
		{"V10.0.0", "V2.0.1", 1},
		{"V01.0.0", "V1.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a := mustParse(t, tt.a)
			b := mustParse(t, tt.b)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortDescending(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "numeric not lexicographic",
			input: []string{"V2.0.1", "V2.0.0", "V10.0.0"},
			want:  []string{"V10.0.0", "V2.0.1", "V2.0.0"},
		},
		{
			name:  "minor and patch",
			input: []string{"V1.0.9", "V1.10.0", "V1.0.10", "V1.2.0"},
			want:  []string{"V1.10.0", "V1.2.0", "V1.0.10", "V1.0.9"},
		},
		{
			name:  "ties keep input order",
			input: []string{"V01.0.0", "V3.0.0", "V1.0.0"},
			want:  []string{"V3.0.0", "V01.0.0", "V1.0.0"},
		},
		{
			name:  "single",
			input: []string{"V0.0.1"},
			want:  []string{"V0.0.1"},
		},
		{
			name:  "empty",
			input: []string{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions := make([]Version, 0, len(tt.input))
			for _, f := range tt.input {
				versions = append(versions, mustParse(t, f))
			}

			SortDescending(versions)

			got := Folders(versions)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d versions, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("position %d = %s, want %s (full order %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func mustParse(t *testing.T, folder string) Version {
	t.Helper()
	v, err := ParseFolder(folder)
	if err != nil {
		t.Fatalf("ParseFolder(%q): %v", folder, err)
	}
	return v
}

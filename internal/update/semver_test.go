package update

import "testing"

func TestCompareSemVer(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.1.0", "2.0.9", 1},
		{"1.2.3", "1.2.4", -1},
		{"10.0.0", "9.0.0", 1},

		// A release outranks any prerelease of the same version.
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0", "1.0.0-rc.1", 1},

		// Prerelease identifier ordering.
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.2", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-1", "1.0.0-alpha", -1},
		{"1.0.0-2", "1.0.0-10", -1},
		{"1.0.0-alpha.beta", "1.0.0-beta", -1},
		{"1.0.0-beta.11", "1.0.0-rc.1", -1},

		// Build metadata never affects precedence.
		{"1.0.0+build", "1.0.0", 0},
		{"1.0.0+a", "1.0.0+b", 0},
		{"1.0.0-alpha+001", "1.0.0-alpha", 0},

		// Leading v and whitespace tolerated.
		{"v1.2.3", "1.2.3", 0},
		{" 1.0.0 ", "1.0.0", 0},

		// Malformed versions compare as 0.0.0.
		{"garbage", "0.0.0", 0},
		{"1.2", "0.0.0", 0},
		{"garbage", "0.0.1", -1},
	}

	for _, tt := range tests {
		if got := CompareSemVer(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareSemVer(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		// Comparison must be antisymmetric.
		if got := CompareSemVer(tt.b, tt.a); got != -tt.want {
			t.Errorf("CompareSemVer(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestIsValidSemVer(t *testing.T) {
	valid := []string{"0.0.0", "1.2.3", "v1.2.3", "1.0.0-alpha.1", "1.0.0+build.5"}
	for _, s := range valid {
		if !IsValidSemVer(s) {
			t.Errorf("IsValidSemVer(%q) = false", s)
		}
	}
	invalid := []string{"", "1", "1.2", "1.2.3.4", "a.b.c", "1.2.x"}
	for _, s := range invalid {
		if IsValidSemVer(s) {
			t.Errorf("IsValidSemVer(%q) = true", s)
		}
	}
}

package codegen

import (
	"testing"
)

func TestTargetFromName(t *testing.T) {
	testCases := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{"riscv32", TargetRISCV32, false},
		{"rv32", TargetRISCV32, false},
		{"aarch64-linux", 0, true},
		{"", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target, err := TargetFromName(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Errorf("TargetFromName(%q) succeeded, expected an error", tc.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("TargetFromName(%q) failed: %v", tc.name, err)
			}
			if target != tc.target {
				t.Errorf("TargetFromName(%q) = %v, expected %v", tc.name, target, tc.target)
			}
		})
	}
}

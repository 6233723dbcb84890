package scheduler

import "testing"

func TestDependencyFlag(t *testing.T) {
	tests := []struct {
		name    string
		dep     Dependency
		depType string
		want    string
	}{
		{"none", NoDependency, "", ""},
		{"empty list", After(), DependAfterOK, ""},
		{"blank ids dropped", After("", " "), "", ""},
		{"single", After("42"), "", "--dependency=afterok:42"},
		{"two ids", After("id1", "id2"), "", "--dependency=afterok:id1:id2"},
		{"afternotok", After("7"), DependAfterNotOK, "--dependency=afternotok:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dep.Flag(tt.depType); got != tt.want {
				t.Errorf("Flag(%q) = %q; want %q", tt.depType, got, tt.want)
			}
		})
	}
}

func TestDependencyString(t *testing.T) {
	if got := After("1", "2", "3").String(); got != "1:2:3" {
		t.Errorf("String() = %q; want 1:2:3", got)
	}
	if !NoDependency.IsNone() {
		t.Errorf("NoDependency.IsNone() = false")
	}
}

func TestDependencyTypes(t *testing.T) {
	types := DependencyTypes()
	if len(types) != 7 {
		t.Fatalf("DependencyTypes() returned %d types: %v", len(types), types)
	}
	if types[0] != DependAfter {
		t.Errorf("first type = %q; want %q", types[0], DependAfter)
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Errorf("DependencyTypes() not sorted: %v", types)
		}
	}
}

package directory_test

import (
	"testing"

	"github.com/clientgate/clientgate/pkg/portal/directory"
)

func TestFilterProfilePatch(t *testing.T) {
	patch := map[string]any{
		"first_name": "Jane",
		"last_name":  "Doe",
		"phone":      "+1 555 0100",
		"email":      "attacker@example.com",
		"id":         "cust-666",
		"role":       "admin",
	}

	got := directory.FilterProfilePatch(patch)

	if len(got) != 3 {
		t.Fatalf("expected 3 fields, got %d: %v", len(got), got)
	}
	for _, k := range []string{"first_name", "last_name", "phone"} {
		if _, ok := got[k]; !ok {
			t.Errorf("editable field %q dropped", k)
		}
	}
	for _, k := range []string{"email", "id", "role"} {
		if _, ok := got[k]; ok {
			t.Errorf("non-editable field %q survived", k)
		}
	}
}

func TestFilterProfilePatch_Empty(t *testing.T) {
	if got := directory.FilterProfilePatch(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
	if got := directory.FilterProfilePatch(map[string]any{"role": "admin"}); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		customer directory.Customer
		want     string
	}{
		{directory.Customer{FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{directory.Customer{FirstName: "Jane"}, "Jane"},
		{directory.Customer{LastName: "Doe"}, "Doe"},
		{directory.Customer{Email: "jane@example.com"}, "jane@example.com"},
	}

	for _, tt := range tests {
		if got := tt.customer.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

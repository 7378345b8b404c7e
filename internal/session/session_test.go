package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestResolve(t *testing.T) {
	existing := uuid.NewString()

	tests := []struct {
		name      string
		token     string
		wantSame  bool
		wantIsNew bool
	}{
		{
			name:      "absent token mints a new id",
			token:     "",
			wantIsNew: true,
		},
		{
			name:      "valid token is returned verbatim",
			token:     existing,
			wantSame:  true,
			wantIsNew: false,
		},
		{
			name:      "garbage token is replaced",
			token:     "not-a-uuid",
			wantIsNew: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, isNew := Resolve(tt.token)

			if isNew != tt.wantIsNew {
				t.Errorf("isNew = %v, want %v", isNew, tt.wantIsNew)
			}
			if tt.wantSame && id != tt.token {
				t.Errorf("id = %q, want token %q back", id, tt.token)
			}
			if !tt.wantSame && id == tt.token {
				t.Errorf("id %q should not equal the rejected token", id)
			}
			if _, err := uuid.Parse(id); err != nil {
				t.Errorf("id %q is not a valid UUID: %v", id, err)
			}
		})
	}
}

func TestResolveStability(t *testing.T) {
	id, isNew := Resolve("")
	if !isNew {
		t.Fatal("expected a fresh session")
	}

	// The same token resolves to the same id on every later request.
	for i := 0; i < 3; i++ {
		got, again := Resolve(id)
		if again {
			t.Fatal("existing token treated as new")
		}
		if got != id {
			t.Fatalf("id changed across resolutions: %q != %q", got, id)
		}
	}
}

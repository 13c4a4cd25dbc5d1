// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token   string
		want    Ref
		wantErr bool
	}{
		{token: "$x", want: Ref{Module: "cur", Name: "x"}},
		{token: "x", want: Ref{Module: "cur", Name: "x"}},
		{token: "$lib.flags", want: Ref{Module: "lib", Name: "flags"}},
		{token: "lib.flags", want: Ref{Module: "lib", Name: "flags"}},
		{token: "$a.b.c", want: Ref{Module: "a", Name: "b.c"}},
		{token: "$__configuration.__name", want: Ref{Module: "__configuration", Name: "__name"}},
		{token: "$", wantErr: true},
		{token: "", wantErr: true},
		{token: "$.x", wantErr: true},
		{token: "$m.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRef("cur", tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Fatalf("ParseRef(%q) error = %v, want ErrInvalidReference", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) error = %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestRef_String(t *testing.T) {
	t.Parallel()

	if got := (Ref{Module: "m", Name: "a"}).String(); got != "$m.a" {
		t.Errorf("String() = %q, want %q", got, "$m.a")
	}
}

package domain

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Cremería La Esperanza", "Cremera_La_Esperanza"},
		{"  Don José  ", "Don_Jos"},
		{"Tienda-24/7", "Tienda_247"},
		{"", "cliente"},
		{"¡¿!?", "cliente"},
	}

	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

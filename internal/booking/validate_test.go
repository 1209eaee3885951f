package booking

import "testing"

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+36 30 123 4567", true},
		{"06301234567", true},
		{"301234567", true},
		{"30123456", false},
		{"abc", false},
		{"", false},
		{"+36-30-123-4567", true},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.phone); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"anna@example.com", true},
		{"  anna@example.com  ", true},
		{"a@b.cd", true},
		{"anna@example", false},
		{"@example.com", false},
		{"anna@.com", false},
		{"anna@mail.example.com", true},
		{"anna example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

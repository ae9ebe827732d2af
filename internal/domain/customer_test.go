package domain

import "testing"

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"05321234567", true},
		{"0532 123 45 67", true},
		{"(532) 123-4567", true},
		{"532123456", false},
		{"053212345678", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := ValidatePhone(tt.phone); got != tt.want {
				t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"05321234567", "0532 123 45 67"},
		{"0532-123-45-67", "0532 123 45 67"},
		{"5321234567", "5321234567"},
		{"15321234567", "15321234567"},
	}

	for _, tt := range tests {
		if got := FormatPhone(tt.in); got != tt.want {
			t.Errorf("FormatPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCustomerValidate(t *testing.T) {
	tests := []struct {
		name     string
		customer Customer
		wantErr  error
	}{
		{"valid", Customer{Name: "Ahmet", Phone: "05321234567"}, nil},
		{"blank name", Customer{Name: "  ", Phone: "05321234567"}, ErrCustomerNameRequired},
		{"missing phone", Customer{Name: "Ahmet"}, ErrCustomerPhoneRequired},
		{"short phone", Customer{Name: "Ahmet", Phone: "0532"}, ErrCustomerPhoneInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.customer.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDuplicateCustomer(t *testing.T) {
	existing := []*Customer{
		{ID: "c1", Name: "Ahmet Yılmaz", Phone: "0532 123 45 67"},
		{ID: "c2", Name: "Mehmet Kaya", Phone: "05441112233"},
	}

	tests := []struct {
		name      string
		newName   string
		newPhone  string
		excludeID string
		want      bool
	}{
		{"same phone different formatting", "Ali Veli", "05321234567", "", true},
		{"same name different case and spacing", "  ahmet yılmaz ", "05550000000", "", true},
		{"new customer", "Ali Veli", "05550000000", "", false},
		{"updating self is not a duplicate", "Ahmet Yılmaz", "0532 123 45 67", "c1", false},
		{"updating into another customer's phone", "Ahmet Yılmaz", "05441112233", "c1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateCustomer(existing, tt.newName, tt.newPhone, tt.excludeID); got != tt.want {
				t.Errorf("IsDuplicateCustomer() = %v, want %v", got, tt.want)
			}
		})
	}
}

package model

import "testing"

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		wantFirst string
		wantLast  string
	}{
		{name: "名と姓", fullName: "Jane Doe", wantFirst: "Jane", wantLast: "Doe"},
		{name: "名のみ", fullName: "Cher", wantFirst: "Cher", wantLast: ""},
		{name: "前後の空白を除去", fullName: "  Jane Doe  ", wantFirst: "Jane", wantLast: "Doe"},
		{name: "姓に空白を含む", fullName: "Juan Martin del Potro", wantFirst: "Juan", wantLast: "Martin del Potro"},
		{name: "連続した空白", fullName: "Jane   Doe", wantFirst: "Jane", wantLast: "Doe"},
		{name: "空文字", fullName: "", wantFirst: "", wantLast: ""},
		{name: "結合文字を正規化", fullName: "Zoë Martin", wantFirst: "Zoë", wantLast: "Martin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitFullName(tt.fullName)
			if first != tt.wantFirst {
				t.Errorf("SplitFullName() first = %q, want %q", first, tt.wantFirst)
			}
			if last != tt.wantLast {
				t.Errorf("SplitFullName() last = %q, want %q", last, tt.wantLast)
			}
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+15551234589", want: "+1********89"},
		{in: "5551234589", want: "5551234589"},
		{in: "unknown", want: "unknown"},
		{in: "+12", want: "+12"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := MaskPhone(tt.in); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient(t *testing.T) {
	client := Client{ID: 1, FirstName: "Jane", LastName: "", PhoneNumber: DefaultPlaceholderPhone}

	if client.FullName() != "Jane" {
		t.Errorf("Client.FullName() = %q, want %q", client.FullName(), "Jane")
	}
	if !client.IsPlaceholder(DefaultPlaceholderPhone) {
		t.Error("Client.IsPlaceholder() = false, want true")
	}

	client.PhoneNumber = "+15551234589"
	if client.IsPlaceholder(DefaultPlaceholderPhone) {
		t.Error("Client.IsPlaceholder() = true, want false")
	}
}

package types

import "testing"

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		in      string
		want    Protocol
		wantErr bool
	}{
		{"tcp", TCP, false},
		{"UDP", UDP, false},
		{" tcp ", TCP, false},
		{"sctp", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProtocol(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProtocol(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProtocol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"hex", Hex, false},
		{"ASCII", Ascii, false},
		{"base64", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEncoding(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEndpointAddr(t *testing.T) {
	ep := Endpoint{Protocol: TCP, Host: "127.0.0.1", Port: 8080}
	if got := ep.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", got)
	}
	if got := ep.String(); got != "tcp://127.0.0.1:8080" {
		t.Errorf("String = %q", got)
	}

	v6 := Endpoint{Protocol: UDP, Host: "::1", Port: 53}
	if got := v6.Addr(); got != "[::1]:53" {
		t.Errorf("v6 Addr = %q", got)
	}
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		ok   bool
	}{
		{"valid tcp", Endpoint{TCP, "localhost", 8080}, true},
		{"valid udp", Endpoint{UDP, "10.0.0.1", 1}, true},
		{"no protocol", Endpoint{"", "localhost", 8080}, false},
		{"empty host", Endpoint{TCP, "", 8080}, false},
		{"port zero", Endpoint{TCP, "localhost", 0}, false},
		{"port too big", Endpoint{TCP, "localhost", 70000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []SessionState{Idle, Connecting, Open} {
		if s.Terminal() {
			t.Errorf("%s reported terminal", s)
		}
	}
	for _, s := range []SessionState{Closed, Failed} {
		if !s.Terminal() {
			t.Errorf("%s reported non-terminal", s)
		}
	}
}

package transport

import "testing"

func TestSchemeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"tcp://127.0.0.1:9090", "tcp"},
		{"unix:///tmp/holons.sock", "unix"},
		{"stdio://", "stdio"},
		{"mem://foo", "mem"},
		{"ws://host/grpc", "ws"},
		{"garbage-with-no-scheme", "garbage-with-no-scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := SchemeOf(tt.raw); got != tt.want {
				t.Errorf("SchemeOf(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

//goland:noinspection ALL
func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		wantCode URIErrCode
		check    func(t *testing.T, u *URI)
	}{
		{
			name: "tcp_explicit_host_and_port",
			raw:  "tcp://127.0.0.1:9000",
			check: func(t *testing.T, u *URI) {
				if u.Host != "127.0.0.1" || u.Port != 9000 {
					t.Errorf("got host=%q port=%d", u.Host, u.Port)
				}
			},
		},
		{
			name: "tcp_empty_host_binds_all_interfaces",
			raw:  "tcp://:9000",
			check: func(t *testing.T, u *URI) {
				if u.Host != "0.0.0.0" {
					t.Errorf("got host=%q, want 0.0.0.0", u.Host)
				}
			},
		},
		{
			name: "tcp_missing_port_defaults_to_9090",
			raw:  "tcp://127.0.0.1",
			check: func(t *testing.T, u *URI) {
				if u.Port != DefaultTCPPort {
					t.Errorf("got port=%d, want %d", u.Port, DefaultTCPPort)
				}
			},
		},
		{
			name: "tcp_bracketed_ipv6",
			raw:  "tcp://[::1]:9000",
			check: func(t *testing.T, u *URI) {
				if u.Host != "::1" || u.Port != 9000 {
					t.Errorf("got host=%q port=%d", u.Host, u.Port)
				}
			},
		},
		{
			name: "tcp_bracketed_ipv6_no_port",
			raw:  "tcp://[::1]",
			check: func(t *testing.T, u *URI) {
				if u.Host != "::1" || u.Port != DefaultTCPPort {
					t.Errorf("got host=%q port=%d", u.Host, u.Port)
				}
			},
		},
		{
			name:     "tcp_unterminated_bracket",
			raw:      "tcp://[::1:9000",
			wantErr:  true,
			wantCode: URIErrCodeInvalid,
		},
		{
			name: "unix_absolute_path",
			raw:  "unix:///tmp/holons.sock",
			check: func(t *testing.T, u *URI) {
				if u.Path != "/tmp/holons.sock" {
					t.Errorf("got path=%q", u.Path)
				}
			},
		},
		{
			name:     "unix_requires_path",
			raw:      "unix://",
			wantErr:  true,
			wantCode: URIErrCodeInvalid,
		},
		{
			name: "stdio_bare",
			raw:  "stdio://",
			check: func(t *testing.T, u *URI) {
				if u.Host != "" || u.Port != 0 || u.Path != "" {
					t.Errorf("stdio URI carries unexpected fields: %+v", u)
				}
			},
		},
		{
			name:     "stdio_rejects_trailing_content",
			raw:      "stdio://junk",
			wantErr:  true,
			wantCode: URIErrCodeInvalid,
		},
		{
			name: "mem_with_name",
			raw:  "mem://swift-tests",
			check: func(t *testing.T, u *URI) {
				if u.Path != "swift-tests" {
					t.Errorf("got path=%q", u.Path)
				}
			},
		},
		{
			name: "mem_empty_name",
			raw:  "mem://",
			check: func(t *testing.T, u *URI) {
				if u.Path != "" {
					t.Errorf("got path=%q", u.Path)
				}
			},
		},
		{
			name: "ws_default_path_and_port",
			raw:  "ws://example.org",
			check: func(t *testing.T, u *URI) {
				if u.Port != DefaultWSPort || u.Path != DefaultWSPath {
					t.Errorf("got port=%d path=%q", u.Port, u.Path)
				}
			},
		},
		{
			name: "wss_default_port_explicit_path",
			raw:  "wss://example.org/custom",
			check: func(t *testing.T, u *URI) {
				if u.Port != DefaultWSSPort || u.Path != "/custom" {
					t.Errorf("got port=%d path=%q", u.Port, u.Path)
				}
			},
		},
		{
			name:     "unknown_scheme",
			raw:      "grpc://host:1",
			wantErr:  true,
			wantCode: URIErrCodeUnsupported,
		},
		{
			name:     "missing_scheme_separator",
			raw:      "not-a-uri-at-all",
			wantErr:  true,
			wantCode: URIErrCodeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = nil error, want error", tt.raw)
				}
				var uriErr *URIError
				if !asURIError(err, &uriErr) {
					t.Fatalf("Parse(%q) error is not *URIError: %v", tt.raw, err)
				}
				if uriErr.Code != tt.wantCode {
					t.Errorf("Parse(%q) code = %q, want %q", tt.raw, uriErr.Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			tt.check(t, u)
		})
	}
}

func asURIError(err error, target **URIError) bool {
	e, ok := err.(*URIError)
	if ok {
		*target = e
	}
	return ok
}

func TestParseIsReferentiallyTransparent(t *testing.T) {
	t.Parallel()

	raws := []string{
		"tcp://127.0.0.1:9090",
		"unix:///tmp/holons.sock",
		"stdio://",
		"mem://room-a",
		"ws://host.example:8080/grpc",
		"wss://host.example/api",
	}

	for _, raw := range raws {
		a, errA := Parse(raw)
		b, errB := Listen(raw)
		if errA != nil || errB != nil {
			t.Fatalf("Parse/Listen(%q) errored: %v / %v", raw, errA, errB)
		}
		if *a != *b {
			t.Errorf("Parse(%q) = %+v, Listen(%q) = %+v", raw, a, raw, b)
		}
	}
}

func TestURIStringRoundTrip(t *testing.T) {
	t.Parallel()

	raws := []string{
		"tcp://127.0.0.1:9090",
		"tcp://[::1]:9000",
		"unix:///tmp/holons.sock",
		"stdio://",
		"mem://room-a",
		"mem://",
		"ws://host.example:8080/grpc",
		"wss://host.example:443/api",
	}

	for _, raw := range raws {
		first, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		second, err := Parse(first.String())
		if err != nil {
			t.Fatalf("Parse(String(%q)=%q): %v", raw, first.String(), err)
		}
		if *first != *second {
			t.Errorf("round-trip mismatch for %q: %+v != %+v", raw, first, second)
		}
	}
}

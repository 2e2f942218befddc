package mux

import "testing"

func TestConstructorName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "github.com/adamwoolhether/fetchguard/web/middleware.Logger.func1", want: "Logger"},
		{raw: "github.com/adamwoolhether/fetchguard/web/middleware.Errors.func1.1", want: "Errors"},
		{raw: "github.com/adamwoolhether/fetchguard/web/mux_test.TestWithMiddleware_Order.Panics.func1", want: "Panics"},
		{raw: "github.com/adamwoolhether/fetchguard/api.Routes.Logger.func1", want: "Logger"},
		{raw: "github.com/adamwoolhether/fetchguard/api.rateLimit", want: "rateLimit"},
		{raw: "main.functional.func12", want: "functional"},
	}

	for _, tc := range tests {
		if got := constructorName(tc.raw); got != tc.want {
			t.Errorf("constructorName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

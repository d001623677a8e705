package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "simple substitution with {{.VAR}}",
			input: "api_key: {{.API_KEY}}",
			env:   map[string]string{"API_KEY": "secret123"},
			want:  "api_key: secret123",
		},
		{
			name:  "literal ${VAR} is NOT expanded",
			input: "pattern: ${USER_ID}",
			env:   map[string]string{"USER_ID": "123"},
			want:  "pattern: ${USER_ID}",
		},
		{
			name:  "literal $ in instruction text survives",
			input: "instructions: \"budget of $500 per month\"",
			env:   map[string]string{},
			want:  "instructions: \"budget of $500 per month\"",
		},
		{
			name:  "multiple substitutions in one line",
			input: "base_url: {{.PROTOCOL}}://{{.HOST}}/v1",
			env: map[string]string{
				"PROTOCOL": "https",
				"HOST":     "assistant.example.com",
			},
			want: "base_url: https://assistant.example.com/v1",
		},
		{
			name:  "missing variable expands to empty",
			input: "api_key: {{.MISSING_VAR}}",
			env:   map[string]string{},
			want:  "api_key: ",
		},
		{
			name:  "invalid template syntax passes through",
			input: "value: {{.UNCLOSED",
			env:   map[string]string{},
			want:  "value: {{.UNCLOSED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ExpandEnv([]byte(tt.input))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExpandEnvValueWithEquals(t *testing.T) {
	t.Setenv("CONN", "a=b=c")
	got := ExpandEnv([]byte("dsn: {{.CONN}}"))
	assert.Equal(t, "dsn: a=b=c", string(got))
}

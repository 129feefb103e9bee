package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	input := map[string]any{
		"user":  "ada",
		"count": float64(3),
		"flag":  true,
		"tags":  []any{"a", "b"},
	}

	tests := []struct {
		name string
		conf map[string]any
		want map[string]any
	}{
		{
			name: "string spliced without quotes",
			conf: map[string]any{"message": "hello ${user}"},
			want: map[string]any{"message": "hello ada"},
		},
		{
			name: "number spliced in JSON form",
			conf: map[string]any{"message": "count is ${count}"},
			want: map[string]any{"message": "count is 3"},
		},
		{
			name: "bool and array spliced in JSON form",
			conf: map[string]any{"a": "${flag}", "b": "${tags}"},
			want: map[string]any{"a": "true", "b": `["a","b"]`},
		},
		{
			name: "unresolved token left verbatim",
			conf: map[string]any{"message": "hello ${missing}"},
			want: map[string]any{"message": "hello ${missing}"},
		},
		{
			name: "nested maps and slices",
			conf: map[string]any{
				"outer": map[string]any{"inner": "${user}"},
				"list":  []any{"${user}", "plain"},
			},
			want: map[string]any{
				"outer": map[string]any{"inner": "ada"},
				"list":  []any{"ada", "plain"},
			},
		},
		{
			name: "multiple tokens in one string",
			conf: map[string]any{"message": "${user}:${count}"},
			want: map[string]any{"message": "ada:3"},
		},
		{
			name: "non-string values untouched",
			conf: map[string]any{"n": float64(7), "b": false},
			want: map[string]any{"n": float64(7), "b": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Config(tt.conf, input))
		})
	}
}

func TestConfigWithoutTokensIsUnchanged(t *testing.T) {
	conf := map[string]any{
		"subject": "plain subject",
		"nested":  map[string]any{"depth": "two"},
	}

	assert.Equal(t, conf, Config(conf, map[string]any{"subject": "other"}))
}

func TestConfigNil(t *testing.T) {
	assert.Nil(t, Config(nil, map[string]any{"x": 1}))
}

func TestStringNilInput(t *testing.T) {
	assert.Equal(t, "keep ${x}", String("keep ${x}", nil))
}

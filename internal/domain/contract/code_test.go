package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNextCode(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		existing []string
		want     string
	}{
		{name: "empty collection", prefix: "C", want: "C001"},
		{name: "sequential", prefix: "C", existing: []string{"C001", "C002"}, want: "C003"},
		{name: "gaps use max", prefix: "C", existing: []string{"C007", "C002"}, want: "C008"},
		{name: "more than three digits", prefix: "C", existing: []string{"C999"}, want: "C1000"},
		{name: "ignores foreign codes", prefix: "C", existing: []string{"X900", "Cabc", "C", "C004"}, want: "C005"},
		{name: "unpadded legacy code", prefix: "C", existing: []string{"C12"}, want: "C013"},
		{name: "default prefix", existing: []string{"C010"}, want: "C011"},
		{name: "ignores signed suffixes", prefix: "C", existing: []string{"C+9", "C-1", "C003"}, want: "C004"},
		{name: "ignores embedded spaces", prefix: "C", existing: []string{"C 50", "C002"}, want: "C003"},
		{name: "ignores suffix at int64 limit", prefix: "C", existing: []string{"C9223372036854775807", "C005"}, want: "C006"},
		{name: "ignores suffix beyond int64", prefix: "C", existing: []string{"C99999999999999999999", "C005"}, want: "C006"},
		{name: "largest usable suffix", prefix: "C", existing: []string{"C9223372036854775806"}, want: "C9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateNextCode(tt.prefix, tt.existing))
		})
	}
}

package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "missing", in: 0, want: 100},
		{name: "negative", in: -5, want: 100},
		{name: "within range", in: 250, want: 250},
		{name: "at cap", in: 500, want: 500},
		{name: "over cap", in: 1000, want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, auditLimit(tt.in))
		})
	}
}

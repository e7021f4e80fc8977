package target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Parse:
// - One, two and three segments fill Member, Enclosing and Nested
// - "#L5" is the single-line range (5,5); "#L9-L11" is a span
// - Missing digits, non-numeric lines, zero lines and reversed ranges are malformed
// - Empty segments and more than three segments are malformed
// - String renders the canonical form and re-parses to the same Locator
// - Malformed errors carry the taxonomy kind and the original address

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    Locator
	}{
		{
			name:    "member only",
			address: "calculate",
			want:    Locator{Member: "calculate"},
		},
		{
			name:    "single line",
			address: "calculate#L5",
			want:    Locator{Member: "calculate", Lines: &LineRange{Start: 5, End: 5}},
		},
		{
			name:    "enclosing with range",
			address: "Order::print_owing#L9-L11",
			want:    Locator{Enclosing: "Order", Member: "print_owing", Lines: &LineRange{Start: 9, End: 11}},
		},
		{
			name:    "nested member",
			address: "Order::print_owing::helper",
			want:    Locator{Enclosing: "Order", Member: "print_owing", Nested: "helper"},
		},
		{
			name:    "explicit single line span",
			address: "f#L3-L3",
			want:    Locator{Member: "f", Lines: &LineRange{Start: 3, End: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
	}{
		{"missing line digits", "Order::print_owing#L"},
		{"missing L prefix", "calculate#5"},
		{"bare hash", "calculate#"},
		{"missing end digits", "calculate#L5-L"},
		{"missing end prefix", "calculate#L5-7"},
		{"non numeric", "calculate#Lfive"},
		{"reversed range", "calculate#L9-L5"},
		{"zero line", "calculate#L0"},
		{"empty address", ""},
		{"empty enclosing", "::print_owing"},
		{"empty member", "Order::"},
		{"too many segments", "a::b::c::d"},
		{"single colon", "Order:print_owing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.address)
			require.Error(t, err)

			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.address, me.Address)
			assert.Equal(t, "MalformedTargetError", me.Kind())
		})
	}
}

func TestLocator_StringRoundTrip(t *testing.T) {
	t.Parallel()

	addresses := []string{
		"calculate",
		"calculate#L5",
		"Order::print_owing#L9-L11",
		"Order::print_owing::helper#L2-L4",
	}

	for _, address := range addresses {
		t.Run(address, func(t *testing.T) {
			t.Parallel()
			loc, err := Parse(address)
			require.NoError(t, err)
			assert.Equal(t, address, loc.String())

			again, err := Parse(loc.String())
			require.NoError(t, err)
			assert.Equal(t, loc, again)
		})
	}
}

func TestLocator_CanonicalSingleLine(t *testing.T) {
	t.Parallel()

	loc, err := Parse("f#L3-L3")
	require.NoError(t, err)
	assert.Equal(t, "f#L3", loc.String())
}

func TestLocator_Contains(t *testing.T) {
	t.Parallel()

	loc, err := Parse("Order::print_owing#L9-L11")
	require.NoError(t, err)
	assert.True(t, loc.HasRange())
	assert.False(t, loc.Contains(8))
	assert.True(t, loc.Contains(9))
	assert.True(t, loc.Contains(11))
	assert.False(t, loc.Contains(12))

	scope := loc.Scope()
	assert.False(t, scope.HasRange())
	assert.True(t, scope.Contains(100))
	assert.Equal(t, "Order::print_owing", scope.String())
	assert.True(t, loc.HasRange(), "Scope must not modify the receiver")
}

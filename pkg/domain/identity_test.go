package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testID string

func TestIdentityAssignOnce(t *testing.T) {
	id := Unassigned[testID]()
	_, ok := id.Value()
	assert.False(t, ok)

	require.NoError(t, id.Assign("1"))
	v, ok := id.Value()
	assert.True(t, ok)
	assert.Equal(t, testID("1"), v)

	err := id.Assign("2")
	assert.ErrorIs(t, err, ErrIdentityAlreadyAssigned)
	assert.Equal(t, testID("1"), id.MustValue(), "first value survives")
}

func TestIdentityEqual(t *testing.T) {
	assert.True(t, Assigned[testID]("a").Equal(Assigned[testID]("a")))
	assert.False(t, Assigned[testID]("a").Equal(Assigned[testID]("b")))
	assert.False(t, Unassigned[testID]().Equal(Unassigned[testID]()))
}

func TestIdentityMustValuePanicsWhenUnassigned(t *testing.T) {
	assert.Panics(t, func() { Unassigned[testID]().MustValue() })
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		max     int
		want    string
		wantErr error
	}{
		{name: "trims", raw: "  sales ", want: "sales"},
		{name: "full-width space", raw: "　売上　", want: "売上"},
		{name: "empty", raw: "", wantErr: ErrEmptyName},
		{name: "blank", raw: " \t　", wantErr: ErrEmptyName},
		{name: "at limit", raw: "abc", max: 3, want: "abc"},
		{name: "multibyte counted as characters", raw: "あいう", max: 3, want: "あいう"},
		{name: "over limit", raw: "abcd", max: 3, wantErr: ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.raw, tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAndSpecReportsFirstViolation(t *testing.T) {
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	spec := All[int](
		SpecFunc[int](func(v *int) error { return nil }),
		SpecFunc[int](func(v *int) error {
			if *v > 1 {
				return errFirst
			}
			return nil
		}),
		SpecFunc[int](func(v *int) error { return errSecond }),
	)

	v := 5
	assert.ErrorIs(t, spec.IsSatisfiedBy(&v), errFirst)
	v = 0
	assert.ErrorIs(t, spec.IsSatisfiedBy(&v), errSecond)
}

func TestUnexpectedWraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Unexpected("save column", cause)

	var ue *UnexpectedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "save column", ue.Op)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, Unexpected("noop", nil))
}

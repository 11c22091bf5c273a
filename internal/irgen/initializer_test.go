package irgen

import (
	"testing"

	"github.com/nalgeon/be"
)

// ints builds a flat list initializer; nested lists are passed as Initializer values.
func ints(elems ...any) Initializer {
	list := []Initializer{}
	for _, elem := range elems {
		switch e := elem.(type) {
		case int:
			list = append(list, constInit(int32(e)))
		case Initializer:
			list = append(list, e)
		}
	}
	return listInit(list)
}

func TestReshape(t *testing.T) {
	testCases := []struct {
		name     string
		init     Initializer
		dims     []int
		expected []int32
	}{
		{
			name:     "flat list into matrix",
			init:     ints(1, 2, 3, 4),
			dims:     []int{2, 3},
			expected: []int32{1, 2, 3, 4, 0, 0},
		},
		{
			name:     "nested lists",
			init:     ints(ints(1), ints(2, 3)),
			dims:     []int{2, 2},
			expected: []int32{1, 0, 2, 3},
		},
		{
			name:     "empty list",
			init:     ints(),
			dims:     []int{3},
			expected: []int32{0, 0, 0},
		},
		{
			name:     "sublist after full rows",
			init:     ints(1, 2, ints(3)),
			dims:     []int{3, 2},
			expected: []int32{1, 2, 3, 0, 0, 0},
		},
		{
			name:     "three dimensions",
			init:     ints(1, 2, ints(3), ints(ints(4))),
			dims:     []int{2, 2, 2},
			expected: []int32{1, 2, 3, 0, 4, 0, 0, 0},
		},
		{
			name:     "exact fit",
			init:     ints(1, 2, 3, 4),
			dims:     []int{2, 2},
			expected: []int32{1, 2, 3, 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reshaped, err := Reshape(tc.init, tc.dims)
			be.Err(t, err, nil)
			be.Equal(t, reshaped.ConstValues(), tc.expected)
		})
	}
}

func TestReshapeStructure(t *testing.T) {
	reshaped, err := Reshape(ints(1, 2, 3, 4), []int{2, 3})
	be.Err(t, err, nil)
	be.Equal(t, reshaped.IntoConst().String(), "{{1, 2, 3}, {4, 0, 0}}")
	be.Equal(t, len(reshaped.Flatten()), 6)
}

func TestReshapeErrors(t *testing.T) {
	testCases := []struct {
		name     string
		init     Initializer
		dims     []int
		expected error
	}{
		{"too many", ints(1, 2, 3, 4, 5), []int{2, 2}, ErrTooManyInitializers},
		{"too many rows", ints(ints(1), ints(2), ints(3)), []int{2, 2}, ErrTooManyInitializers},
		{"misaligned sublist", ints(1, ints(2)), []int{2, 2}, ErrMisalignedInitializer},
		{"list for scalar", ints(1), nil, ErrUnsupportedInitializerShape},
		{"scalar for array", constInit(1), []int{2}, ErrUnsupportedInitializerShape},
		{"braces around scalar", ints(ints(1)), []int{2}, ErrUnsupportedInitializerShape},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reshape(tc.init, tc.dims)
			be.Err(t, err, tc.expected)
		})
	}
}

func TestReshapeScalar(t *testing.T) {
	reshaped, err := Reshape(constInit(7), nil)
	be.Err(t, err, nil)
	be.Equal(t, reshaped.Kind, InitConst)
	be.Equal(t, reshaped.IRValue().String(), "7")
}

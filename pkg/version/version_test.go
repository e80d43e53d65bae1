package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in        string
		want      Version
		wantExtra string
		wantErr   bool
	}{
		{in: "10.1.34", want: Version{Major: 10, Minor: 1, Patch: 34, Precision: 3}},
		{in: "v20.11.1", want: Version{Major: 20, Minor: 11, Patch: 1, Precision: 3}},
		{in: "1.24", want: Version{Major: 1, Minor: 24, Precision: 2}},
		{in: "8", want: Version{Major: 8, Precision: 1}},
		{in: "8.0.36-0ubuntu0.24.04.1", want: Version{Major: 8, Minor: 0, Patch: 36, Precision: 3, Extras: "-0ubuntu0.24.04.1"}},
		{in: "", wantErr: true},
		{in: "1.2.3.4", wantErr: true},
		{in: "1.x.3", wantErr: true},
		{in: "1..3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "nginx banner", in: "nginx version: nginx/1.24.0 (Ubuntu)", want: "1.24.0"},
		{name: "mysql banner", in: "mysql  Ver 8.0.36-0ubuntu0.24.04.1 for Linux on x86_64", want: "8.0.36"},
		{name: "node", in: "v20.11.1", want: "20.11.1"},
		{name: "java", in: `openjdk version "17.0.10" 2024-01-16`, want: "17.0.10"},
		{name: "tomcat", in: "Server version: Apache Tomcat/10.1.34", want: "10.1.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := Extract("command not found")
	assert.ErrorIs(t, err, ErrNoVersionInOutput)
}

func TestString(t *testing.T) {
	assert.Equal(t, "8", Version{Major: 8, Precision: 1}.String())
	assert.Equal(t, "1.24", Version{Major: 1, Minor: 24, Precision: 2}.String())
	assert.Equal(t, "10.1.34", Version{Major: 10, Minor: 1, Patch: 34, Precision: 3}.String())
}

func TestEqualsOrNewer(t *testing.T) {
	v20 := Version{Major: 20, Precision: 1}
	v18 := Version{Major: 18, Minor: 19, Patch: 1, Precision: 3}
	assert.True(t, v20.EqualsOrNewer(v18))
	assert.False(t, v18.EqualsOrNewer(v20))

	// Major-only precision treats any 20.x as equal.
	got := Version{Major: 20, Precision: 1}
	want := Version{Major: 20, Minor: 11, Patch: 1, Precision: 3}
	assert.True(t, got.EqualsOrNewer(want))
}

func TestCompare(t *testing.T) {
	a, err := Parse("10.1.34")
	require.NoError(t, err)
	b, err := Parse("10.1.35")
	require.NoError(t, err)

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))

	// Lower precision bounds the comparison.
	short, err := Parse("10.1")
	require.NoError(t, err)
	assert.Equal(t, 0, short.Compare(a))
}

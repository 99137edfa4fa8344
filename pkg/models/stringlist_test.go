package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_Value(t *testing.T) {
	v, err := StringList{"full_time", "contract"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["full_time","contract"]`, v)

	// nil marshals to an empty array, not NULL
	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringList_Scan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["full_time","contract"]`))
	assert.Equal(t, StringList{"full_time", "contract"}, l)

	require.NoError(t, l.Scan([]byte(`["remote"]`)))
	assert.Equal(t, StringList{"remote"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(""))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(42))
}

func TestStringList_Contains(t *testing.T) {
	l := StringList{"full_time", "contract"}
	assert.True(t, l.Contains("contract"))
	assert.False(t, l.Contains("internship"))
}

func TestValidEmploymentTypes(t *testing.T) {
	assert.True(t, ValidEmploymentTypes(nil))
	assert.True(t, ValidEmploymentTypes([]string{EmploymentFullTime, EmploymentInternship}))
	assert.False(t, ValidEmploymentTypes([]string{EmploymentFullTime, "gig"}))
}

func TestValidApplicationStatus(t *testing.T) {
	for _, s := range []string{ApplicationApplied, ApplicationInterview, ApplicationOffer, ApplicationRejected, ApplicationWithdrawn} {
		assert.True(t, ValidApplicationStatus(s))
	}
	assert.False(t, ValidApplicationStatus("ghosted"))
	assert.False(t, ValidApplicationStatus(""))
}

package compliance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRuleType(t *testing.T) {
	for in, want := range map[string]RuleType{
		"MBE":        RuleTypeMBE,
		"vsbe":       RuleTypeVSBE,
		" DBE ":      RuleTypeDBE,
		"LOCAL_PREF": RuleTypeLocalPref,
	} {
		got, err := ParseRuleType(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := ParseRuleType("WBE")
	require.Error(t, err)
	require.Equal(t, "LOCAL_PREF", RuleTypeLocalPref.String())
}

func TestParseCheckSet(t *testing.T) {
	set, err := ParseCheckSet(nil)
	require.NoError(t, err)
	require.NotContains(t, set.Ordered(), CheckNAICSAssigned)
	require.Len(t, set.Ordered(), 6)
	require.Equal(t, CheckDirectoryJurisdiction, set.Ordered()[0])
	require.Equal(t, CheckJurisdictionGoals, set.Ordered()[5])

	set, err = ParseCheckSet([]string{"mbe_percentage", "naics_code_valid"})
	require.NoError(t, err)
	require.Equal(t, []CheckID{CheckNAICSAssigned, CheckMBEPercentage}, set.Ordered())

	_, err = ParseCheckSet([]string{"bogus"})
	require.Error(t, err)
}

func TestUnionCodes(t *testing.T) {
	require.Equal(t, []string{"DC", "MD", "VA"}, unionCodes([]string{"MD", "VA"}, []string{"DC", "MD", ""}))
	require.Nil(t, unionCodes())
}

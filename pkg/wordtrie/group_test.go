package wordtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exampleNames = []string{
	"adhoc_charge_amt",
	"adhoc_charge_amt_usd",
	"alcohol_direct_payment_ind",
	"alcohol_tax_amt",
	"alcohol_tax_amt_usd",
	"alcohol_gmv_amt",
	"alcohol_gmv_amt_usd",
	"alcohol_product_ind",
	"bag_fee",
	"bag_fee_usd",
	"bags_fee_tax_amt",
	"bags_fee_tax_amt_usd",
	"bags_in_freezer",
	"bags_in_fridge",
	"bags_in_shelves",
	"country_id",
	"currency",
}

var exampleGroups = Groups{
	"adhoc_charge_amt": {"adhoc_charge_amt", "adhoc_charge_amt_usd"},
	"alcohol":          {"alcohol_direct_payment_ind", "alcohol_product_ind"},
	"alcohol_tax_amt":  {"alcohol_tax_amt", "alcohol_tax_amt_usd"},
	"alcohol_gmv_amt":  {"alcohol_gmv_amt", "alcohol_gmv_amt_usd"},
	"bag_fee":          {"bag_fee", "bag_fee_usd"},
	"bags_fee_tax_amt": {"bags_fee_tax_amt", "bags_fee_tax_amt_usd"},
	"bags_in":          {"bags_in_freezer", "bags_in_fridge", "bags_in_shelves"},
	"country_id":       {"country_id"},
	"currency":         {"currency"},
}

func TestGroupNames(t *testing.T) {
	tests := []struct {
		name      string
		names     []string
		delimiter string
		expected  Groups
	}{
		{
			name:      "reference example",
			names:     exampleNames,
			delimiter: DefaultDelimiter,
			expected:  exampleGroups,
		},
		{
			name:      "empty input yields empty map",
			names:     nil,
			delimiter: DefaultDelimiter,
			expected:  Groups{},
		},
		{
			name:      "single name becomes its own group",
			names:     []string{"foo"},
			delimiter: DefaultDelimiter,
			expected:  Groups{"foo": {"foo"}},
		},
		{
			name:      "shallowest name anchors the group",
			names:     []string{"a_b", "a_b_c"},
			delimiter: DefaultDelimiter,
			expected:  Groups{"a_b": {"a_b", "a_b_c"}},
		},
		{
			name:      "single chain without branching still resolves",
			names:     []string{"a_b", "a_b_c", "a_b_c_d"},
			delimiter: DefaultDelimiter,
			expected:  Groups{"a_b": {"a_b", "a_b_c", "a_b_c_d"}},
		},
		{
			name:      "unrelated names fall back to singleton groups",
			names:     []string{"foo_bar", "baz_qux", "standalone"},
			delimiter: DefaultDelimiter,
			expected: Groups{
				"foo_bar":    {"foo_bar"},
				"baz_qux":    {"baz_qux"},
				"standalone": {"standalone"},
			},
		},
		{
			name:      "branching point names the group",
			names:     []string{"abc_asd", "abc_xyz"},
			delimiter: DefaultDelimiter,
			expected:  Groups{"abc": {"abc_asd", "abc_xyz"}},
		},
		{
			name:      "custom delimiter controls word splitting",
			names:     []string{"foo+bar_abc", "foo+baz_xyz"},
			delimiter: "+",
			expected:  Groups{"foo": {"foo+bar_abc", "foo+baz_xyz"}},
		},
		{
			name:      "duplicates stay as repeated members",
			names:     []string{"foo_bar", "foo_bar", "foo_baz"},
			delimiter: DefaultDelimiter,
			expected:  Groups{"foo": {"foo_bar", "foo_bar", "foo_baz"}},
		},
		{
			name:      "full name above a resolved branching point keeps its own group",
			names:     []string{"a_b", "a_b_c_d", "a_b_c_e"},
			delimiter: DefaultDelimiter,
			expected: Groups{
				"a_b_c": {"a_b_c_d", "a_b_c_e"},
				"a_b":   {"a_b"},
			},
		},
		{
			name:      "deferred branch resolves at the root",
			names:     []string{"p_a", "p_a_x", "p_b"},
			delimiter: DefaultDelimiter,
			expected: Groups{
				"p_a": {"p_a", "p_a_x"},
				"p_b": {"p_b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := GroupNames(tt.names, tt.delimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGroupNamesInvalidDelimiter(t *testing.T) {
	_, err := GroupNames([]string{"foo"}, "--")
	assert.ErrorIs(t, err, ErrInvalidDelimiter)
}

func TestTrieGroupNamesMatchesConvenienceEntry(t *testing.T) {
	tr, err := FromNames(exampleNames, DefaultDelimiter)
	require.NoError(t, err)

	fromTrie := tr.GroupNames()
	fromNames, err := GroupNames(exampleNames, DefaultDelimiter)
	require.NoError(t, err)

	assert.Equal(t, fromNames, fromTrie)
}

// TestGroupNamesCoverage asserts that every input name lands in exactly one
// group and that nothing is invented or dropped, duplicates included.
func TestGroupNamesCoverage(t *testing.T) {
	inputs := [][]string{
		exampleNames,
		{"a_b", "a_b_c_d", "a_b_c_e"},
		{"q", "q_p_a", "q_p_a_x", "q_p_b"},
		{"x", "x", "x_y", "x_y"},
		{"one", "two", "three"},
		{"deep_chain_with_many_words_one", "deep_chain_with_many_words_two"},
	}

	for _, names := range inputs {
		result, err := GroupNames(names, DefaultDelimiter)
		require.NoError(t, err)

		want := map[string]int{}
		for _, n := range names {
			want[n]++
		}
		got := map[string]int{}
		total := 0
		for _, members := range result {
			for _, n := range members {
				got[n]++
				total++
			}
		}
		assert.Equal(t, want, got, "input %v", names)
		assert.Equal(t, len(names), total, "input %v", names)
	}
}

// TestGroupNamesIdempotent asserts that re-grouping the members of any
// produced group, in isolation, yields exactly that group back.
func TestGroupNamesIdempotent(t *testing.T) {
	result, err := GroupNames(exampleNames, DefaultDelimiter)
	require.NoError(t, err)

	for groupName, members := range result {
		regrouped, err := GroupNames(members, DefaultDelimiter)
		require.NoError(t, err)
		assert.Equal(t, Groups{groupName: members}, regrouped, "group %q", groupName)
	}
}

package ir

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("checkout")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("checkout"), IRInt(1)}
	var _ IRValue = IRObject{"event": IRString("checkout")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"target_event": IRString("checkout"),
		"bthread_name":  IRString("gate"),
		"cycle":         IRInt(3),
	}

	keys := obj.SortedKeys()

	assert.Equal(t, []string{"bthread_name", "cycle", "target_event"}, keys)
}

func TestIRObjectSortedKeysCaseOrdering(t *testing.T) {
	// RFC 8785 uses UTF-16 code unit ordering; for ASCII this puts
	// uppercase before lowercase at the same position.
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}

	keys := obj.SortedKeys()

	expected := []string{"A", "AA", "Aa", "a", "aA", "aa"}
	assert.Equal(t, expected, keys)
}

func TestIRObjectEmpty(t *testing.T) {
	obj := IRObject{}
	keys := obj.SortedKeys()
	assert.Empty(t, keys)
}

func TestIRArrayNested(t *testing.T) {
	// An event payload describing a cycle's trace: a bthread name plus
	// a list of statement fingerprints it contributed.
	arr := IRArray{
		IRString("gate"),
		IRArray{
			IRInt(1),
			IRInt(2),
			IRObject{"interrupted": IRBool(true)},
		},
	}

	assert.Len(t, arr, 2)

	inner, ok := arr[1].(IRArray)
	assert.True(t, ok)
	assert.Len(t, inner, 3)
}

func TestIRObjectNested(t *testing.T) {
	obj := IRObject{
		"snapshot": IRObject{
			"bthread": IRObject{
				"cycle": IRInt(42),
			},
		},
	}

	snapshot := obj["snapshot"].(IRObject)
	bthread := snapshot["bthread"].(IRObject)
	cycle := bthread["cycle"].(IRInt)

	assert.Equal(t, IRInt(42), cycle)
}

func TestNoIRFloatExists(t *testing.T) {
	// Event payloads carry only int, never float, so hashes stay stable
	// across platforms. This test documents that by exercising IRInt at
	// its boundary rather than by referencing a type that doesn't exist.
	var cycleCount IRInt = 9223372036854775807
	assert.Equal(t, IRInt(9223372036854775807), cycleCount)
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"aa", "a", 1},
		{"a", "aa", -1},
		{"A", "a", -32}, // 65 - 97
		{"", "", 0},
		{"", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			result := compareKeysRFC8785(tt.a, tt.b)
			if tt.expected < 0 {
				assert.Less(t, result, 0)
			} else if tt.expected > 0 {
				assert.Greater(t, result, 0)
			} else {
				assert.Equal(t, 0, result)
			}
		})
	}
}

func TestIRNullMarshaling(t *testing.T) {
	data, err := json.Marshal(IRNull{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIRNullInObject(t *testing.T) {
	// A b-thread's optional break-upon clause, absent here, represented
	// as an explicit IRNull rather than a missing key.
	obj := IRObject{
		"wait_for":   IRString("checkout"),
		"break_upon": IRNull{},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"break_upon":null`)

	var decoded IRObject
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	val := decoded["break_upon"]
	_, isNull := val.(IRNull)
	assert.True(t, isNull, "expected IRNull, got %T", val)
}

func TestIRNullInArray(t *testing.T) {
	arr := IRArray{IRString("checkout"), IRNull{}, IRInt(1)}

	data, err := json.Marshal(arr)
	require.NoError(t, err)
	assert.Equal(t, `["checkout",null,1]`, string(data))

	var decoded IRArray
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	require.Len(t, decoded, 3)
	_, isNull := decoded[1].(IRNull)
	assert.True(t, isNull, "expected IRNull at index 1, got %T", decoded[1])
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple float", `3.14`},
		{"scientific notation", `1e10`},
		{"scientific notation uppercase", `1E10`},
		{"negative float", `-2.5`},
		{"nested float in object", `{"retries": 1.5}`},
		{"array in payload with float", `[1, 2.0, 3]`},
		{"deeply nested float", `{"order": {"total": [1.5]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "float")
		})
	}
}

func TestUnmarshalRejectsNull(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"top-level null", `null`},
		{"nested null in object", `{"event": null}`},
		{"null in array", `[1, null, 2]`},
		{"deeply nested null", `{"order": {"items": [null]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "null")
		})
	}
}

// TestSortedKeysBasicCases tests common sorting scenarios for the
// lower-level SortedKeys method, independent of the canonical JSON
// writer tested against event payloads in hash_test.go.
func TestSortedKeysBasicCases(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]IRValue
		expected []string
	}{
		{
			name: "registration order fields",
			input: map[string]IRValue{
				"bthread": IRInt(1),
				"arbiter": IRInt(2),
				"cycle":   IRInt(3),
			},
			expected: []string{"arbiter", "bthread", "cycle"},
		},
		{
			name: "empty string first",
			input: map[string]IRValue{
				"event": IRInt(1),
				"":      IRInt(2),
			},
			expected: []string{"", "event"},
		},
		{
			name: "numbers as strings - lexicographic",
			input: map[string]IRValue{
				"10": IRInt(1),
				"2":  IRInt(2),
				"1":  IRInt(3),
			},
			expected: []string{"1", "10", "2"}, // Lexicographic, not numeric
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := IRObject(tt.input)
			assert.Equal(t, tt.expected, obj.SortedKeys())
		})
	}
}

// TestMarshalIRValueRoundTrip tests MarshalIRValue and UnmarshalIRValue
// round-trip — the non-canonical encoding the store package reads back
// when replaying a persisted run.
func TestMarshalIRValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value IRValue
	}{
		{"event name", IRString("checkout")},
		{"empty string", IRString("")},
		{"cycle count", IRInt(42)},
		{"negative int", IRInt(-100)},
		{"max int64", IRInt(9223372036854775807)},
		{"min int64", IRInt(-9223372036854775808)},
		{"bool true", IRBool(true)},
		{"bool false", IRBool(false)},
		{"empty array", IRArray{}},
		{"array of cycle numbers", IRArray{IRInt(1), IRInt(2), IRInt(3)}},
		{"empty object", IRObject{}},
		{"simple payload", IRObject{"event": IRString("checkout")}},
		{"nested payload", IRObject{
			"items": IRArray{IRInt(1), IRObject{"rush": IRBool(true)}},
			"order": IRString("cart-42"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalIRValue(tt.value)
			require.NoError(t, err)

			result, err := UnmarshalIRValue(data)
			require.NoError(t, err)

			assert.Equal(t, tt.value, result)
		})
	}
}

func TestMarshalIRObjectKeyOrder(t *testing.T) {
	obj := IRObject{
		"target_event": IRString("checkout"),
		"bthread_name":  IRString("gate"),
		"cycle_count":   IRString("3"),
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)

	expected := `{"bthread_name":"gate","cycle_count":"3","target_event":"checkout"}`
	assert.Equal(t, expected, string(data))
}

// TestHelperConstructors exercises the ergonomic IRValue constructors the
// way a scenario or compiler loader builds an event payload field by
// field.
func TestHelperConstructors(t *testing.T) {
	s := NewIRString("checkout")
	assert.Equal(t, IRString("checkout"), s)

	n := NewIRInt(5)
	assert.Equal(t, IRInt(5), n)

	b := NewIRBool(true)
	assert.Equal(t, IRBool(true), b)

	arr := NewIRArray(IRString("widget"), IRInt(1), IRBool(false))
	assert.Equal(t, IRArray{IRString("widget"), IRInt(1), IRBool(false)}, arr)

	m := map[string]IRValue{"event": IRString("checkout")}
	obj := NewIRObjectFromMap(m)
	assert.Equal(t, IRObject{"event": IRString("checkout")}, obj)

	obj2 := NewIRObjectFromPairs(
		IRPair{"event", IRString("checkout")},
		IRPair{"retries", IRInt(2)},
	)
	assert.Equal(t, IRString("checkout"), obj2["event"])
	assert.Equal(t, IRInt(2), obj2["retries"])

	obj3 := NewIRObjectFromPairs(
		O("event", NewIRString("checkout")),
		O("retries", NewIRInt(2)),
	)
	assert.Equal(t, IRString("checkout"), obj3["event"])
	assert.Equal(t, IRInt(2), obj3["retries"])
}

func TestEmptyValuesMarshaling(t *testing.T) {
	tests := []struct {
		name     string
		value    IRValue
		expected string
	}{
		{"empty string", IRString(""), `""`},
		{"empty array", IRArray{}, `[]`},
		{"empty object", IRObject{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalIRValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

// TestDeepNesting exercises a deeply nested snapshot-shaped payload: the
// kind of structure SnapshotHash's caller would build from a program
// snapshot's b-thread tree.
func TestDeepNesting(t *testing.T) {
	deep := IRObject{
		"program": IRObject{
			"snapshot": IRObject{
				"bthreads": IRArray{
					IRObject{
						"statement_hash": IRInt(42),
					},
				},
			},
		},
	}

	data, err := MarshalIRValue(deep)
	require.NoError(t, err)

	result, err := UnmarshalIRValue(data)
	require.NoError(t, err)

	assert.Equal(t, deep, result)
}

func TestUnmarshalValidJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected IRValue
	}{
		{"event name", `"checkout"`, IRString("checkout")},
		{"integer", `42`, IRInt(42)},
		{"negative integer", `-100`, IRInt(-100)},
		{"bool true", `true`, IRBool(true)},
		{"bool false", `false`, IRBool(false)},
		{"simple array", `[1,2,3]`, IRArray{IRInt(1), IRInt(2), IRInt(3)}},
		{"simple object", `{"retries":1}`, IRObject{"retries": IRInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// sanity-check that the stdlib sort package's default ordering really
// does diverge from RFC 8785 UTF-16 ordering for non-ASCII keys, so the
// comment on compareKeysRFC8785 isn't asserting something untrue.
func TestStdlibSortDoesNotImplementRFC8785(t *testing.T) {
	// U+10000 is the surrogate pair 0xD800 0xDC00 in UTF-16, so RFC 8785
	// puts it before U+E000 (0xE000); in UTF-8 bytes (0xF0... vs 0xEE...)
	// U+E000 comes first.
	keys := []string{"\U00010000", "\xee\x80\x80"}
	sort.Strings(keys)
	assert.Equal(t, []string{"\xee\x80\x80", "\U00010000"}, keys)
	assert.Less(t, compareKeysRFC8785("\U00010000", "\xee\x80\x80"), 0)
}

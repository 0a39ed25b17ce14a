package jsonrepair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepair_ValidInputPassesThrough(t *testing.T) {
	out, err := Repair(`[{"a":1},{"a":2}]`)
	require.NoError(t, err)
	require.Equal(t, `[{"a":1},{"a":2}]`, out)
}

func TestRepair_StripsCodeFences(t *testing.T) {
	out, err := Repair("```json\n[{\"a\":1}]\n```")
	require.NoError(t, err)
	require.Equal(t, `[{"a":1}]`, out)
}

func TestRepair_ClosesOpenBrackets(t *testing.T) {
	out, err := Repair(`[{"a":1},{"a":2`)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))

	var arr []map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &arr))
	require.Len(t, arr, 2)
	require.Equal(t, 2, arr[1]["a"])
}

func TestRepair_ClosesUnterminatedString(t *testing.T) {
	out, err := Repair(`{"description":"cut off mid-sent`)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))

	var obj map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &obj))
	require.Equal(t, "cut off mid-sent", obj["description"])
}

func TestRepair_TruncatesToLastCompleteElement(t *testing.T) {
	// Closing brackets alone cannot fix a dangling key; the second element
	// must be dropped.
	out, err := Repair(`[{"a":1},{"a":`)
	require.NoError(t, err)
	require.Equal(t, `[{"a":1}]`, out)
}

func TestRepair_TrailingCommaBeforeTruncation(t *testing.T) {
	out, err := Repair(`[{"a":1}, {"b":`)
	require.NoError(t, err)
	require.Equal(t, `[{"a":1}]`, out)
}

func TestRepair_Unrepairable(t *testing.T) {
	for _, input := range []string{"", "   ", "not json at all", `{"a":`} {
		_, err := Repair(input)
		require.ErrorIs(t, err, ErrUnrepairable, "input %q", input)
	}
}

func TestRepair_NestedStructures(t *testing.T) {
	out, err := Repair(`[{"steps":[{"order":1,"details":"run the check"},{"order":2,"details":"esc`)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))
}

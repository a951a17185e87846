package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawIDFromJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		raw     RawID
		id      int64
		valid   bool
		present bool
	}{
		{"number", `{"unclaim":7}`, "7", 7, true, true},
		{"string", `{"unclaim":"7"}`, "7", 7, true, true},
		{"malformed", `{"unclaim":"x"}`, "x", 0, false, true},
		{"zero", `{"unclaim":"0"}`, "0", 0, false, false},
		{"negative", `{"unclaim":-3}`, "-3", 0, false, true},
		{"null", `{"unclaim":null}`, "", 0, false, false},
		{"absent", `{}`, "", 0, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req InboxActionRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.raw, req.Unclaim)
			id, ok := req.Unclaim.Int64()
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.id, id)
			assert.Equal(t, tc.id, req.Unclaim.OrZero())
			assert.Equal(t, tc.present, req.Unclaim.Present())
		})
	}
}

func TestRawIDFromText(t *testing.T) {
	var r RawID
	require.NoError(t, r.UnmarshalText([]byte(" 12 ")))
	id, ok := r.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)
}

func TestInboxActionRequestStructured(t *testing.T) {
	assert.False(t, InboxActionRequest{Reroute: "Finance 3"}.Structured())
	assert.True(t, InboxActionRequest{RerouteTicket: "3"}.Structured())
	assert.True(t, InboxActionRequest{RerouteDepartment: "0"}.Structured())
}

package pact

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_RequiredFields(t *testing.T) {
	valid := `{"type":"t","specversion":"1.0","id":"abc","source":"https://host","time":"2025-01-01T00:00:00Z","data":{}}`
	ev, err := ParseEvent([]byte(valid))
	require.NoError(t, err)
	assert.Equal(t, "abc", ev.ID)
	assert.Equal(t, "https://host", ev.Source)

	missing := []string{
		`{"specversion":"1.0","source":"s","data":{}}`,
		`{"type":"t","source":"s","data":{}}`,
		`{"type":"t","specversion":"1.0","data":{}}`,
		`{"type":"t","specversion":"1.0","source":"s"}`,
		`{"type":"t","specversion":"1.0","source":"s","data":null}`,
		`{"type":"t","specversion":"1.0","source":"s","data":false}`,
		`{"type":"t","specversion":"1.0","source":"s","data":0}`,
		`{"type":"t","specversion":"1.0","source":"s","data":0.0}`,
		`{"type":"t","specversion":"1.0","source":"s","data":""}`,
		`{"type":"","specversion":"1.0","source":"s","data":{}}`,
	}
	for _, body := range missing {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidEvent, body)
	}

	for _, data := range []string{`[]`, `true`, `1`, `"x"`} {
		_, err := ParseEvent([]byte(`{"type":"t","specversion":"1.0","source":"s","data":` + data + `}`))
		assert.NoError(t, err, data)
	}

	_, err = ParseEvent([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEvent_Strings(t *testing.T) {
	ev := &Event{Data: []byte(`{"pfIds":["a","b"],"pf":{"productIds":["urn:pact:null"]},"productId":"scalar","mixed":[1,"x"]}`)}

	got, ok := ev.Strings("pfIds")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got, ok = ev.Strings("pf", "productIds")
	require.True(t, ok)
	assert.Equal(t, []string{SentinelProductID}, got)

	_, ok = ev.Strings("productId")
	assert.False(t, ok, "scalar is not a list")

	_, ok = ev.Strings("pf", "missing")
	assert.False(t, ok)

	_, ok = ev.Strings("pfIds", "deeper")
	assert.False(t, ok)

	got, ok = ev.Strings("mixed")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "x"}, got)
}

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, IsCanonicalID("3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.True(t, IsCanonicalID("3FA85F64-5717-4562-B3FC-2C963F66AFA6"))

	assert.False(t, IsCanonicalID(""))
	assert.False(t, IsCanonicalID("not-a-uuid"))
	assert.False(t, IsCanonicalID("3fa85f6457174562b3fc2c963f66afa6"))
	assert.False(t, IsCanonicalID("{3fa85f64-5717-4562-b3fc-2c963f66afa6}"))
	assert.False(t, IsCanonicalID("urn:uuid:3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.False(t, IsCanonicalID("3fa85f64-5717-4562-b3fc-2c963f66afaz"))
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	tokErr := &TokenError{Endpoint: "https://host/auth/token", Err: cause}
	assert.ErrorIs(t, tokErr, ErrTokenAcquisition)
	assert.ErrorIs(t, tokErr, cause)
	assert.NotErrorIs(t, tokErr, ErrForwarding)

	fwd := fmt.Errorf("fulfill: %w", &ForwardingError{Destination: "https://host/3/events", Status: 503})
	assert.ErrorIs(t, fwd, ErrForwarding)
	var fe *ForwardingError
	require.ErrorAs(t, fwd, &fe)
	assert.Equal(t, 503, fe.Status)
	assert.Contains(t, fe.Error(), "status 503")
}

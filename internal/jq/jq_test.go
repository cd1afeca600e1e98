package jq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_String(t *testing.T) {
	q := MustCompile(`.chart.result[0].meta.longName`)

	name, err := q.String([]byte(`{"chart":{"result":[{"meta":{"longName":"Apple Inc."}}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)
}

func TestQuery_SkipsNull(t *testing.T) {
	q := MustCompile(`.a, .b`)

	v, err := q.String([]byte(`{"a":null,"b":"second"}`))
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestQuery_NoResult(t *testing.T) {
	_, err := MustCompile(`.missing`).First([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestQuery_Float(t *testing.T) {
	f, err := MustCompile(`.price`).Float([]byte(`{"price":189.84}`))
	require.NoError(t, err)
	assert.InDelta(t, 189.84, f, 1e-9)

	_, err = MustCompile(`.price`).Float([]byte(`{"price":"n/a"}`))
	assert.Error(t, err)
}

func TestQuery_InvalidInput(t *testing.T) {
	_, err := MustCompile(`.`).First([]byte(`{`))
	assert.Error(t, err)

	_, err = Compile(`.[`)
	assert.Error(t, err)
}

func TestQuery_Join(t *testing.T) {
	q := MustCompile(`[.[0][]?[0] | strings] | join("")`)

	s, err := q.String([]byte(`[[["Hola ","Hello ",null],["mundo","world",null]],null,"en"]`))
	require.NoError(t, err)
	assert.Equal(t, "Hola mundo", s)
}

package jq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procwise/flowschema/pkg/schema"
)

func TestFilter_Match(t *testing.T) {
	f := NewFilter()
	env := map[string]any{"file_index": 12, "node_count": 5}

	ok, err := f.Match(context.Background(), "file_index > 10 && node_count < 20", env)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(context.Background(), "file_index > 100", env)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_StringOps(t *testing.T) {
	f := NewFilter()
	env := map[string]any{"procedure_text": "The customer orders a drink."}

	ok, err := f.Match(context.Background(), `procedure_text contains "drink"`, env)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilter_NonBooleanResult(t *testing.T) {
	f := NewFilter()

	_, err := f.Match(context.Background(), "file_index + 1", map[string]any{"file_index": 1})
	require.Error(t, err)

	var serr *schema.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, schema.ErrCodeValidation, serr.Code)
}

func TestFilter_EmptyExpression(t *testing.T) {
	f := NewFilter()

	_, err := f.Match(context.Background(), "", nil)
	require.Error(t, err)
}

func TestFilter_CompileError(t *testing.T) {
	f := NewFilter()

	_, err := f.Match(context.Background(), "file_index >", map[string]any{"file_index": 1})
	require.Error(t, err)

	var serr *schema.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, schema.ErrCodeValidation, serr.Code)
}

func TestRecordEnv(t *testing.T) {
	rec := &schema.Record{
		FileIndex:     3,
		ProcedureText: "text",
		StepNodes: []schema.FlowNode{
			{ResourceID: "n1", Kind: schema.NodeKindActivity},
		},
		SequenceFlow: []schema.FlowEdge{
			{Source: "n1", Target: "n2"},
			{Source: "n2", Target: "n3"},
		},
	}

	env := RecordEnv(rec)
	assert.Equal(t, 3, env["file_index"])
	assert.Equal(t, "text", env["procedure_text"])
	assert.Equal(t, 1, env["node_count"])
	assert.Equal(t, 2, env["edge_count"])
}

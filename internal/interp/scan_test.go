package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/zclconf/go-cty/cty"
)

func TestCreatesNamedObjects(t *testing.T) {
	assert.False(t, createsNamedObjects(nil))
	assert.False(t, createsNamedObjects([]Op{
		StoreLocal{Src: Int(1), Dst: 0},
		StoreNamed{Src: Int(1), Dst: "EXS_"},
		Return{Val: Local(0)},
	}))

	assert.True(t, createsNamedObjects([]Op{
		CreateNamed{Name: "NEW_", Val: Int(0)},
	}))

	// Conditional creation still counts: the scan is syntactic, not a
	// reachability analysis.
	assert.True(t, createsNamedObjects([]Op{
		If{Pred: Int(0), Then: []Op{
			While{Pred: Int(1), Body: []Op{
				CreateNamed{Name: "NEW_", Val: Int(0)},
			}},
		}},
	}))
	assert.True(t, createsNamedObjects([]Op{
		If{Pred: Int(1), Else: []Op{
			CreateNamed{Name: "NEW_", Val: Int(0)},
		}},
	}))
}

func TestLoadAutoSerializesCreatingMethods(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)

	creator := &Method{Name: "CRT_", Body: []Op{CreateNamed{Name: "OBJ_", Val: Int(1)}}}
	reader := &Method{Name: "RDR_", Body: []Op{Return{Val: Int(1)}}}
	require.NoError(t, e.Load(creator, reader))

	assert.True(t, creator.Serialized)
	assert.NotNil(t, creator.mu)
	assert.False(t, reader.Serialized)
	assert.Nil(t, reader.mu)
}

func TestLoadHonorsAutoSerializeSwitch(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.AutoSerializeMethods: cty.False,
	})

	creator := &Method{Name: "CRT_", Body: []Op{CreateNamed{Name: "OBJ_", Val: Int(1)}}}
	require.NoError(t, e.Load(creator))
	assert.False(t, creator.Serialized)
}

func TestLoadKeepsAuthorSerialization(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]cty.Value{
		hostcfg.AutoSerializeMethods: cty.False,
	})

	m := &Method{Name: "SER_", Serialized: true, Body: []Op{Return{Val: Int(1)}}}
	require.NoError(t, e.Load(m))
	assert.True(t, m.Serialized)
	assert.NotNil(t, m.mu)
}

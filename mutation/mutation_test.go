package mutation

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector3PartialApplyKeepsUnsetComponents(t *testing.T) {
	base := mgl32.Vec3{1, 2, 3}

	var nilVec *Vector3Partial
	assert.Equal(t, base, nilVec.Apply(base))
	assert.Equal(t, base, (&Vector3Partial{}).Apply(base))
	assert.Equal(t, mgl32.Vec3{1, 2, 0}, (&Vector3Partial{Z: Float(0)}).Apply(base))
	assert.Equal(t, mgl32.Vec3{7, 8, 9}, Vec3(mgl32.Vec3{7, 8, 9}).Apply(base))
}

func TestCommandEmpty(t *testing.T) {
	assert.True(t, Command{}.Empty())
	assert.True(t, Command{Cars: []CarState{{}, {Physics: &Physics{}}}}.Empty())
	assert.True(t, Command{Match: &MatchInfo{}}.Empty())
	assert.False(t, Command{Console: []string{"Stat FPS"}}.Empty())
	assert.False(t, Command{Match: &MatchInfo{WorldGravityZ: Float(0)}}.Empty())
	assert.False(t, Command{Balls: []BallState{{Physics: &Physics{Velocity: &Vector3Partial{Y: Float(1)}}}}}.Empty())
}

func TestCommandJSONOmitsUnsetFields(t *testing.T) {
	cmd := Command{
		Cars: []CarState{
			{},
			{Physics: &Physics{Velocity: Vec3(mgl32.Vec3{0, 0, -2.5})}},
		},
		Match: &MatchInfo{WorldGravityZ: Float(0)},
	}
	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"cars":[{},{"physics":{"velocity":{"x":0,"y":0,"z":-2.5}}}],"match":{"world_gravity_z":0}}`,
		string(b),
	)
}
